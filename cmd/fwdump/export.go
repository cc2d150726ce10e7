// Copyright 2017-2018 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yywing/go-firmdump/export"
	"github.com/yywing/go-firmdump/smbios"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every ACPI table and the SMBIOS table to a directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		dir := cfg.ExportDir
		if flags.Changed("dir") {
			dir, _ = flags.GetString("dir")
		}
		workers := cfg.Workers
		if flags.Changed("workers") {
			workers, _ = flags.GetInt("workers")
		}
		structures, _ := flags.GetBool("structures")

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create export directory")
		}

		out := cmd.OutOrStdout()

		ts := loadACPI(cmd)
		if len(ts) == 0 {
			fmt.Fprintln(out, noTables)
		} else {
			r, err := export.All(cmd.Context(), ts, export.DirSinks(dir), export.WithWorkers(workers))
			if err != nil {
				return err
			}
			for _, f := range r.Failed {
				log.Warn(f.Err)
			}
			fmt.Fprintf(out, "ACPI: %s to %s\n", r.Summary(), dir)
		}

		t, err := loadSMBIOS(cmd)
		if err != nil {
			return err
		}
		if t == nil {
			fmt.Fprintln(out, "SMBIOS: no table found")
			return nil
		}

		n, err := exportSMBIOS(dir, t, structures)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "SMBIOS: %d files written to %s\n", n, dir)
		return nil
	},
}

// exportSMBIOS writes the SMBIOS table to dir, and each of its structures
// too if structures is set.  It returns the number of files written.
func exportSMBIOS(dir string, t *smbios.Table, structures bool) (int, error) {
	err := export.File(filepath.Join(dir, export.SMBIOSFileName), func(w io.Writer) error {
		return export.SMBIOS(t, w)
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to export SMBIOS table")
	}
	n := 1

	if !structures {
		return n, nil
	}

	ss, err := t.Decode()
	if err != nil {
		log.Warnf("SMBIOS table: %v", err)
	}
	for _, s := range ss {
		s := s
		err := export.File(filepath.Join(dir, export.StructureFileName(s)), func(w io.Writer) error {
			return export.Structure(s, w)
		})
		if err != nil {
			return n, errors.Wrapf(err, "failed to export SMBIOS structure 0x%04X", s.Header.Handle)
		}
		n++
	}

	return n, nil
}

func init() {
	exportCmd.Flags().String("dir", "", "export directory, overriding the configuration")
	exportCmd.Flags().Int("workers", 0, "number of tables exported concurrently, overriding the configuration")
	exportCmd.Flags().Bool("structures", false, "also export each SMBIOS structure to its own file")
}
