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

// Command fwdump lists, decodes and exports ACPI and SMBIOS firmware tables.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yywing/go-firmdump/acpi"
	"github.com/yywing/go-firmdump/internal/config"
	"github.com/yywing/go-firmdump/smbios"
)

// cfg is loaded before any subcommand runs.
var cfg = config.Defaults()

var rootCmd = &cobra.Command{
	Use:           "fwdump",
	Short:         "Inspect and export ACPI and SMBIOS firmware tables",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "configuration file (.yaml, .yml or .env)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "print debug logs")
	rootCmd.PersistentFlags().StringP("input-dir", "i", "", "also read ACPI tables exported to this directory")
	rootCmd.PersistentFlags().Bool("no-system", false, "do not read tables from the running system")
	rootCmd.PersistentFlags().String("smbios-file", "", "read the SMBIOS table from this exported file")

	rootCmd.AddCommand(acpiCmd, smbiosCmd, exportCmd)
}

func setup(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("input-dir") {
		c.InputDir, _ = flags.GetString("input-dir")
	}
	if flags.Changed("smbios-file") {
		c.SMBIOSFile, _ = flags.GetString("smbios-file")
	}

	log.SetLevel(c.Level())
	if debug, _ := flags.GetBool("debug"); debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg = c
	return nil
}

// loadACPI enumerates the ACPI tables of every configured source and
// derives the addresses the FADT points at.
func loadACPI(cmd *cobra.Command) []acpi.RawTable {
	var cs []acpi.Collector
	if noSystem, _ := cmd.Flags().GetBool("no-system"); !noSystem {
		cs = append(cs, acpi.SystemCollectors()...)
	}
	if cfg.InputDir != "" {
		cs = append(cs, acpi.DirCollector{Dir: cfg.InputDir})
	}

	return acpi.Locate(acpi.Enumerate(cmd.Context(), cs...))
}

// loadSMBIOS returns the configured SMBIOS table, or nil if none is
// available.
func loadSMBIOS(cmd *cobra.Command) (*smbios.Table, error) {
	if cfg.SMBIOSFile != "" {
		t, err := smbios.ReadTableFile(cfg.SMBIOSFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read SMBIOS table from %q", cfg.SMBIOSFile)
		}
		return t, nil
	}

	if noSystem, _ := cmd.Flags().GetBool("no-system"); noSystem {
		return nil, nil
	}

	return smbios.LoadTable(), nil
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
