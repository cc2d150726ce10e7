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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yywing/go-firmdump/hexdump"
	"github.com/yywing/go-firmdump/smbios"
)

var smbiosCmd = &cobra.Command{
	Use:   "smbios",
	Short: "List SMBIOS structures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		t, err := loadSMBIOS(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if t == nil {
			fmt.Fprintln(out, noTables)
			return nil
		}

		ss, err := t.Decode()
		if err != nil {
			log.Warnf("SMBIOS table: %v", err)
		}

		flags := cmd.Flags()
		dump, _ := flags.GetBool("dump")
		if flags.Changed("type") {
			typ, _ := flags.GetUint8("type")
			ss = filterType(ss, typ)
		}

		fmt.Fprintf(out, "SMBIOS %s, %d bytes, %d structures\n", t.Version(), len(t.Data), len(ss))
		listStructures(out, ss)

		if !dump {
			return nil
		}
		for _, s := range ss {
			fmt.Fprintf(out, "\nHandle 0x%04X, DMI type %d, %d bytes\n", s.Header.Handle, s.Header.Type, len(s.Raw))
			if err := hexdump.Write(out, s.Raw); err != nil {
				return err
			}
		}

		return nil
	},
}

func filterType(ss []*smbios.Structure, typ uint8) []*smbios.Structure {
	var out []*smbios.Structure
	for _, s := range ss {
		if s.Header.Type == typ {
			out = append(out, s)
		}
	}

	return out
}

func init() {
	smbiosCmd.Flags().Uint8P("type", "t", 0, "only list structures of this type")
	smbiosCmd.Flags().Bool("dump", false, "hex dump every listed structure")
}
