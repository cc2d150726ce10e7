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

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yywing/go-firmdump/acpi"
	"github.com/yywing/go-firmdump/hexdump"
)

const noTables = "no tables found, check privileges"

var acpiCmd = &cobra.Command{
	Use:   "acpi",
	Short: "Inspect ACPI tables",
}

var acpiListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ACPI tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ts := loadACPI(cmd)
		if len(ts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), noTables)
			return nil
		}

		listTables(cmd.OutOrStdout(), ts)
		return nil
	},
}

var acpiDumpCmd = &cobra.Command{
	Use:   "dump <table>",
	Short: "Hex dump one ACPI table, named by ID, export file name or signature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts := loadACPI(cmd)
		if len(ts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), noTables)
			return nil
		}

		t, id, err := findTable(ts, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s, %d bytes\n", id, len(t.Bytes))
		return hexdump.Write(cmd.OutOrStdout(), t.Bytes)
	},
}

var acpiXSDTCmd = &cobra.Command{
	Use:   "xsdt",
	Short: "List the tables referenced by the XSDT, or the RSDT if there is no XSDT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ts := loadACPI(cmd)
		if len(ts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), noTables)
			return nil
		}

		es, err := rootEntries(ts)
		if errors.Is(err, acpi.ErrMalformedEntryArray) {
			log.Warnf("root table: %v", err)
		} else if err != nil {
			return err
		}

		listEntries(cmd.OutOrStdout(), acpi.NewAddressIndex(ts).Resolve(es), fadtReferences(ts))
		return nil
	},
}

// fadtReferences returns the pointers held by the FADT, or nil if there is
// no FADT that decodes.
func fadtReferences(ts []acpi.RawTable) []acpi.Reference {
	t, _, err := findTable(ts, acpi.SigFADT.String())
	if err != nil {
		return nil
	}

	f, err := acpi.DecodeFADT(t)
	if err != nil {
		log.Debugf("FADT: %v", err)
		return nil
	}

	return f.References()
}

// rootEntries decodes the XSDT, falling back to the RSDT.
func rootEntries(ts []acpi.RawTable) ([]acpi.Entry, error) {
	if t, _, err := findTable(ts, acpi.SigXSDT.String()); err == nil {
		return acpi.DecodeXSDT(t)
	}
	if t, _, err := findTable(ts, acpi.SigRSDT.String()); err == nil {
		return acpi.DecodeRSDT(t)
	}

	return nil, errors.New("no XSDT or RSDT found")
}

var acpiFADTCmd = &cobra.Command{
	Use:   "fadt",
	Short: "Decode the Fixed ACPI Description Table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ts := loadACPI(cmd)
		if len(ts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), noTables)
			return nil
		}

		t, _, err := findTable(ts, acpi.SigFADT.String())
		if err != nil {
			return err
		}

		f, err := acpi.DecodeFADT(t)
		if err != nil {
			return errors.Wrap(err, "failed to decode FADT")
		}

		refs := acpi.NewAddressIndex(ts).ResolveReferences(f.References())
		describeFADT(cmd.OutOrStdout(), f, refs)
		return nil
	},
}

func init() {
	acpiCmd.AddCommand(acpiListCmd, acpiDumpCmd, acpiXSDTCmd, acpiFADTCmd)
}
