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
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/yywing/go-firmdump/acpi"
	"github.com/yywing/go-firmdump/smbios"
)

func newTable(w io.Writer, header ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleDefault)
	t.AppendHeader(table.Row(header))
	return t
}

func checksumStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "bad"
}

// listTables renders one row per ACPI table.
func listTables(w io.Writer, ts []acpi.RawTable) {
	t := newTable(w, "ID", "Signature", "Length", "Revision", "OEM ID", "OEM Table ID", "Checksum")

	for i, id := range acpi.Identify(ts) {
		h, err := acpi.DecodeHeader(ts[i])
		if err != nil {
			t.AppendRow(table.Row{id, ts[i].Signature, len(ts[i].Bytes), "-", "-", "-", err})
			continue
		}

		t.AppendRow(table.Row{id, h.Signature, h.Length, h.Revision, h.OEM(), h.OEMTable(), checksumStatus(h.ChecksumValid)})
	}

	t.Render()
}

// findTable returns the table named by arg, which is either an identity as
// printed by listTables, an export file name or a bare signature.  A bare
// signature selects the first table carrying it.
func findTable(ts []acpi.RawTable, arg string) (acpi.RawTable, acpi.ID, error) {
	ids := acpi.Identify(ts)
	for i, id := range ids {
		if id.String() == arg || id.FileName() == arg {
			return ts[i], id, nil
		}
	}

	if len(arg) == len(acpi.Signature{}) {
		sig := acpi.SignatureOf(arg)
		for i, id := range ids {
			if id.Signature == sig {
				return ts[i], id, nil
			}
		}
	}

	return acpi.RawTable{}, acpi.ID{}, errors.Errorf("no table matches %q", arg)
}

// listEntries renders the pointers of a root table.  Entries are also
// labelled with the name of every FADT reference holding the same address.
func listEntries(w io.Writer, es []acpi.Entry, refs []acpi.Reference) {
	t := newTable(w, "#", "Address", "Table", "Referenced by")

	for i, e := range es {
		target := "unresolved"
		if e.Resolved {
			target = e.Signature.String()
		}

		var names []string
		for _, r := range refs {
			if r.Address == e.Address {
				names = append(names, "FADT."+r.Name)
			}
		}

		t.AppendRow(table.Row{i, fmt.Sprintf("0x%016X", e.Address), target, strings.Join(names, ", ")})
	}

	t.Render()
}

func gas(g acpi.GenericAddress) string {
	return fmt.Sprintf("space %d, %d bits at 0x%X", g.AddressSpace, g.BitWidth, g.Address)
}

// describeFADT renders the decoded fields of f as name and value rows.
func describeFADT(w io.Writer, f *acpi.FADT, refs []acpi.Reference) {
	t := newTable(w, "Field", "Value")

	t.AppendRow(table.Row{"Revision", f.Header.Revision})
	if f.HasMinorVersion {
		t.AppendRow(table.Row{"Minor version", f.MinorVersion})
	}
	t.AppendRow(table.Row{"Checksum", checksumStatus(f.Header.ChecksumValid)})
	t.AppendRow(table.Row{"Preferred PM profile", f.PreferredPMProfile})
	t.AppendRow(table.Row{"SCI interrupt", f.SCIInterrupt})
	t.AppendRow(table.Row{"SMI command port", fmt.Sprintf("0x%X", f.SMICommand)})
	t.AppendRow(table.Row{"PM timer block", fmt.Sprintf("0x%X", f.PMTimerBlock)})
	t.AppendRow(table.Row{"IA-PC boot flags", fmt.Sprintf("0x%04X", f.IAPCBootArch)})
	t.AppendRow(table.Row{"Flags", fmt.Sprintf("0x%08X", f.Flags)})
	t.AppendRow(table.Row{"FACS address", fmt.Sprintf("0x%X", f.FACSAddress())})
	t.AppendRow(table.Row{"DSDT address", fmt.Sprintf("0x%X", f.DSDTAddress())})

	if f.HasReset {
		t.AppendRow(table.Row{"Reset register", gas(f.ResetRegister)})
		t.AppendRow(table.Row{"Reset value", fmt.Sprintf("0x%02X", f.ResetValue)})
	}
	if f.HasXBlocks {
		t.AppendRow(table.Row{"X_PM1a event block", gas(f.XPM1aEventBlock)})
		t.AppendRow(table.Row{"X_PM timer block", gas(f.XPMTimerBlock)})
	}
	if f.HasSleepRegisters {
		t.AppendRow(table.Row{"Sleep control register", gas(f.SleepControlRegister)})
		t.AppendRow(table.Row{"Sleep status register", gas(f.SleepStatusRegister)})
	}
	if f.HasHypervisorVendor {
		t.AppendRow(table.Row{"Hypervisor vendor", fmt.Sprintf("0x%016X", f.HypervisorVendor)})
	}

	for _, r := range refs {
		target := "unresolved"
		if r.Resolved {
			target = r.Signature.String()
		}
		t.AppendRow(table.Row{r.Name, fmt.Sprintf("0x%X (%s)", r.Address, target)})
	}

	t.AppendRow(table.Row{"Decoded length", f.DecodedLen})
	t.AppendRow(table.Row{"Trailing bytes", len(f.Trailing)})

	t.Render()
}

// listStructures renders one row per SMBIOS structure.
func listStructures(w io.Writer, ss []*smbios.Structure) {
	t := newTable(w, "Handle", "Type", "Name", "Length", "Strings", "Summary")

	for _, s := range ss {
		t.AppendRow(table.Row{
			fmt.Sprintf("0x%04X", s.Header.Handle),
			s.Header.Type,
			smbios.TypeName(s.Header.Type),
			s.Header.Length,
			len(s.Strings),
			describeStructure(s),
		})
	}

	t.Render()
}

// describeStructure summarizes the decoded fields of s in one line.
func describeStructure(s *smbios.Structure) string {
	switch i := s.Info.(type) {
	case *smbios.BIOSInfo:
		return fmt.Sprintf("%s %s (%s)", i.Vendor, i.Version, i.ReleaseDate)
	case *smbios.SystemInfo:
		d := fmt.Sprintf("%s %s", i.Manufacturer, i.ProductName)
		if i.UUIDSet() {
			d += " " + i.UUID.String()
		}
		return d
	case *smbios.BaseboardInfo:
		return fmt.Sprintf("%s %s", i.Manufacturer, i.Product)
	case *smbios.ChassisInfo:
		return fmt.Sprintf("%s %s", i.Manufacturer, i.TypeName())
	case *smbios.ProcessorInfo:
		if !i.Populated() {
			return fmt.Sprintf("%s empty", i.SocketDesignation)
		}
		return fmt.Sprintf("%s %s, %d cores, %d threads", i.SocketDesignation, i.Version, i.Cores(), i.Threads())
	case *smbios.CacheInfo:
		return fmt.Sprintf("%s L%d %d KB", i.SocketDesignation, i.Level(), i.InstalledBytes()>>10)
	case *smbios.SystemSlot:
		if i.HasAddress {
			return fmt.Sprintf("%s %s", i.Designation, i.PCIAddress())
		}
		return i.Designation.String()
	case *smbios.OEMStrings:
		vs := make([]string, 0, len(i.Values))
		for _, v := range i.Values {
			vs = append(vs, v.String())
		}
		return strings.Join(vs, ", ")
	case *smbios.MemoryDevice:
		if !i.Installed() {
			return fmt.Sprintf("%s empty", i.DeviceLocator)
		}
		return fmt.Sprintf("%s %d MB %s", i.DeviceLocator, i.SizeBytes()>>20, i.TypeName())
	case *smbios.SystemBootInfo:
		return fmt.Sprintf("boot status %d", i.Status())
	case *smbios.Generic:
		return fmt.Sprintf("%d bytes", len(i.Raw))
	}

	return ""
}
