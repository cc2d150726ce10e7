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
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/yywing/go-firmdump/acpi"
	"github.com/yywing/go-firmdump/export"
	"github.com/yywing/go-firmdump/smbios"
)

func makeTable(sig string, body []byte) []byte {
	b := make([]byte, acpi.HeaderLen+len(body))
	copy(b, sig)
	binary.LittleEndian.PutUint32(b[4:8], uint32(len(b)))
	b[8] = 1
	copy(b[10:16], "BOCHS ")
	copy(b[16:24], "BXPC    ")
	copy(b[acpi.HeaderLen:], body)
	b[9] = uint8(256 - int(acpi.Sum(b)))

	return b
}

func testTables() []acpi.RawTable {
	entries := make([]byte, 16)
	binary.LittleEndian.PutUint64(entries[0:8], 0x1000)
	binary.LittleEndian.PutUint64(entries[8:16], 0x2000)

	return []acpi.RawTable{
		acpi.NewRawTable(makeTable("XSDT", entries)),
		acpi.NewRawTable(makeTable("FACP", []byte{1, 2, 3, 4})).WithAddress(0x1000),
		acpi.NewRawTable(makeTable("SSDT", []byte{1})),
		acpi.NewRawTable(makeTable("SSDT", []byte{2})),
	}
}

// oemStrings is an OEM strings structure followed by the end-of-table
// structure.
var oemStrings = []byte{
	0x0b, 0x05, 0x10, 0x00, 0x02,
	'a', 0x00, 'b', 0x00,
	0x00,
	0x7f, 0x04, 0x11, 0x00,
	0x00, 0x00,
}

func TestFindTable(t *testing.T) {
	ts := testTables()

	tests := []struct {
		name string
		arg  string
		want acpi.ID
		ok   bool
	}{
		{
			name: "ordinal ID",
			arg:  "SSDT#1",
			want: acpi.ID{Signature: acpi.SigSSDT, Ordinal: 1},
			ok:   true,
		},
		{
			name: "address ID",
			arg:  "FACP@0x0000000000001000",
			want: acpi.ID{Signature: acpi.SigFADT, Address: 0x1000, HasAddress: true},
			ok:   true,
		},
		{
			name: "file name",
			arg:  "SSDT_0.bin",
			want: acpi.ID{Signature: acpi.SigSSDT},
			ok:   true,
		},
		{
			name: "signature",
			arg:  "SSDT",
			want: acpi.ID{Signature: acpi.SigSSDT},
			ok:   true,
		},
		{
			name: "missing",
			arg:  "DSDT",
		},
		{
			name: "garbage",
			arg:  "SSDT#9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, id, err := findTable(ts, tt.arg)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, id); diff != "" {
				t.Fatalf("unexpected table (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListTables(t *testing.T) {
	var buf bytes.Buffer
	listTables(&buf, testTables())

	out := buf.String()
	for _, s := range []string{"XSDT#0", "FACP@0x0000000000001000", "SSDT#0", "SSDT#1", "BOCHS", "BXPC", "ok"} {
		require.Contains(t, out, s)
	}
}

func TestRootEntries(t *testing.T) {
	ts := testTables()

	es, err := rootEntries(ts)
	require.NoError(t, err)

	want := []acpi.Entry{
		{Address: 0x1000, Signature: acpi.SigFADT, Resolved: true},
		{Address: 0x2000},
	}
	if diff := cmp.Diff(want, acpi.NewAddressIndex(ts).Resolve(es)); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}

	_, err = rootEntries(ts[1:])
	require.Error(t, err)
}

func TestDescribeStructure(t *testing.T) {
	ss, err := smbios.NewDecoder(oemStrings, smbios.Version{}).Decode()
	require.NoError(t, err)
	require.Len(t, ss, 2)

	require.Equal(t, "a, b", describeStructure(ss[0]))
	require.Equal(t, "0 bytes", describeStructure(ss[1]))

	got := filterType(ss, smbios.TypeOEMStrings)
	require.Len(t, got, 1)
	require.Equal(t, uint16(0x10), got[0].Header.Handle)

	var buf bytes.Buffer
	listStructures(&buf, ss)
	require.Contains(t, buf.String(), "0x0010")
	require.Contains(t, buf.String(), "OEM Strings")
}

func TestExportSMBIOS(t *testing.T) {
	dir := t.TempDir()
	tbl := &smbios.Table{Data: oemStrings}

	n, err := exportSMBIOS(dir, tbl, true)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	des, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, de := range des {
		names = append(names, de.Name())
	}
	sort.Strings(names)

	want := []string{
		export.SMBIOSFileName,
		"smbios_type_11_0010.bin",
		"smbios_type_127_0011.bin",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}

	b, err := os.ReadFile(filepath.Join(dir, export.SMBIOSFileName))
	require.NoError(t, err)
	require.Equal(t, oemStrings, b)

	got, err := smbios.ReadTableFile(filepath.Join(dir, export.SMBIOSFileName))
	require.NoError(t, err)
	require.Equal(t, tbl.Data, got.Data)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	_, err := export.All(context.Background(), testTables(), export.DirSinks(dir))
	require.NoError(t, err)

	run := func(args ...string) string {
		var buf bytes.Buffer
		rootCmd.SetOut(&buf)
		rootCmd.SetArgs(append(args, "--no-system", "--input-dir", dir))
		require.NoError(t, rootCmd.Execute())
		return buf.String()
	}

	out := run("acpi", "list")
	require.Contains(t, out, "FACP@0x0000000000001000")
	require.Contains(t, out, "XSDT#0")

	out = run("acpi", "xsdt")
	require.Contains(t, out, "0x0000000000002000")
	require.Contains(t, out, "unresolved")
	require.Contains(t, out, "FACP")

	out = run("acpi", "dump", "SSDT#1")
	require.Contains(t, out, "SSDT#1, 37 bytes")
	require.Contains(t, out, "00000000  53 53 44 54")

	out = run("smbios")
	require.Contains(t, out, noTables)
}

func TestListEntriesReferences(t *testing.T) {
	body := make([]byte, 116-acpi.HeaderLen)
	binary.LittleEndian.PutUint32(body[0:4], 0x3000) // FIRMWARE_CTRL
	binary.LittleEndian.PutUint32(body[4:8], 0x2000) // DSDT

	ts := append(testTables(), acpi.NewRawTable(makeTable("DSDT", []byte("dsdt"))))
	ts[1] = acpi.NewRawTable(makeTable("FACP", body)).WithAddress(0x1000)
	ts = acpi.Locate(acpi.Merge(ts))

	refs := fadtReferences(ts)
	want := []acpi.Reference{
		{Name: "FIRMWARE_CTRL", Address: 0x3000},
		{Name: "DSDT", Address: 0x2000},
	}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Fatalf("unexpected references (-want +got):\n%s", diff)
	}

	es, err := rootEntries(ts)
	require.NoError(t, err)
	es = acpi.NewAddressIndex(ts).Resolve(es)

	// The DSDT has no address of its own; it is placed by the FADT.
	require.Equal(t, acpi.Entry{Address: 0x2000, Signature: acpi.SigDSDT, Resolved: true}, es[1])

	var buf bytes.Buffer
	listEntries(&buf, es, refs)
	require.Contains(t, buf.String(), "FADT.DSDT")
	require.NotContains(t, buf.String(), "FADT.FIRMWARE_CTRL")
}
