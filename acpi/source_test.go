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

package acpi_test

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/yywing/go-firmdump/acpi"
)

type fakeCollector struct {
	name string
	ts   []acpi.RawTable
	err  error
}

func (c fakeCollector) Name() string { return c.name }

func (c fakeCollector) Collect(_ context.Context) ([]acpi.RawTable, error) {
	return c.ts, c.err
}

func testTables() (dsdt, ssdt1, ssdt2, facp acpi.RawTable) {
	dsdt = acpi.NewRawTable(makeTable("DSDT", 48, 2, []byte("dsdt")))
	ssdt1 = acpi.NewRawTable(makeTable("SSDT", 40, 2, []byte{1}))
	ssdt2 = acpi.NewRawTable(makeTable("SSDT", 40, 2, []byte{2}))
	facp = acpi.NewRawTable(makeFADT(244, 4)).WithAddress(0x7ff4a000)

	// ssdt1 sorts before ssdt2.
	if bytes.Compare(ssdt1.Bytes, ssdt2.Bytes) > 0 {
		ssdt1, ssdt2 = ssdt2, ssdt1
	}
	return
}

func TestMerge(t *testing.T) {
	dsdt, ssdt1, ssdt2, facp := testTables()

	a := []acpi.RawTable{ssdt2, dsdt, facp}
	b := []acpi.RawTable{facp, ssdt1, ssdt2}

	want := []acpi.RawTable{dsdt, facp, ssdt1, ssdt2}

	ab := acpi.Merge(a, b)
	if diff := cmp.Diff(want, ab); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(ab, acpi.Merge(b, a)); diff != "" {
		t.Fatalf("merge is not commutative (-ab +ba):\n%s", diff)
	}

	if diff := cmp.Diff(ab, acpi.Merge(ab, ab)); diff != "" {
		t.Fatalf("merge is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestMergeAddressedWins(t *testing.T) {
	dsdt, _, _, _ := testTables()
	located := dsdt.WithAddress(0x1000)

	got := acpi.Merge([]acpi.RawTable{dsdt}, []acpi.RawTable{located})
	if diff := cmp.Diff([]acpi.RawTable{located}, got); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestMergeConflictingAddress(t *testing.T) {
	_, ssdt1, ssdt2, _ := testTables()
	x := ssdt1.WithAddress(0x2000)
	y := ssdt2.WithAddress(0x2000)

	xy := acpi.Merge([]acpi.RawTable{x}, []acpi.RawTable{y})
	yx := acpi.Merge([]acpi.RawTable{y}, []acpi.RawTable{x})

	require.Len(t, xy, 1)
	if diff := cmp.Diff(xy, yx); diff != "" {
		t.Fatalf("conflict resolution depends on order (-xy +yx):\n%s", diff)
	}
}

func TestMergeDuplicatesWithinSet(t *testing.T) {
	_, ssdt1, ssdt2, _ := testTables()
	located := ssdt1.WithAddress(0x3000)

	tests := []struct {
		name string
		sets [][]acpi.RawTable
		want []acpi.RawTable
	}{
		{
			name: "one set",
			sets: [][]acpi.RawTable{{ssdt1, ssdt2, ssdt1}},
			want: []acpi.RawTable{ssdt1, ssdt1, ssdt2},
		},
		{
			name: "same copies in both sets",
			sets: [][]acpi.RawTable{{ssdt1, ssdt1}, {ssdt1, ssdt1}},
			want: []acpi.RawTable{ssdt1, ssdt1},
		},
		{
			name: "largest count wins",
			sets: [][]acpi.RawTable{{ssdt1}, {ssdt1, ssdt1, ssdt1}, {ssdt1, ssdt1}},
			want: []acpi.RawTable{ssdt1, ssdt1, ssdt1},
		},
		{
			name: "addressed copy replaces one",
			sets: [][]acpi.RawTable{{ssdt1, ssdt1}, {located}},
			want: []acpi.RawTable{located, ssdt1},
		},
		{
			name: "addressed copy repeated in its set",
			sets: [][]acpi.RawTable{{located, located}, {ssdt1}},
			want: []acpi.RawTable{located},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := acpi.Merge(tt.sets...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected merge (-want +got):\n%s", diff)
			}

			reversed := make([][]acpi.RawTable, 0, len(tt.sets))
			for i := len(tt.sets) - 1; i >= 0; i-- {
				reversed = append(reversed, tt.sets[i])
			}
			if diff := cmp.Diff(got, acpi.Merge(reversed...)); diff != "" {
				t.Fatalf("merge is not commutative (-forward +reversed):\n%s", diff)
			}

			if diff := cmp.Diff(got, acpi.Merge(got, got)); diff != "" {
				t.Fatalf("merge is not idempotent (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestEnumerate(t *testing.T) {
	dsdt, ssdt1, ssdt2, facp := testTables()

	tests := []struct {
		name string
		cs   []acpi.Collector
		want []acpi.RawTable
	}{
		{
			name: "no collectors",
		},
		{
			name: "permission denied",
			cs: []acpi.Collector{
				fakeCollector{name: "denied", err: errors.Wrap(fs.ErrPermission, "open")},
			},
		},
		{
			name: "one source fails",
			cs: []acpi.Collector{
				fakeCollector{name: "broken", err: errors.New("broken")},
				fakeCollector{name: "ok", ts: []acpi.RawTable{ssdt2, dsdt}},
			},
			want: []acpi.RawTable{dsdt, ssdt2},
		},
		{
			name: "overlapping sources",
			cs: []acpi.Collector{
				fakeCollector{name: "a", ts: []acpi.RawTable{facp, ssdt1}},
				fakeCollector{name: "b", ts: []acpi.RawTable{ssdt1, ssdt2, dsdt, facp}},
			},
			want: []acpi.RawTable{dsdt, facp, ssdt1, ssdt2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := acpi.Enumerate(context.Background(), tt.cs...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected tables (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDirCollector(t *testing.T) {
	dsdt, ssdt1, ssdt2, facp := testTables()
	dir := t.TempDir()

	in := []acpi.RawTable{dsdt, facp, ssdt1, ssdt2}
	for i, id := range acpi.Identify(in) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id.FileName()), in[i].Bytes, 0o644))
	}

	// Unrelated files and directories are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "SSDT_9.bin"), 0o755))

	got := acpi.Enumerate(context.Background(), acpi.DirCollector{Dir: dir})
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("unexpected tables (-want +got):\n%s", diff)
	}
}

func TestDirCollectorMissing(t *testing.T) {
	c := acpi.DirCollector{Dir: filepath.Join(t.TempDir(), "missing")}

	_, err := c.Collect(context.Background())
	require.True(t, errors.Is(err, fs.ErrNotExist), "unexpected error: %v", err)
}
