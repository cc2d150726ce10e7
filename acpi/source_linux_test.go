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

//go:build linux

package acpi

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSysfsCollectorLocate(t *testing.T) {
	dir := t.TempDir()

	facp := make([]byte, 148)
	copy(facp, "FACP")
	binary.LittleEndian.PutUint32(facp[4:8], uint32(len(facp)))
	facp[8] = 3
	binary.LittleEndian.PutUint32(facp[36:40], 0x7ffe0000)   // FIRMWARE_CTRL
	binary.LittleEndian.PutUint32(facp[40:44], 0x7ffd0000)   // DSDT
	binary.LittleEndian.PutUint64(facp[140:148], 0x7ffd0000) // X_DSDT
	facp[9] = -Sum(facp)

	dsdt := make([]byte, HeaderLen)
	copy(dsdt, "DSDT")
	binary.LittleEndian.PutUint32(dsdt[4:8], HeaderLen)
	dsdt[9] = -Sum(dsdt)

	files := map[string][]byte{
		"FACP":  facp,
		"DSDT":  dsdt,
		"FACS":  []byte("FACS\x40\x00\x00\x00"),
		"SSDT1": []byte("SSDT"),
	}
	for name, b := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o444))
	}

	ts := Locate(Enumerate(context.Background(), sysfsCollector{dir: dir}))

	idx := NewAddressIndex(ts)
	require.Equal(t, 2, idx.Len())

	id, ok := idx.Lookup(0x7ffd0000)
	require.True(t, ok)
	require.Equal(t, SigDSDT, id.Signature)

	id, ok = idx.Lookup(0x7ffe0000)
	require.True(t, ok)
	require.Equal(t, SigFACS, id.Signature)
}
