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

package smbios

import (
	"bytes"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/yywing/go-firmdump/binreader"
)

// A Table is a captured SMBIOS structure table.
type Table struct {
	// EntryPoint describes the table.  It is nil when the source provides
	// only the structure data, such as a previously exported table.
	EntryPoint EntryPoint

	// Data is the structure table.
	Data []byte
}

// Version returns the SMBIOS version of the table, or the zero Version if it
// is not known.
func (t *Table) Version() Version {
	return VersionOf(t.EntryPoint)
}

// Decode decodes the structures of the table.
func (t *Table) Decode() ([]*Structure, error) {
	return NewDecoder(t.Data, t.Version()).Decode()
}

// ReadTable reads the SMBIOS structure table from an operating
// system-specific location.
//
// If no suitable location is found, an error is returned.
func ReadTable() (*Table, error) {
	return readTable()
}

// LoadTable is like ReadTable, but logs the failure and returns nil when the
// table is unavailable, most often because the process lacks the privilege
// to read it.
func LoadTable() *Table {
	t, err := readTable()
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			log.Warnf("insufficient privileges to read SMBIOS table: %v", err)
		} else {
			log.Warnf("SMBIOS table unavailable: %v", err)
		}
		return nil
	}

	log.Debugf("read SMBIOS %s table of %d bytes", t.Version(), len(t.Data))
	return t
}

// ReadTableFile reads a raw structure table, as written by the export
// package, from the file at path.  The version of such a table is unknown.
func ReadTableFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &Table{Data: b}, nil
}

// memoryTable searches the memory image rs for an entry point between the
// start and end addresses and reads the structure table it points to.
func memoryTable(rs io.ReadSeeker, start, end int) (*Table, error) {
	// Try to find the entry point.
	addr, err := findEntryPoint(rs, start, end)
	if err != nil {
		return nil, err
	}

	// Found it; seek to the location of the entry point.
	if _, err := rs.Seek(int64(addr), io.SeekStart); err != nil {
		return nil, err
	}

	// Read the entry point and determine where the SMBIOS table is.
	ep, err := ParseEntryPoint(rs)
	if err != nil {
		return nil, err
	}

	// Seek to the start of the SMBIOS table.
	tableAddr, tableSize := tableBounds(ep)
	if tableSize > maxTableSize {
		return nil, errors.Wrapf(errTableBounds, "table of %d bytes exceeds %d byte limit", tableSize, maxTableSize)
	}
	if tableAddr > math.MaxInt64 {
		return nil, errors.Wrapf(errTableBounds, "table address %#x", tableAddr)
	}
	if _, err := rs.Seek(int64(tableAddr), io.SeekStart); err != nil {
		return nil, err
	}

	// Make a copy of the memory so we don't hold a handle to system memory.
	data := make([]byte, tableSize)
	if _, err := io.ReadFull(rs, data); err != nil {
		return nil, errors.Wrapf(err, "read SMBIOS table of %d bytes at %#x", tableSize, tableAddr)
	}

	return &Table{EntryPoint: ep, Data: data}, nil
}

// maxTableSize bounds the structure table read from a memory image.  The
// 64-bit entry point only gives a maximum size, which may be far larger than
// the table itself.
const maxTableSize = 1 << 20

var errTableBounds = errors.New("SMBIOS structure table out of bounds")

// tableBounds returns the structure table address and size of ep without
// narrowing them to int.
func tableBounds(ep EntryPoint) (addr, size uint64) {
	switch ep := ep.(type) {
	case *EntryPoint32Bit:
		return uint64(ep.StructureTableAddress), uint64(ep.StructureTableLength)
	case *EntryPoint64Bit:
		return ep.StructureTableAddress, uint64(ep.StructureTableMaxSize)
	}

	a, n := ep.Table()
	return uint64(a), uint64(n)
}

// findEntryPoint attempts to locate the entry point structure in rs between
// the start and end addresses.  Entry points are aligned to a 16 byte
// paragraph.
func findEntryPoint(rs io.ReadSeeker, start, end int) (int, error) {
	// Begin searching at the start bound.
	if _, err := rs.Seek(int64(start), io.SeekStart); err != nil {
		return 0, err
	}

	const paragraph = 16
	b := make([]byte, paragraph)

	for addr := start; addr < end; addr += paragraph {
		if _, err := io.ReadFull(rs, b); err != nil {
			return 0, err
		}

		// Both the 32-bit and 64-bit entry point have a similar prefix.
		if bytes.HasPrefix(b, magicPrefix) {
			return addr, nil
		}
	}

	return 0, errors.Errorf("no SMBIOS entry point found in memory between %#x and %#x", start, end)
}

// rawSMBIOSDataHeaderSize is the size of the header Windows places before
// the structure table.
const rawSMBIOSDataHeaderSize = 8

var _ EntryPoint = &WindowsEntryPoint{}

// WindowsEntryPoint contains SMBIOS Table entry point data returned from
// GetSystemFirmwareTable.  As raw access to the underlying memory is not
// given, the full breadth of information is not available.
type WindowsEntryPoint struct {
	Size         uint32
	MajorVersion byte
	MinorVersion byte
	Revision     byte
}

// Table implements EntryPoint.  The returned address will always be 0, as it
// is not returned by GetSystemFirmwareTable.
func (e *WindowsEntryPoint) Table() (address, size int) {
	return 0, int(e.Size)
}

// Version implements EntryPoint.
func (e *WindowsEntryPoint) Version() (major, minor, revision int) {
	return int(e.MajorVersion), int(e.MinorVersion), int(e.Revision)
}

// ParseRawSMBIOSData parses the buffer GetSystemFirmwareTable fills for the
// 'RSMB' provider:
//
//	struct RawSMBIOSData {
//		BYTE  Used20CallingMethod;
//		BYTE  SMBIOSMajorVersion;
//		BYTE  SMBIOSMinorVersion;
//		BYTE  DMIRevision;
//		DWORD Length;
//		BYTE  SMBIOSTableData[];
//	}
//
// Bytes past Length are ignored.
func ParseRawSMBIOSData(b []byte) (*Table, error) {
	if l := len(b); l < rawSMBIOSDataHeaderSize {
		return nil, errors.Errorf("RawSMBIOSData too short: %d bytes", l)
	}

	// Windows only runs on little-endian architectures.
	r := binreader.New(b)
	s := binreader.NewScanner(r)
	ep := &WindowsEntryPoint{}
	_ = s.U8() // Used20CallingMethod
	ep.MajorVersion = s.U8()
	ep.MinorVersion = s.U8()
	ep.Revision = s.U8()
	ep.Size = s.U32()
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read RawSMBIOSData header")
	}

	if avail := r.Remaining(); uint64(ep.Size) > uint64(avail) {
		return nil, errors.Errorf("RawSMBIOSData declares %d bytes of table data, but only %d are present", ep.Size, avail)
	}

	data, err := r.ReadBytes(int(ep.Size))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read RawSMBIOSData table data")
	}

	return &Table{EntryPoint: ep, Data: data}, nil
}
