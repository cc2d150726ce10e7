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
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/yywing/go-firmdump/binreader"
)

// Anchor strings used to detect entry points.
var (
	magicPrefix = []byte("_SM")
	magic32     = []byte("_SM_")
	magic64     = []byte("_SM3_")
	magicDMI    = []byte("_DMI_")
)

// Entry point lengths as of SMBIOS 3.1.1.
const (
	expLen32 = 31
	expLen64 = 24
)

// An EntryPoint is an SMBIOS entry point.  EntryPoints contain various
// properties about SMBIOS, including its major, minor, and revision version
// numbers and the location of the structure table.
//
// Use a type assertion to access detailed EntryPoint information.
type EntryPoint interface {
	Version() (major, minor, revision int)
	Table() (address, size int)
}

// A Version is an SMBIOS specification version.  The zero Version means the
// version is not known.
type Version struct {
	Major, Minor, Revision int
}

// VersionOf returns the version reported by ep, or the zero Version if ep is
// nil.
func VersionOf(ep EntryPoint) Version {
	if ep == nil {
		return Version{}
	}

	major, minor, rev := ep.Version()
	return Version{Major: major, Minor: minor, Revision: rev}
}

// IsZero reports whether v is unknown.
func (v Version) IsZero() bool { return v == Version{} }

// AtLeast reports whether v is major.minor or later.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}

	return v.Minor >= minor
}

// String implements fmt.Stringer.
func (v Version) String() string {
	if v.IsZero() {
		return "unknown"
	}

	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// ParseEntryPoint parses an EntryPoint from the input stream.
func ParseEntryPoint(r io.Reader) (EntryPoint, error) {
	// Prevent unbounded reads since this structure should be small.
	b, err := io.ReadAll(io.LimitReader(r, 64))
	if err != nil {
		return nil, err
	}

	if l := len(b); l < 4 {
		return nil, errors.Errorf("too few bytes for SMBIOS entry point magic: %d", l)
	}

	switch {
	case bytes.HasPrefix(b, magic32):
		return parse32(b)
	case bytes.HasPrefix(b, magic64):
		return parse64(b)
	}

	return nil, errors.Errorf("unrecognized SMBIOS entry point magic: %v", b[0:4])
}

var _ EntryPoint = &EntryPoint32Bit{}

// EntryPoint32Bit is the SMBIOS 32-bit Entry Point structure, used starting
// in SMBIOS 2.1.
type EntryPoint32Bit struct {
	Anchor                string
	Checksum              uint8
	Length                uint8
	Major                 uint8
	Minor                 uint8
	MaxStructureSize      uint16
	EntryPointRevision    uint8
	FormattedArea         [5]byte
	IntermediateAnchor    string
	IntermediateChecksum  uint8
	StructureTableLength  uint16
	StructureTableAddress uint32
	NumberStructures      uint16
	BCDRevision           uint8
}

// Version implements EntryPoint.
func (e *EntryPoint32Bit) Version() (major, minor, revision int) {
	return int(e.Major), int(e.Minor), 0
}

// Table implements EntryPoint.
func (e *EntryPoint32Bit) Table() (address, size int) {
	return int(e.StructureTableAddress), int(e.StructureTableLength)
}

// parse32 parses an EntryPoint32Bit from b.  Bytes past the entry point's
// declared length are ignored.
func parse32(b []byte) (*EntryPoint32Bit, error) {
	b, err := entryPointBytes(b, 5, expLen32, "32-bit")
	if err != nil {
		return nil, err
	}

	s := binreader.NewScanner(binreader.New(b))
	ep := &EntryPoint32Bit{
		Anchor:             string(s.Bytes(4)),
		Checksum:           s.U8(),
		Length:             s.U8(),
		Major:              s.U8(),
		Minor:              s.U8(),
		MaxStructureSize:   s.U16(),
		EntryPointRevision: s.U8(),
	}
	s.Into(ep.FormattedArea[:])
	ep.IntermediateAnchor = string(s.Bytes(5))
	ep.IntermediateChecksum = s.U8()
	ep.StructureTableLength = s.U16()
	ep.StructureTableAddress = s.U32()
	ep.NumberStructures = s.U16()
	ep.BCDRevision = s.U8()

	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "parse SMBIOS 32-bit entry point")
	}

	// Look for intermediate anchor with DMI magic.
	if ep.IntermediateAnchor != string(magicDMI) {
		return nil, errors.Errorf("incorrect DMI magic in SMBIOS 32-bit entry point: %q", ep.IntermediateAnchor)
	}

	// Since the outer checksum covers the intermediate entry point, no
	// real need to compute the intermediate checksum.
	if err := checksum(b); err != nil {
		return nil, err
	}

	return ep, nil
}

var _ EntryPoint = &EntryPoint64Bit{}

// EntryPoint64Bit is the SMBIOS 64-bit Entry Point structure, used starting
// in SMBIOS 3.0.
type EntryPoint64Bit struct {
	Anchor                string
	Checksum              uint8
	Length                uint8
	Major                 uint8
	Minor                 uint8
	Revision              uint8
	EntryPointRevision    uint8
	Reserved              uint8
	StructureTableMaxSize uint32
	StructureTableAddress uint64
}

// Version implements EntryPoint.
func (e *EntryPoint64Bit) Version() (major, minor, revision int) {
	return int(e.Major), int(e.Minor), int(e.Revision)
}

// Table implements EntryPoint.
func (e *EntryPoint64Bit) Table() (address, size int) {
	return int(e.StructureTableAddress), int(e.StructureTableMaxSize)
}

// parse64 parses an EntryPoint64Bit from b.  Bytes past the entry point's
// declared length are ignored.
func parse64(b []byte) (*EntryPoint64Bit, error) {
	b, err := entryPointBytes(b, 6, expLen64, "64-bit")
	if err != nil {
		return nil, err
	}

	if err := checksum(b); err != nil {
		return nil, err
	}

	s := binreader.NewScanner(binreader.New(b))
	ep := &EntryPoint64Bit{
		Anchor:                string(s.Bytes(5)),
		Checksum:              s.U8(),
		Length:                s.U8(),
		Major:                 s.U8(),
		Minor:                 s.U8(),
		Revision:              s.U8(),
		EntryPointRevision:    s.U8(),
		Reserved:              s.U8(),
		StructureTableMaxSize: s.U32(),
		StructureTableAddress: s.U64(),
	}

	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "parse SMBIOS 64-bit entry point")
	}

	return ep, nil
}

// entryPointBytes validates the length byte at lenIndex and returns the
// bytes the entry point declares.
func entryPointBytes(b []byte, lenIndex, minLen int, kind string) ([]byte, error) {
	l := len(b)
	if l < minLen {
		return nil, errors.Errorf("expected SMBIOS %s entry point length of at least %d, but got: %d", kind, minLen, l)
	}

	r := binreader.New(b)
	if err := r.Seek(lenIndex); err != nil {
		return nil, errors.Wrapf(err, "seek to SMBIOS %s entry point length", kind)
	}
	v, err := r.ReadU8()
	if err != nil {
		return nil, errors.Wrapf(err, "read SMBIOS %s entry point length", kind)
	}

	length := int(v)
	if length < minLen || length > l {
		return nil, errors.Errorf("invalid SMBIOS %s entry point length %d for %d bytes", kind, length, l)
	}

	return b[:length], nil
}

// checksum verifies that the bytes of an entry point, including its checksum
// byte, sum to zero.
func checksum(b []byte) error {
	var chk uint8
	for _, c := range b {
		chk += c
	}

	if chk != 0 {
		return errors.Errorf("invalid entry point checksum: sum is %#02x", chk)
	}

	return nil
}
