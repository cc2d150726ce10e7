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

package acpi

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/yywing/go-firmdump/binreader"
)

// HeaderLen is the length of the common system description table header.
const HeaderLen = 36

var (
	// ErrHeaderLengthInvalid indicates a header length field outside of
	// [HeaderLen, len(table bytes)].
	ErrHeaderLengthInvalid = errors.New("header length invalid")

	// ErrMalformedEntryArray indicates a root table whose entry array is
	// not a whole number of pointers.
	ErrMalformedEntryArray = errors.New("malformed entry array")

	// ErrUnexpectedSignature indicates a table passed to a decoder for a
	// different table type.
	ErrUnexpectedSignature = errors.New("unexpected table signature")

	// ErrTableTooShort indicates a table too short for its fixed fields.
	ErrTableTooShort = errors.New("table too short")
)

// A Header is the common header of every ACPI system description table.
type Header struct {
	Signature       Signature
	Length          uint32
	Revision        uint8
	Checksum        uint8
	OEMID           [6]byte
	OEMTableID      [8]byte
	OEMRevision     uint32
	CreatorID       [4]byte
	CreatorRevision uint32

	// ChecksumValid reports whether the first Length bytes of the table
	// sum to zero.  Some firmware ships tables with bad checksums, so a
	// mismatch is recorded here rather than failing the decode.
	ChecksumValid bool
}

// OEM returns the OEM ID with padding removed.
func (h *Header) OEM() string { return trim(h.OEMID[:]) }

// OEMTable returns the OEM table ID with padding removed.
func (h *Header) OEMTable() string { return trim(h.OEMTableID[:]) }

// Creator returns the creator ID with padding removed.
func (h *Header) Creator() string { return trim(h.CreatorID[:]) }

func trim(b []byte) string {
	return string(bytes.TrimRight(b, "\x00 "))
}

// DecodeHeader decodes and validates the header of t.
//
// A length field outside of [HeaderLen, len(t.Bytes)] yields
// ErrHeaderLengthInvalid; the table's bytes are still usable for a raw dump.
func DecodeHeader(t RawTable) (*Header, error) {
	if len(t.Bytes) < HeaderLen {
		return nil, errors.Wrapf(binreader.ErrOutOfBounds, "%d bytes is too short for a table header", len(t.Bytes))
	}

	s := binreader.NewScanner(binreader.New(t.Bytes))

	var h Header
	s.Into(h.Signature[:])
	h.Length = s.U32()
	h.Revision = s.U8()
	h.Checksum = s.U8()
	s.Into(h.OEMID[:])
	s.Into(h.OEMTableID[:])
	h.OEMRevision = s.U32()
	s.Into(h.CreatorID[:])
	h.CreatorRevision = s.U32()
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "decode table header")
	}

	if h.Length < HeaderLen || uint64(h.Length) > uint64(len(t.Bytes)) {
		return nil, errors.Wrapf(ErrHeaderLengthInvalid, "%s: length %d, have %d bytes", h.Signature, h.Length, len(t.Bytes))
	}

	h.ChecksumValid = Sum(t.Bytes[:h.Length]) == 0

	return &h, nil
}

// Sum returns the 8-bit sum of b.  A valid ACPI table sums to zero.
func Sum(b []byte) uint8 {
	var sum uint8
	for _, c := range b {
		sum += c
	}

	return sum
}
