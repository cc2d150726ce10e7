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
	"github.com/pkg/errors"
	"github.com/yywing/go-firmdump/binreader"
)

// An Entry is one pointer of a root system description table.
type Entry struct {
	Address uint64

	// Signature is the signature of the collected table found at Address.
	// It is only valid when Resolved is set.
	Signature Signature
	Resolved  bool
}

// DecodeXSDT decodes the 64-bit pointer array of an Extended System
// Description Table.
//
// If the entry array is not a multiple of 8 bytes, the complete entries are
// returned together with ErrMalformedEntryArray.
func DecodeXSDT(t RawTable) ([]Entry, error) {
	return decodeRoot(t, SigXSDT, 8)
}

// DecodeRSDT decodes the 32-bit pointer array of a Root System Description
// Table, used by ACPI 1.0 firmware in place of the XSDT.
func DecodeRSDT(t RawTable) ([]Entry, error) {
	return decodeRoot(t, SigRSDT, 4)
}

func decodeRoot(t RawTable, sig Signature, width int) ([]Entry, error) {
	h, err := DecodeHeader(t)
	if err != nil {
		return nil, err
	}
	if h.Signature != sig {
		return nil, errors.Wrapf(ErrUnexpectedSignature, "expected %s, got %s", sig, h.Signature)
	}

	// Only the declared length belongs to the table.
	r := binreader.New(t.Bytes[:h.Length])
	if err := r.Seek(HeaderLen); err != nil {
		return nil, err
	}

	n := r.Remaining() / width
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		var addr uint64
		if width == 8 {
			addr, err = r.ReadU64()
		} else {
			var a32 uint32
			a32, err = r.ReadU32()
			addr = uint64(a32)
		}
		if err != nil {
			return entries, err
		}

		entries = append(entries, Entry{Address: addr})
	}

	if rem := r.Remaining(); rem != 0 {
		return entries, errors.Wrapf(ErrMalformedEntryArray, "%s: %d trailing bytes after %d entries", sig, rem, n)
	}

	return entries, nil
}
