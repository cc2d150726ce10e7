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

// Package acpi decodes ACPI system description tables from raw firmware bytes.
//
// Tables are captured as RawTable values by a Collector and decoded on demand:
// DecodeHeader validates the common 36 byte header, DecodeXSDT and DecodeRSDT
// extract the root table pointer arrays and DecodeFADT decodes the Fixed ACPI
// Description Table.  Pointers are cross-referenced against the collected
// tables by physical address using an AddressIndex, never by reading memory.
package acpi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Well-known table signatures.
var (
	SigFADT = SignatureOf("FACP")
	SigDSDT = SignatureOf("DSDT")
	SigFACS = SignatureOf("FACS")
	SigXSDT = SignatureOf("XSDT")
	SigRSDT = SignatureOf("RSDT")
	SigSSDT = SignatureOf("SSDT")
)

// A Signature is the four byte tag identifying an ACPI table.
type Signature [4]byte

// SignatureOf returns the Signature for s.  Strings shorter than four bytes
// are padded with spaces, longer strings are truncated.
func SignatureOf(s string) Signature {
	sig := Signature{' ', ' ', ' ', ' '}
	copy(sig[:], s)
	return sig
}

// String returns the signature as text, replacing non-printable bytes with
// '.'.
func (s Signature) String() string {
	var b strings.Builder
	for _, c := range s {
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		b.WriteByte(c)
	}

	return b.String()
}

// A RawTable is the exact byte sequence of one ACPI table as provided by the
// firmware.  RawTables are immutable once captured.
type RawTable struct {
	Signature Signature

	// Address is the table's physical address, valid only if HasAddress
	// is set.
	Address    uint64
	HasAddress bool

	Bytes []byte
}

// NewRawTable captures b as a table.  The signature is taken from the first
// four bytes of b when present, and b is copied so the table does not alias
// the caller's buffer.
func NewRawTable(b []byte) RawTable {
	t := RawTable{Bytes: make([]byte, len(b))}
	copy(t.Bytes, b)
	copy(t.Signature[:], b)

	return t
}

// WithAddress returns a copy of t carrying the physical address addr.
func (t RawTable) WithAddress(addr uint64) RawTable {
	t.Address = addr
	t.HasAddress = true
	return t
}

// An ID identifies a table within one enumeration.  Signatures are not unique
// (a system usually has several SSDTs), so tables are identified by signature
// and physical address, or by signature and ordinal when the address is not
// known.
type ID struct {
	Signature  Signature
	Address    uint64
	HasAddress bool

	// Ordinal is the position of the table among tables with the same
	// signature and no known address.
	Ordinal int
}

// String implements fmt.Stringer.
func (id ID) String() string {
	if id.HasAddress {
		return fmt.Sprintf("%s@0x%016X", id.Signature, id.Address)
	}

	return fmt.Sprintf("%s#%d", id.Signature, id.Ordinal)
}

// Identify returns the identity of each table in ts, in order.
func Identify(ts []RawTable) []ID {
	ids := make([]ID, 0, len(ts))
	ordinals := make(map[Signature]int)

	for _, t := range ts {
		id := ID{Signature: t.Signature}
		if t.HasAddress {
			id.Address = t.Address
			id.HasAddress = true
		} else {
			id.Ordinal = ordinals[t.Signature]
			ordinals[t.Signature]++
		}

		ids = append(ids, id)
	}

	return ids
}

// Characters which are not allowed in file names on common file systems.
const invalidFileChars = `<>:"/\|?*`

// FileName returns the deterministic export file name for id, for example
// "SSDT_0x000000007FF4A000.bin" or "SSDT_1.bin".
func (id ID) FileName() string {
	var sig strings.Builder
	for _, c := range id.Signature {
		if c <= 0x20 || c > 0x7e || strings.IndexByte(invalidFileChars, c) >= 0 {
			c = '_'
		}
		sig.WriteByte(c)
	}

	if id.HasAddress {
		return fmt.Sprintf("%s_0x%016X.bin", sig.String(), id.Address)
	}

	return fmt.Sprintf("%s_%d.bin", sig.String(), id.Ordinal)
}

// ParseFileName recovers the identity encoded by ID.FileName.
func ParseFileName(name string) (ID, error) {
	base := strings.TrimSuffix(name, ".bin")
	if base == name || len(base) < 6 || base[4] != '_' {
		return ID{}, errors.Errorf("file name %q is not an exported table name", name)
	}

	id := ID{Signature: SignatureOf(base[:4])}

	suffix := base[5:]
	if strings.HasPrefix(suffix, "0x") {
		addr, err := strconv.ParseUint(suffix[2:], 16, 64)
		if err != nil {
			return ID{}, errors.Wrapf(err, "invalid address in file name %q", name)
		}

		id.Address = addr
		id.HasAddress = true
		return id, nil
	}

	ord, err := strconv.Atoi(suffix)
	if err != nil || ord < 0 {
		return ID{}, errors.Errorf("invalid ordinal in file name %q", name)
	}

	id.Ordinal = ord
	return id, nil
}
