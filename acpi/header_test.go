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
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/yywing/go-firmdump/acpi"
	"github.com/yywing/go-firmdump/binreader"
)

// makeTable builds a table of the given total size with a valid header and
// checksum.  body is copied in after the header.
func makeTable(sig string, size int, revision uint8, body []byte) []byte {
	b := make([]byte, size)
	copy(b[0:4], sig)
	binary.LittleEndian.PutUint32(b[4:8], uint32(size))
	b[8] = revision
	copy(b[10:16], "BOCHS ")
	copy(b[16:24], "BXPC    ")
	binary.LittleEndian.PutUint32(b[24:28], 1)
	copy(b[28:32], "BXPC")
	binary.LittleEndian.PutUint32(b[32:36], 1)
	copy(b[acpi.HeaderLen:], body)

	fixChecksum(b)
	return b
}

func fixChecksum(b []byte) {
	b[9] = 0
	b[9] = uint8(256 - int(acpi.Sum(b)))
}

func TestDecodeHeader(t *testing.T) {
	facp := make([]byte, 132)
	copy(facp, []byte{'F', 'A', 'C', 'P', 0x84, 0x00, 0x00, 0x00})
	copy(facp[10:16], "ALASKA")
	copy(facp[16:24], "A M I\x00\x00\x00")
	for i := 36; i < len(facp); i++ {
		facp[i] = byte(i)
	}
	fixChecksum(facp)

	bad := append([]byte(nil), facp...)
	bad[100]++

	tests := []struct {
		name string
		b    []byte
		h    *acpi.Header
		err  error
	}{
		{
			name: "empty",
			err:  binreader.ErrOutOfBounds,
		},
		{
			name: "short header",
			b:    facp[:35],
			err:  binreader.ErrOutOfBounds,
		},
		{
			name: "length below header size",
			b: func() []byte {
				b := append([]byte(nil), facp...)
				binary.LittleEndian.PutUint32(b[4:8], 35)
				return b
			}(),
			err: acpi.ErrHeaderLengthInvalid,
		},
		{
			name: "length past buffer",
			b:    facp[:131],
			err:  acpi.ErrHeaderLengthInvalid,
		},
		{
			name: "OK, checksum valid",
			b:    facp,
			h: &acpi.Header{
				Signature:     acpi.SigFADT,
				Length:        132,
				Checksum:      facp[9],
				OEMID:         [6]byte{'A', 'L', 'A', 'S', 'K', 'A'},
				OEMTableID:    [8]byte{'A', ' ', 'M', ' ', 'I'},
				ChecksumValid: true,
			},
		},
		{
			name: "OK, checksum mismatch is only flagged",
			b:    bad,
			h: &acpi.Header{
				Signature:  acpi.SigFADT,
				Length:     132,
				Checksum:   facp[9],
				OEMID:      [6]byte{'A', 'L', 'A', 'S', 'K', 'A'},
				OEMTableID: [8]byte{'A', ' ', 'M', ' ', 'I'},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := acpi.DecodeHeader(acpi.NewRawTable(tt.b))
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected error %v, got: %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.h, h); diff != "" {
				t.Fatalf("unexpected header (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeHeaderLengthProperty(t *testing.T) {
	// For every table of at least HeaderLen bytes, decoding succeeds exactly
	// when the length field lies in [HeaderLen, len(bytes)], and the
	// checksum flag reflects the sum over the declared length.
	const size = 64
	for length := 0; length <= 80; length++ {
		b := make([]byte, size)
		copy(b, "SSDT")
		binary.LittleEndian.PutUint32(b[4:8], uint32(length))
		for i := 10; i < size; i++ {
			b[i] = byte(i * 7)
		}

		h, err := acpi.DecodeHeader(acpi.NewRawTable(b))

		valid := length >= acpi.HeaderLen && length <= size
		if valid != (err == nil) {
			t.Fatalf("length %d: valid=%v, err=%v", length, valid, err)
		}
		if !valid {
			continue
		}

		want := acpi.Sum(b[:length]) == 0
		if h.ChecksumValid != want {
			t.Fatalf("length %d: checksum flag %v, want %v", length, h.ChecksumValid, want)
		}
	}
}

func TestDecodeHeaderIdempotent(t *testing.T) {
	tbl := acpi.NewRawTable(makeTable("APIC", 64, 4, []byte{0xde, 0xad}))

	h1, err := acpi.DecodeHeader(tbl)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	h2, err := acpi.DecodeHeader(tbl)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if diff := cmp.Diff(h1, h2); diff != "" {
		t.Fatalf("decoding twice differs (-first +second):\n%s", diff)
	}
	if got := h1.OEM(); got != "BOCHS" {
		t.Fatalf("unexpected OEM ID: %q", got)
	}
	if got := h1.OEMTable(); got != "BXPC" {
		t.Fatalf("unexpected OEM table ID: %q", got)
	}
	if got := h1.Creator(); got != "BXPC" {
		t.Fatalf("unexpected creator ID: %q", got)
	}
}
