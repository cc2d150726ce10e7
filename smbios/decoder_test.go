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

package smbios_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/yywing/go-firmdump/binreader"
	"github.com/yywing/go-firmdump/smbios"
)

// ignoreDecoded compares structures by their framing only.
var ignoreDecoded = cmpopts.IgnoreFields(smbios.Structure{}, "Info", "Raw")

func TestDecoder(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		ss   []*smbios.Structure
		err  error
	}{
		{
			name: "short header",
			b:    []byte{0x00},
			err:  binreader.ErrOutOfBounds,
		},
		{
			name: "length too short",
			b:    []byte{0x00, 0x00, 0x00, 0x00},
			err:  smbios.ErrStructureLengthInvalid,
		},
		{
			name: "length too long",
			b:    []byte{0x00, 0xff, 0x00, 0x00},
			err:  binreader.ErrOutOfBounds,
		},
		{
			name: "string not terminated",
			b: []byte{
				0x01, 0x04, 0x01, 0x00,
				'a', 'b', 'c', 'd',
			},
			err: binreader.ErrOutOfBounds,
		},
		{
			name: "string set not terminated",
			b: []byte{
				0x01, 0x04, 0x01, 0x00,
				'a', 'b', 'c', 'd', 0x00,
			},
			err: binreader.ErrOutOfBounds,
		},
		{
			name: "bad second message",
			b: []byte{
				0x01, 0x0c, 0x02, 0x00,
				0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef,
				'd', 'e', 'a', 'd', 'b', 'e', 'e', 'f', 0x00,
				0x00,

				0xff,
			},
			ss: []*smbios.Structure{{
				Header: smbios.Header{
					Type:   1,
					Length: 12,
					Handle: 2,
				},
				Formatted: []byte{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef},
				Strings:   []string{"deadbeef"},
			}},
			err: binreader.ErrOutOfBounds,
		},
		{
			name: "OK, empty",
		},
		{
			name: "OK, no end of table",
			b: []byte{
				0x01, 0x04, 0x01, 0x00,
				0x00,
				0x00,
			},
			ss: []*smbios.Structure{{
				Header: smbios.Header{
					Type:   1,
					Length: 4,
					Handle: 1,
				},
			}},
		},
		{
			name: "OK, one, no format, no strings",
			b: []byte{
				127, 0x04, 0x01, 0x00,
				0x00,
				0x00,
			},
			ss: []*smbios.Structure{{
				Header: smbios.Header{
					Type:   127,
					Length: 4,
					Handle: 1,
				},
			}},
		},
		{
			name: "OK, one, format, no strings",
			b: []byte{
				127, 0x06, 0x01, 0x00,
				0x01, 0x02,
				0x00,
				0x00,
			},
			ss: []*smbios.Structure{{
				Header: smbios.Header{
					Type:   127,
					Length: 6,
					Handle: 1,
				},
				Formatted: []byte{0x01, 0x02},
			}},
		},
		{
			name: "OK, one, format, strings",
			b: []byte{
				127, 0x06, 0x01, 0x00,
				0x01, 0x02,
				'a', 'b', 'c', 'd', 0x00,
				'1', '2', '3', '4', 0x00,
				0x00,
			},
			ss: []*smbios.Structure{{
				Header: smbios.Header{
					Type:   127,
					Length: 6,
					Handle: 1,
				},
				Formatted: []byte{0x01, 0x02},
				Strings:   []string{"abcd", "1234"},
			}},
		},
		{
			name: "OK, invalid UTF-8 replaced",
			b: []byte{
				127, 0x04, 0x01, 0x00,
				'a', 0xff, 'b', 0x00,
				0x00,
			},
			ss: []*smbios.Structure{{
				Header: smbios.Header{
					Type:   127,
					Length: 4,
					Handle: 1,
				},
				Strings: []string{"a\uFFFDb"},
			}},
		},
		{
			name: "OK, bytes after end of table ignored",
			b: []byte{
				127, 0x04, 0x01, 0x00,
				0x00,
				0x00,

				0xde, 0xad,
			},
			ss: []*smbios.Structure{{
				Header: smbios.Header{
					Type:   127,
					Length: 4,
					Handle: 1,
				},
			}},
		},
		{
			name: "OK, multiple",
			b:    multiple,
			ss: []*smbios.Structure{
				{
					Header: smbios.Header{
						Type:   0,
						Length: 5,
						Handle: 1,
					},
					Formatted: []byte{0xff},
				},
				{
					Header: smbios.Header{
						Type:   1,
						Length: 12,
						Handle: 2,
					},
					Formatted: []byte{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef},
					Strings:   []string{"deadbeef"},
				},
				{
					Header: smbios.Header{
						Type:   127,
						Length: 6,
						Handle: 3,
					},
					Formatted: []byte{0x01, 0x02},
					Strings:   []string{"abcd", "1234"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := smbios.NewDecoder(tt.b, smbios.Version{})
			ss, err := d.Decode()

			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v, got: %v", tt.err, err)
			}

			if diff := cmp.Diff(tt.ss, ss, ignoreDecoded); diff != "" {
				t.Fatalf("unexpected structures (-want +got):\n%s", diff)
			}
		})
	}
}

// multiple is a table of three structures.
var multiple = []byte{
	0x00, 0x05, 0x01, 0x00,
	0xff,
	0x00,
	0x00,

	0x01, 0x0c, 0x02, 0x00,
	0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef,
	'd', 'e', 'a', 'd', 'b', 'e', 'e', 'f', 0x00,
	0x00,

	127, 0x06, 0x03, 0x00,
	0x01, 0x02,
	'a', 'b', 'c', 'd', 0x00,
	'1', '2', '3', '4', 0x00,
	0x00,
}

func TestDecoderNext(t *testing.T) {
	d := smbios.NewDecoder(multiple, smbios.Version{})

	var handles []uint16
	for {
		s, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to decode structure: %v", err)
		}

		handles = append(handles, s.Header.Handle)
	}

	if diff := cmp.Diff([]uint16{1, 2, 3}, handles); diff != "" {
		t.Fatalf("unexpected handles (-want +got):\n%s", diff)
	}

	// The decoder stays at the end of the table.
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after end of table, got: %v", err)
	}
}

func TestDecoderStickyError(t *testing.T) {
	b := append(append([]byte(nil), multiple[:7]...), 0x01, 0x02)
	d := smbios.NewDecoder(b, smbios.Version{})

	if _, err := d.Next(); err != nil {
		t.Fatalf("failed to decode first structure: %v", err)
	}

	_, err1 := d.Next()
	if !errors.Is(err1, binreader.ErrOutOfBounds) {
		t.Fatalf("expected out of bounds error, got: %v", err1)
	}

	if _, err2 := d.Next(); err2 != err1 {
		t.Fatalf("expected the same error again, got: %v", err2)
	}
}

func TestDecoderRaw(t *testing.T) {
	ss, err := smbios.NewDecoder(multiple, smbios.Version{}).Decode()
	if err != nil {
		t.Fatalf("failed to decode structures: %v", err)
	}

	// Raw structures reassemble the table.
	var got []byte
	for _, s := range ss {
		got = append(got, s.Raw...)
	}

	if diff := cmp.Diff(multiple, got); diff != "" {
		t.Fatalf("unexpected raw bytes (-want +got):\n%s", diff)
	}

	// Decoded structures do not alias the table.
	b := append([]byte(nil), multiple...)
	ss, err = smbios.NewDecoder(b, smbios.Version{}).Decode()
	if err != nil {
		t.Fatalf("failed to decode structures: %v", err)
	}
	for i := range b {
		b[i] = 0
	}

	if diff := cmp.Diff([]byte{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef}, ss[1].Formatted); diff != "" {
		t.Fatalf("formatted bytes changed with the table (-want +got):\n%s", diff)
	}
}

func TestDecodeStructures(t *testing.T) {
	b := append(append([]byte(nil), multiple[:7]...), 0x01, 0x00, 0x02, 0x00)
	rs := smbios.DecodeStructures(b, smbios.Version{})

	if len(rs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(rs))
	}
	if rs[0].Err != nil || rs[0].Structure.Header.Handle != 1 {
		t.Fatalf("unexpected first result: %+v", rs[0])
	}
	if !errors.Is(rs[1].Err, smbios.ErrStructureLengthInvalid) || rs[1].Structure != nil {
		t.Fatalf("unexpected second result: %+v", rs[1])
	}

	if rs := smbios.DecodeStructures(nil, smbios.Version{}); len(rs) != 0 {
		t.Fatalf("expected no results for an empty table, got %d", len(rs))
	}
}

func TestDecoderStructureCount(t *testing.T) {
	// Every structure contributes exactly one double NUL terminator, and
	// no formatted part below holds a zero byte.
	var (
		b     []byte
		nstr  []int
		total int
	)
	for i := 0; i < 50; i++ {
		n := i % 4
		b = append(b, 0x80+uint8(i%8), 0x06, uint8(i), 0x00, 0x11, 0x22)

		if n == 0 {
			b = append(b, 0x00, 0x00)
		} else {
			for j := 0; j < n; j++ {
				b = append(b, bytes.Repeat([]byte{'a' + byte(j)}, j+1)...)
				b = append(b, 0x00)
			}
			b = append(b, 0x00)
		}

		nstr = append(nstr, n)
		total++
	}

	ss, err := smbios.NewDecoder(b, smbios.Version{}).Decode()
	if err != nil {
		t.Fatalf("failed to decode structures: %v", err)
	}

	if len(ss) != total {
		t.Fatalf("expected %d structures, got %d", total, len(ss))
	}
	for i, s := range ss {
		if len(s.Strings) != nstr[i] {
			t.Fatalf("structure %d: expected %d strings, got %d", i, nstr[i], len(s.Strings))
		}
	}
}

func TestDecoderIdempotent(t *testing.T) {
	first, err := smbios.NewDecoder(multiple, smbios.Version{Major: 3}).Decode()
	if err != nil {
		t.Fatalf("failed to decode structures: %v", err)
	}

	second, err := smbios.NewDecoder(multiple, smbios.Version{Major: 3}).Decode()
	if err != nil {
		t.Fatalf("failed to decode structures: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("decoding is not repeatable (-first +second):\n%s", diff)
	}
}
