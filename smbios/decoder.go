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
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/yywing/go-firmdump/binreader"
)

// headerLen is the length of the Header structure.
const headerLen = 4

// ErrStructureLengthInvalid is returned when a structure header declares a
// length shorter than the header itself.
var ErrStructureLengthInvalid = errors.New("smbios: structure length shorter than header")

// A Decoder decodes Structures from an SMBIOS structure table.
//
// Decoding stops at the end of the table or after an End-of-table structure.
// A malformed structure stops decoding, since the structures which follow it
// cannot be located reliably, but structures decoded before it stay valid.
type Decoder struct {
	b       []byte
	r       *binreader.Reader
	version Version

	done bool
	err  error
}

// NewDecoder creates a Decoder which decodes Structures from the table b.  v
// is the SMBIOS version of the table, used where field layouts differ between
// versions; pass the zero Version if it is not known.
//
// Decoded Structures do not reference b.
func NewDecoder(b []byte, v Version) *Decoder {
	return &Decoder{
		b:       b,
		r:       binreader.New(b),
		version: v,
	}
}

// Next decodes the next Structure.  It returns io.EOF when the table is
// exhausted; an End-of-table structure is returned before io.EOF.  Once Next
// fails, every later call returns the same error.
func (d *Decoder) Next() (*Structure, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.done || d.r.Remaining() == 0 {
		return nil, io.EOF
	}

	s, err := d.next()
	if err != nil {
		d.err = err
		return nil, err
	}

	// End-of-table structure indicates end of stream.
	if s.Header.Type == TypeEndOfTable {
		d.done = true
	}

	return s, nil
}

// Decode decodes all remaining Structures.  If a structure is malformed, the
// Structures decoded before it are returned along with the error.
func (d *Decoder) Decode() ([]*Structure, error) {
	var ss []*Structure

	for {
		s, err := d.Next()
		switch {
		case err == io.EOF:
			return ss, nil
		case err != nil:
			return ss, err
		}

		ss = append(ss, s)
	}
}

// A Result is one element of the sequence returned by DecodeStructures:
// either a decoded Structure or the error which ended decoding.
type Result struct {
	Structure *Structure
	Err       error
}

// DecodeStructures decodes the table b into a sequence of results.  Only the
// last result can hold an error.
func DecodeStructures(b []byte, v Version) []Result {
	d := NewDecoder(b, v)

	var rs []Result
	for {
		s, err := d.Next()
		if err == io.EOF {
			return rs
		}

		rs = append(rs, Result{Structure: s, Err: err})
		if err != nil {
			return rs
		}
	}
}

// next decodes the Structure at the cursor.
func (d *Decoder) next() (*Structure, error) {
	start := d.r.Offset()

	h, err := d.parseHeader()
	if err != nil {
		return nil, errors.Wrapf(err, "structure header at offset %#x", start)
	}

	// Length of formatted section is length specified by header, minus
	// the length of the header itself.
	fb, err := d.parseFormatted(int(h.Length) - headerLen)
	if err != nil {
		return nil, errors.Wrapf(err, "structure type %d, handle %#04x at offset %#x",
			h.Type, h.Handle, start)
	}

	ss, err := d.parseStrings()
	if err != nil {
		return nil, errors.Wrapf(err, "strings of structure type %d, handle %#04x at offset %#x",
			h.Type, h.Handle, start)
	}

	s := &Structure{
		Header:    *h,
		Formatted: fb,
		Strings:   ss,
		Raw:       clone(d.b[start:d.r.Offset()]),
	}
	s.Info = decodeInfo(s, d.version)

	return s, nil
}

// parseHeader parses a Structure's Header.
func (d *Decoder) parseHeader() (*Header, error) {
	s := binreader.NewScanner(d.r)
	h := &Header{
		Type:   s.U8(),
		Length: s.U8(),
		Handle: s.U16(),
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	if h.Length < headerLen {
		return nil, errors.Wrapf(ErrStructureLengthInvalid, "type %d, handle %#04x: length %d", h.Type, h.Handle, h.Length)
	}

	return h, nil
}

// parseFormatted parses a Structure's formatted data.
func (d *Decoder) parseFormatted(l int) ([]byte, error) {
	if l == 0 {
		// No formatted data.
		return nil, nil
	}

	return d.r.ReadBytes(l)
}

// parseStrings parses a Structure's string-set, if present, and the
// terminator which follows it.
func (d *Decoder) parseStrings() ([]string, error) {
	term, err := d.r.Peek(2)
	if err != nil {
		return nil, err
	}

	// If no string-set present, discard delimiter and end parsing.
	if term[0] == 0x00 && term[1] == 0x00 {
		return nil, d.r.Skip(2)
	}

	var ss []string
	for {
		// Strings are null-terminated, and so is the set.
		if d.r.IndexByte(0x00) < 0 {
			return nil, errors.Wrapf(binreader.ErrOutOfBounds, "unterminated string at offset %#x", d.r.Offset())
		}

		s, err := d.r.ReadCString()
		if err != nil {
			return nil, err
		}

		// An empty string marks the end of the string-set.
		if s == "" {
			return ss, nil
		}

		ss = append(ss, strings.ToValidUTF8(s, "\uFFFD"))
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
