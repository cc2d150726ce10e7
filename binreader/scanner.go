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

package binreader

// A Scanner reads a run of fixed-size fields from a Reader and remembers the
// first error, so a decoder can read a whole record and check once.  After an
// error every read returns the zero value.
type Scanner struct {
	r   *Reader
	err error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r *Reader) *Scanner {
	return &Scanner{r: r}
}

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error { return s.err }

// U8 reads a byte.
func (s *Scanner) U8() uint8 {
	if s.err != nil {
		return 0
	}

	v, err := s.r.ReadU8()
	s.err = err
	return v
}

// U16 reads a little-endian uint16.
func (s *Scanner) U16() uint16 {
	if s.err != nil {
		return 0
	}

	v, err := s.r.ReadU16()
	s.err = err
	return v
}

// U32 reads a little-endian uint32.
func (s *Scanner) U32() uint32 {
	if s.err != nil {
		return 0
	}

	v, err := s.r.ReadU32()
	s.err = err
	return v
}

// U64 reads a little-endian uint64.
func (s *Scanner) U64() uint64 {
	if s.err != nil {
		return 0
	}

	v, err := s.r.ReadU64()
	s.err = err
	return v
}

// Into fills dst.
func (s *Scanner) Into(dst []byte) {
	if s.err != nil {
		return
	}

	s.err = s.r.ReadInto(dst)
}

// Bytes reads n bytes into a new slice.
func (s *Scanner) Bytes(n int) []byte {
	if s.err != nil {
		return nil
	}

	b, err := s.r.ReadBytes(n)
	s.err = err
	return b
}
