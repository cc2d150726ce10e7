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

// Package binreader provides a bounds-checked little-endian cursor over an
// immutable byte buffer.
//
// Every firmware decoder in this module routes its reads through a Reader, so
// a malformed length field can never cause a read past the end of the data:
// the read fails with ErrOutOfBounds instead.
package binreader

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

var (
	// ErrOutOfBounds is returned when a read would extend past the end of
	// the buffer.
	ErrOutOfBounds = errors.New("read out of bounds")

	// ErrInvalidOffset is returned when seeking beyond the end of the buffer.
	ErrInvalidOffset = errors.New("invalid offset")
)

// A Reader reads little-endian values from a byte buffer.  The zero value is
// a Reader over an empty buffer.
type Reader struct {
	b   []byte
	off int
}

// New creates a Reader positioned at the start of b.  The Reader never
// modifies b.
func New(b []byte) *Reader {
	return &Reader{b: b}
}

// Len returns the length of the underlying buffer.
func (r *Reader) Len() int { return len(r.b) }

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.b) - r.off }

// Seek moves the cursor to the absolute offset off.  Seeking to Len() is
// allowed and leaves nothing to read.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.b) {
		return errors.Wrapf(ErrInvalidOffset, "seek to %d in %d byte buffer", off, len(r.b))
	}

	r.off = off
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if _, err := r.span(n); err != nil {
		return err
	}

	r.off += n
	return nil
}

// span returns the next n bytes without advancing the cursor.  The returned
// slice aliases the buffer and must not escape the package.
func (r *Reader) span(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, errors.Wrapf(ErrOutOfBounds, "read of %d bytes at offset %d in %d byte buffer", n, r.off, len(r.b))
	}

	return r.b[r.off : r.off+n], nil
}

// next returns the next n bytes and advances the cursor past them.
func (r *Reader) next(n int) ([]byte, error) {
	b, err := r.span(n)
	if err != nil {
		return nil, err
	}

	r.off += n
	return b, nil
}

// Peek returns a copy of the next n bytes without advancing the cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	b, err := r.span(n)
	if err != nil {
		return nil, err
	}

	return clone(b), nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

// ReadBytes reads n bytes.  The returned slice is a copy owned by the caller.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.next(n)
	if err != nil {
		return nil, err
	}

	return clone(b), nil
}

// ReadInto fills dst from the buffer.  It is a convenience for fixed-size
// arrays such as signatures and OEM identifiers.
func (r *Reader) ReadInto(dst []byte) error {
	b, err := r.next(len(dst))
	if err != nil {
		return err
	}

	copy(dst, b)
	return nil
}

// ReadFixedString reads an n byte field and trims trailing NUL and space
// padding.
func (r *Reader) ReadFixedString(n int) (string, error) {
	b, err := r.next(n)
	if err != nil {
		return "", err
	}

	return string(bytes.TrimRight(b, "\x00 ")), nil
}

// ReadCString reads bytes up to and including the next NUL and returns them
// without the terminator.  If no NUL is present, the rest of the buffer is
// returned and the cursor is left at the end.
func (r *Reader) ReadCString() (string, error) {
	rest := r.b[r.off:]

	i := bytes.IndexByte(rest, 0x00)
	if i < 0 {
		r.off = len(r.b)
		return string(rest), nil
	}

	r.off += i + 1
	return string(rest[:i]), nil
}

// IndexByte returns the distance from the cursor to the next occurrence of c,
// or -1 if c does not occur in the unread bytes.
func (r *Reader) IndexByte(c byte) int {
	return bytes.IndexByte(r.b[r.off:], c)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
