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

// Package hexdump renders byte buffers as hex and ASCII dump lines.
package hexdump

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// RowWidth is the number of bytes rendered per line.
const RowWidth = 16

// hexWidth is the width of the hex column of a full row.
const hexWidth = RowWidth*3 - 1

// A Line is one row of a dump.
type Line struct {
	// Offset is the index of the row's first byte in the dumped buffer.
	Offset int

	// Bytes holds the 1 to RowWidth bytes of the row.
	Bytes []byte

	// Hex is the row as uppercase hex pairs separated by single spaces.
	Hex string

	// ASCII is the row with every byte outside [0x20, 0x7E] shown as '.'.
	ASCII string
}

// String formats the line with its offset and a hex column padded to the
// width of a full row.
func (l Line) String() string {
	return fmt.Sprintf("%08X  %-*s  %s", l.Offset, hexWidth, l.Hex, l.ASCII)
}

// Dump renders b.  The last line may hold fewer than RowWidth bytes; empty
// input yields no lines.
func Dump(b []byte) []Line {
	if len(b) == 0 {
		return nil
	}

	lines := make([]Line, 0, (len(b)+RowWidth-1)/RowWidth)
	for off := 0; off < len(b); off += RowWidth {
		row := b[off:min(off+RowWidth, len(b))]

		var (
			hx    strings.Builder
			ascii strings.Builder
		)
		for i, c := range row {
			if i > 0 {
				hx.WriteByte(' ')
			}
			fmt.Fprintf(&hx, "%02X", c)

			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			ascii.WriteByte(c)
		}

		lines = append(lines, Line{
			Offset: off,
			Bytes:  append([]byte(nil), row...),
			Hex:    hx.String(),
			ASCII:  ascii.String(),
		})
	}

	return lines
}

// Write writes the dump of b to w, one formatted line per row.
func Write(w io.Writer, b []byte) error {
	bw := bufio.NewWriter(w)
	for _, l := range Dump(b) {
		if _, err := fmt.Fprintln(bw, l); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ParseHex decodes the hex column of a line back into bytes.
func ParseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return nil, errors.Wrapf(err, "parse hex column %q", s)
	}

	return b, nil
}
