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
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// A Collector gathers raw ACPI tables from one source, such as sysfs, the
// Windows registry or a directory of exported tables.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]RawTable, error)
}

// Enumerate runs every collector concurrently and merges their results.
//
// Enumerate never fails: a collector which cannot read its source, most often
// because the process lacks the privilege to read firmware tables, is logged
// and contributes no tables.  Callers should treat an empty result as "no
// tables found, check privileges".
func Enumerate(ctx context.Context, cs ...Collector) []RawTable {
	sets := make([][]RawTable, len(cs))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range cs {
		i, c := i, c
		g.Go(func() error {
			ts, err := c.Collect(ctx)
			if err != nil {
				if isPermission(err) {
					log.Warnf("%s: insufficient privileges to read ACPI tables: %v", c.Name(), err)
				} else {
					log.Warnf("%s: failed to collect ACPI tables: %v", c.Name(), err)
				}
				return nil
			}

			log.Debugf("%s: collected %d ACPI tables", c.Name(), len(ts))
			sets[i] = ts
			return nil
		})
	}

	// Collectors never return errors to the group.
	_ = g.Wait()

	return Merge(sets...)
}

func isPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

// Merge combines table sets, keeping one copy of every table.
//
// Tables with a known address are the same table when signature and address
// match.  Tables without an address are the same when signature and bytes
// match.  One set may hold several identical tables, such as two SSDTs with
// the same contents, so Merge keeps as many copies of given contents as the
// largest count found in any one set, counting addressed copies first.
// The result is sorted canonically, so Merge is commutative and idempotent.
func Merge(sets ...[]RawTable) []RawTable {
	type addrKey struct {
		sig  Signature
		addr uint64
	}
	type bytesKey struct {
		sig Signature
		b   string
	}

	addressed := make(map[addrKey]RawTable)
	for _, ts := range sets {
		for _, t := range ts {
			if !t.HasAddress {
				continue
			}

			k := addrKey{sig: t.Signature, addr: t.Address}
			// Conflicting contents at one address: keep a deterministic
			// choice regardless of input order.
			if prev, ok := addressed[k]; ok && bytes.Compare(prev.Bytes, t.Bytes) <= 0 {
				continue
			}
			addressed[k] = t
		}
	}

	// Largest number of copies of each content within a single set.  An
	// addressed table counts once, and only if its copy was kept above.
	counts := make(map[bytesKey]int)
	unaddressed := make(map[bytesKey]RawTable)
	for _, ts := range sets {
		n := make(map[bytesKey]int)
		seen := make(map[addrKey]bool)
		for _, t := range ts {
			k := bytesKey{sig: t.Signature, b: string(t.Bytes)}
			if t.HasAddress {
				ak := addrKey{sig: t.Signature, addr: t.Address}
				if seen[ak] || !bytes.Equal(addressed[ak].Bytes, t.Bytes) {
					continue
				}
				seen[ak] = true
			} else if _, ok := unaddressed[k]; !ok {
				unaddressed[k] = t
			}

			n[k]++
			if n[k] > counts[k] {
				counts[k] = n[k]
			}
		}
	}

	var out []RawTable
	for _, t := range addressed {
		counts[bytesKey{sig: t.Signature, b: string(t.Bytes)}]--
		out = append(out, t)
	}

	for k, t := range unaddressed {
		for i := 0; i < counts[k]; i++ {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := bytes.Compare(a.Signature[:], b.Signature[:]); c != 0 {
			return c < 0
		}
		if a.HasAddress != b.HasAddress {
			return a.HasAddress
		}
		if a.HasAddress {
			return a.Address < b.Address
		}
		return bytes.Compare(a.Bytes, b.Bytes) < 0
	})

	return out
}

// A DirCollector imports tables from a directory of files written by the
// export package.  Each file's identity is recovered from its name, and its
// signature from its contents when it is at least four bytes long.
type DirCollector struct {
	Dir string
}

// Name implements Collector.
func (c DirCollector) Name() string { return "dir:" + c.Dir }

// Collect implements Collector.
func (c DirCollector) Collect(ctx context.Context) ([]RawTable, error) {
	des, err := os.ReadDir(c.Dir)
	if err != nil {
		return nil, err
	}

	var ts []RawTable
	for _, de := range des {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if de.IsDir() {
			continue
		}

		id, err := ParseFileName(de.Name())
		if err != nil {
			log.Debugf("skipping %s: %v", de.Name(), err)
			continue
		}

		b, err := os.ReadFile(filepath.Join(c.Dir, de.Name()))
		if err != nil {
			return nil, err
		}

		t := NewRawTable(b)
		if len(b) < len(t.Signature) {
			t.Signature = id.Signature
		}
		if id.HasAddress {
			t = t.WithAddress(id.Address)
		}

		ts = append(ts, t)
	}

	return ts, nil
}

// readTableDir reads every regular file in dir as one table.  Files which
// cannot be read are skipped; an error is only returned when the directory
// held files and none of them could be read.
func readTableDir(ctx context.Context, dir string) ([]RawTable, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var (
		ts      []RawTable
		lastErr error
	)
	for _, de := range des {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !de.Type().IsRegular() {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			log.Debugf("error reading ACPI table %q: %v", de.Name(), err)
			lastErr = err
			continue
		}

		t := NewRawTable(b)
		if len(b) < len(t.Signature) {
			t.Signature = SignatureOf(de.Name())
		}
		ts = append(ts, t)
	}

	if len(ts) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return ts, nil
}
