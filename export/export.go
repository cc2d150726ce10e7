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

// Package export writes raw firmware tables to files or other sinks.
//
// Exported tables are byte-exact copies with no framing, so an exported
// directory can be imported again with acpi.DirCollector.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/yywing/go-firmdump/acpi"
	"github.com/yywing/go-firmdump/smbios"
	"golang.org/x/sync/errgroup"
)

// Export operations reported by Error.
const (
	OpOpen  = "open"
	OpWrite = "write"
	OpClose = "close"
)

// An Error is the failure to export one table.
type Error struct {
	ID  acpi.ID
	Op  string
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %s: %v", e.ID, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Table writes the bytes of t to w verbatim.
func Table(t acpi.RawTable, w io.Writer) error {
	return write(w, t.Bytes)
}

func write(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}

	return nil
}

// A SinkFactory opens the sink a table is exported to.
type SinkFactory func(id acpi.ID) (io.WriteCloser, error)

// DirSinks returns a SinkFactory which creates one file per table in dir,
// named by acpi.ID.FileName.
func DirSinks(dir string) SinkFactory {
	return func(id acpi.ID) (io.WriteCloser, error) {
		return os.Create(filepath.Join(dir, id.FileName()))
	}
}

// A Failure is a table which could not be exported.
type Failure struct {
	ID  acpi.ID
	Err error
}

// A Report lists the outcome of exporting a batch of tables, in the order
// the tables were given.
type Report struct {
	Succeeded []acpi.ID
	Failed    []Failure
}

// Summary describes the report in one line.
func (r *Report) Summary() string {
	total := len(r.Succeeded) + len(r.Failed)
	return fmt.Sprintf("%d of %d tables exported, %d failed", len(r.Succeeded), total, len(r.Failed))
}

type options struct {
	workers int
}

// An Option configures All.
type Option func(*options)

// WithWorkers sets the number of tables exported concurrently.  Values below
// one are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// All exports every table to the sink newSink opens for its identity.
//
// A table which fails to export is recorded in the report and does not stop
// the others.  All only returns an error if newSink is nil or ctx is
// cancelled before the batch completes.
func All(ctx context.Context, tables []acpi.RawTable, newSink SinkFactory, opts ...Option) (*Report, error) {
	if newSink == nil {
		return nil, errors.New("export: nil sink factory")
	}

	o := options{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&o)
	}

	ids := acpi.Identify(tables)
	errs := make([]error, len(tables))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i := range tables {
		if ctx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			errs[i] = exportOne(ids[i], tables[i], newSink)
			return nil
		})
	}

	// Workers record failures in errs and never fail the group.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "export cancelled")
	}

	r := &Report{}
	for i, id := range ids {
		if err := errs[i]; err != nil {
			log.Debugf("failed to export %s: %v", id, err)
			r.Failed = append(r.Failed, Failure{ID: id, Err: err})
			continue
		}

		r.Succeeded = append(r.Succeeded, id)
	}

	return r, nil
}

func exportOne(id acpi.ID, t acpi.RawTable, newSink SinkFactory) error {
	w, err := newSink(id)
	if err != nil {
		return &Error{ID: id, Op: OpOpen, Err: err}
	}

	if err := Table(t, w); err != nil {
		_ = w.Close()
		return &Error{ID: id, Op: OpWrite, Err: err}
	}

	if err := w.Close(); err != nil {
		return &Error{ID: id, Op: OpClose, Err: err}
	}

	return nil
}

// SMBIOSFileName is the name of an exported SMBIOS structure table.
const SMBIOSFileName = "smbios_raw.bin"

// SMBIOS writes the structure table of t to w verbatim.
func SMBIOS(t *smbios.Table, w io.Writer) error {
	return write(w, t.Data)
}

// StructureFileName returns the export file name for s.
func StructureFileName(s *smbios.Structure) string {
	return fmt.Sprintf("smbios_type_%d_%04X.bin", s.Header.Type, s.Header.Handle)
}

// Structure writes the raw bytes of s, including its strings, to w.
func Structure(s *smbios.Structure, w io.Writer) error {
	return write(w, s.Raw)
}

// File creates the file at path and fills it using fn.
func File(path string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return fn(f)
}
