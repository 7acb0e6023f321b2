// Package ramcsv answers annotation lookups from a delimited file without
// holding its values in memory. Opening the file makes one pass that records
// where each identifier's line starts; every lookup then reads and parses
// just that line.
//
// Records may not span lines, so quoted cells containing newlines are not
// supported.
package ramcsv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/annotation"
	"github.com/carbocation/pfx"
	"gopkg.in/guregu/null.v3"
)

const sniffBytes = 64 * 1024

type Options struct {
	// Delimiter between columns. Zero means sniff it from the first 64KiB.
	Delimiter rune
	Header    bool
	Trim      bool
	Comment   rune
}

type locator struct {
	Offset int64
	Length int
}

// Table is a lazily read annotation.Table. It is safe for concurrent use.
type Table struct {
	ra    io.ReaderAt
	close func() error
	opts  Options

	fields []string
	column map[string]int
	ids    []string
	lines  map[string]locator

	failures atomic.Uint64
	m        sync.Mutex
	err      error
}

// Open indexes the local or gs:// file at path. The file must not be
// compressed. Close releases it.
func Open(ctx context.Context, path string, opts Options) (*Table, error) {
	f, err := exprannot.OpenAt(ctx, path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	t, err := New(f, f.Size(), opts)
	if err != nil {
		f.Close()
		if mfe, ok := err.(*exprannot.MalformedFileError); ok {
			mfe.Path = path
		}
		return nil, pfx.Err(err)
	}
	t.close = f.Close

	return t, nil
}

// New indexes size bytes of ra.
func New(ra io.ReaderAt, size int64, opts Options) (*Table, error) {
	if opts.Delimiter == 0 {
		n := int64(sniffBytes)
		if size < n {
			n = size
		}
		sample := make([]byte, n)
		if _, err := ra.ReadAt(sample, 0); err != nil && err != io.EOF {
			return nil, err
		}
		opts.Delimiter = exprannot.DetermineDelimiter(sample)
	}

	t := &Table{
		ra:     ra,
		opts:   opts,
		column: make(map[string]int),
		lines:  make(map[string]locator),
	}

	scanner := bufio.NewScanner(io.NewSectionReader(ra, 0, size))
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	scanner.Split(scanLinesNondestructive)

	var (
		offset int64
		header []string
		widest int
	)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		b := scanner.Bytes()
		loc := locator{Offset: offset, Length: len(b)}
		offset += int64(len(b))

		cells, err := t.parse(b)
		if err == io.EOF {
			// Blank or comment line
			continue
		} else if err != nil {
			return nil, &exprannot.MalformedFileError{Line: lineNo, Reason: "unparseable row", Err: err}
		}

		if opts.Header && header == nil {
			header = cells
			continue
		}

		id := cells[0]
		if id == "" {
			return nil, &exprannot.MalformedFileError{Line: lineNo, Reason: "bad identifier", Err: exprannot.ErrEmptyIdentifier}
		}
		if _, exists := t.lines[id]; exists {
			return nil, &exprannot.MalformedFileError{Line: lineNo, Reason: "bad identifier", Err: fmt.Errorf("%w %q", exprannot.ErrDuplicateIdentifier, id)}
		}
		if opts.Header && len(cells) > len(header) {
			return nil, &exprannot.MalformedFileError{
				Line:   lineNo,
				Reason: fmt.Sprintf("%d annotation columns but only %d fields", len(cells)-1, len(header)-1),
			}
		}
		if len(cells) > widest {
			widest = len(cells)
		}

		t.lines[id] = loc
		t.ids = append(t.ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if opts.Header {
		for k := 1; k < len(header); k++ {
			name := header[k]
			if name == "" {
				name = annotation.PositionalField(k)
			}
			if _, dup := t.column[name]; dup {
				return nil, &exprannot.MalformedFileError{Line: 1, Reason: fmt.Sprintf("field %q declared twice", name)}
			}
			t.column[name] = k
			t.fields = append(t.fields, name)
		}
	} else {
		for k := 1; k < widest; k++ {
			name := annotation.PositionalField(k)
			t.column[name] = k
			t.fields = append(t.fields, name)
		}
	}

	return t, nil
}

func (t *Table) parse(line []byte) ([]string, error) {
	csvr := csv.NewReader(bytes.NewReader(line))
	csvr.Comma = t.opts.Delimiter
	csvr.Comment = t.opts.Comment
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true
	csvr.TrimLeadingSpace = t.opts.Trim

	cells, err := csvr.Read()
	if err != nil {
		return nil, err
	}
	if t.opts.Trim {
		for k := range cells {
			cells[k] = strings.TrimSpace(cells[k])
		}
	}

	return cells, nil
}

func (t *Table) Fields() []string {
	return append([]string(nil), t.fields...)
}

func (t *Table) IDs() []string {
	return append([]string(nil), t.ids...)
}

func (t *Table) Len() int {
	return len(t.ids)
}

// Read returns the cells of id's line, identifier first.
func (t *Table) Read(id string) ([]string, error) {
	loc, ok := t.lines[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", exprannot.ErrMissingIdentifier, id)
	}

	val := make([]byte, loc.Length)
	if _, err := t.ra.ReadAt(val, loc.Offset); err != nil && err != io.EOF {
		return nil, err
	}

	return t.parse(val)
}

// Value reads field for id. A read failure gives an invalid value, so
// callers that must tell it from a missing value compare Failures before and
// after the lookup.
func (t *Table) Value(id, field string) null.String {
	k, ok := t.column[field]
	if !ok {
		return null.String{}
	}
	if _, ok := t.lines[id]; !ok {
		return null.String{}
	}

	cells, err := t.Read(id)
	if err != nil {
		t.m.Lock()
		t.err = err
		t.m.Unlock()
		t.failures.Add(1)
		return null.String{}
	}
	if k >= len(cells) {
		return null.String{}
	}

	return null.StringFrom(cells[k])
}

// Failures counts the reads that have failed in Value.
func (t *Table) Failures() uint64 {
	return t.failures.Load()
}

// Err returns the most recent read failure seen by Value.
func (t *Table) Err() error {
	t.m.Lock()
	defer t.m.Unlock()
	return t.err
}

func (t *Table) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}

// scanLinesNondestructive does not destroy the \n or the possible \r\n from a
// line, so that lengths add up to file offsets. Otherwise it is like
// bufio.ScanLines.
func scanLinesNondestructive(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[0 : i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	// Request more data.
	return 0, nil, nil
}
