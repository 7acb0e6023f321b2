package annotation

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/pfx"
	"golang.org/x/net/html/charset"
)

const sniffBytes = 64 * 1024

// DelimitedOptions describes an annotation export: one identifier column
// followed by any number of annotation columns.
type DelimitedOptions struct {
	// Delimiter between columns. Zero means sniff it from the first 64KiB.
	Delimiter rune

	// Header means the first row names the columns. Without a header, fields
	// are named field1..fieldN.
	Header bool

	// Trim strips surrounding whitespace from every cell.
	Trim bool

	// Comment, if set, marks lines to skip.
	Comment rune

	// Charset is an optional encoding label such as "latin1" or
	// "windows-1252". Empty means UTF-8.
	Charset string

	// Logger, if set, receives progress for large files.
	Logger *log.Logger
}

// PositionalField is the name given to the n-th (1-based) annotation column
// of a file without a header.
func PositionalField(n int) string {
	return "field" + strconv.Itoa(n)
}

// LoadDelimited opens path (local, gs:// or s3://, optionally compressed) and
// reads it with ReadDelimited.
func LoadDelimited(ctx context.Context, path string, opts DelimitedOptions) (*Source, error) {
	f, err := exprannot.Open(ctx, path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	src, err := ReadDelimited(f, opts)
	if err != nil {
		var mfe *exprannot.MalformedFileError
		if errors.As(err, &mfe) {
			mfe.Path = path
		}
		return nil, pfx.Err(err)
	}

	if opts.Logger != nil {
		opts.Logger.Printf("Loaded %d identifiers with %d fields from %s\n", src.Len(), len(src.fields), path)
	}

	return src, nil
}

// ReadDelimited parses a delimited annotation table.
func ReadDelimited(r io.Reader, opts DelimitedOptions) (*Source, error) {
	if opts.Charset != "" {
		decoded, err := charset.NewReaderLabel(opts.Charset, r)
		if err != nil {
			return nil, err
		}
		r = decoded
	}

	br := bufio.NewReaderSize(r, sniffBytes)
	delim := opts.Delimiter
	if delim == 0 {
		sample, err := br.Peek(sniffBytes)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, err
		}
		delim = exprannot.DetermineDelimiter(sample)
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.Comment = opts.Comment
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = opts.Trim

	type row struct {
		line  int
		cells []string
	}

	var (
		header []string
		rows   []row
		widest int
	)

	for i := 0; ; i++ {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			return nil, &exprannot.MalformedFileError{Line: line, Reason: "unparseable row", Err: err}
		}
		line, _ := cr.FieldPos(0)

		if opts.Trim {
			for k := range cells {
				cells[k] = strings.TrimSpace(cells[k])
			}
		}

		if opts.Header && header == nil {
			header = cells
			continue
		}

		if len(cells) > widest {
			widest = len(cells)
		}
		rows = append(rows, row{line: line, cells: cells})

		if opts.Logger != nil && (i+1)%100_000 == 0 {
			opts.Logger.Printf("Read %d annotation rows\n", i+1)
		}
	}

	var fields []string
	if opts.Header {
		for k, name := range header {
			if k == 0 {
				continue
			}
			if name == "" {
				name = PositionalField(k)
			}
			fields = append(fields, name)
		}
	} else {
		for k := 1; k < widest; k++ {
			fields = append(fields, PositionalField(k))
		}
	}

	b, err := NewBuilder()
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := b.AddField(f); err != nil {
			return nil, &exprannot.MalformedFileError{Line: 1, Reason: "bad header", Err: err}
		}
	}

	for _, rw := range rows {
		if len(rw.cells)-1 > len(fields) {
			return nil, &exprannot.MalformedFileError{
				Line:   rw.line,
				Reason: fmt.Sprintf("%d annotation columns but only %d fields", len(rw.cells)-1, len(fields)),
			}
		}

		rec := make(Record, len(rw.cells)-1)
		for k, v := range rw.cells[1:] {
			rec[fields[k]] = v
		}

		if err := b.Add(rw.cells[0], rec); err != nil {
			return nil, &exprannot.MalformedFileError{Line: rw.line, Reason: "bad identifier", Err: err}
		}
	}

	return b.Build(), nil
}
