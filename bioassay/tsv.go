package bioassay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/exprannot"
	"gopkg.in/guregu/null.v3"
)

// Reader produces one BioAssay. Vendor formats implement it outside this
// package.
type Reader interface {
	Read() (*BioAssay, error)
}

// Writer stores one BioAssay.
type Writer interface {
	Write(*BioAssay) error
}

// TSVReader reads the tab-separated layout written by TSVWriter: a header
// with an "id" column and one column per field. An empty cell is unset and
// "NaN" or "NA" is a defined NaN. The flags column is read as integers; any
// other column with a cell that does not parse as a number is read as text.
type TSVReader struct {
	r    io.Reader
	name string
}

func NewTSVReader(r io.Reader, name string) *TSVReader {
	return &TSVReader{r: r, name: name}
}

func (t *TSVReader) Read() (*BioAssay, error) {
	cr := csv.NewReader(t.r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &exprannot.MalformedFileError{Line: 1, Reason: "missing header"}
	} else if err != nil {
		return nil, malformedCSV(err)
	}

	idCol := -1
	for k, name := range header {
		if name == FieldID {
			idCol = k
			break
		}
	}
	if idCol < 0 {
		return nil, &exprannot.MalformedFileError{Line: 1, Reason: `no "id" column in header`}
	}

	var (
		ids   []string
		cells [][]string
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, malformedCSV(err)
		}
		ids = append(ids, rec[idCol])
		cells = append(cells, rec)
	}

	b, err := New(t.name, ids)
	if err != nil {
		return nil, &exprannot.MalformedFileError{Reason: "bad identifiers", Err: err}
	}

	for k, field := range header {
		if k == idCol {
			continue
		}

		column := make([]string, len(cells))
		for i, rec := range cells {
			column[i] = rec[k]
		}

		if err := setParsedColumn(b, field, column); err != nil {
			return nil, &exprannot.MalformedFileError{Reason: "bad column " + field, Err: err}
		}
	}

	return b, nil
}

func malformedCSV(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &exprannot.MalformedFileError{Line: pe.StartLine, Reason: "unparseable row", Err: err}
	}
	return err
}

func parseFloatCell(s string) (null.Float, bool) {
	switch strings.TrimSpace(s) {
	case "":
		return null.Float{}, true
	case "NA", "NaN", "nan":
		return null.FloatFrom(math.NaN()), true
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return null.Float{}, false
	}
	return null.FloatFrom(v), true
}

func setParsedColumn(b *BioAssay, field string, column []string) error {
	if field == FieldFlags {
		ints := make([]null.Int, len(column))
		for i, s := range column {
			if strings.TrimSpace(s) == "" {
				continue
			}
			v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
			ints[i] = null.IntFrom(v)
		}
		return b.SetInts(field, ints)
	}

	if field != FieldDescription {
		floats := make([]null.Float, len(column))
		numeric := true
		for i, s := range column {
			v, ok := parseFloatCell(s)
			if !ok {
				numeric = false
				break
			}
			floats[i] = v
		}
		if numeric {
			return b.SetFloatValues(field, floats)
		}
	}

	strs := make([]null.String, len(column))
	for i, s := range column {
		if s != "" {
			strs[i] = null.StringFrom(s)
		}
	}
	return b.SetStrings(field, strs)
}

// TSVWriter writes a BioAssay as tab-separated text that TSVReader reads back.
type TSVWriter struct {
	w io.Writer
}

func NewTSVWriter(w io.Writer) *TSVWriter {
	return &TSVWriter{w: w}
}

func (t *TSVWriter) Write(b *BioAssay) error {
	cw := csv.NewWriter(t.w)
	cw.Comma = '\t'

	fields := b.Fields()
	if err := cw.Write(append([]string{FieldID}, fields...)); err != nil {
		return err
	}

	rec := make([]string, len(fields)+1)
	for i := 0; i < b.Len(); i++ {
		row := b.Row(i)
		rec[0] = row.ID()
		for k, f := range fields {
			rec[k+1] = FormatCell(row, f)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatCell renders one cell the way TSVWriter does: unset is empty and
// NaN is "NaN".
func FormatCell(r Row, field string) string {
	switch r.b.Kind(field) {
	case KindFloat:
		v := r.Value(field)
		if !v.Valid {
			return ""
		}
		return FormatFloat(v.Float64)
	case KindInt:
		v := r.Int(field)
		if !v.Valid {
			return ""
		}
		return strconv.FormatInt(v.Int64, 10)
	case KindString:
		return r.String(field).String
	}
	return ""
}

func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
