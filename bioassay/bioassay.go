// Package bioassay models one hybridization's measurement table: an ordered
// set of rows keyed by probe identifier, with named float, int and string
// columns. Row count and identifier order are fixed when the table is
// created. Columns may be added or replaced, but never resized.
package bioassay

import (
	"fmt"
	"math"

	"github.com/carbocation/exprannot"
	"gopkg.in/guregu/null.v3"
)

// Well-known column names.
const (
	FieldRed         = "red"
	FieldGreen       = "green"
	FieldFlags       = "flags"
	FieldID          = "id"
	FieldRatio       = "ratio"
	FieldBright      = "bright"
	FieldDescription = "description"
	FieldA           = "a"
	FieldM           = "m"
	FieldStdDevA     = "stddeva"
	FieldStdDevM     = "stddevm"
)

// Spot flags, as written by the scanners.
const (
	FlagBad        = -100
	FlagAbsent     = -75
	FlagNotFound   = -50
	FlagUnflagged  = 0
	FlagNormalized = 1
	FlagGood       = 100
)

type ColumnKind int

const (
	KindNone ColumnKind = iota
	KindFloat
	KindInt
	KindString
)

func (k ColumnKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	}
	return "none"
}

type column struct {
	kind    ColumnKind
	floats  []null.Float
	ints    []null.Int
	strings []null.String
}

// BioAssay is safe for concurrent readers. Set* calls must not race with
// readers of the same table.
type BioAssay struct {
	name    string
	ids     []string
	index   map[string]int
	fields  []string
	columns map[string]*column
}

// New creates a table with one row per identifier. Identifiers must be
// non-empty and unique.
func New(name string, ids []string) (*BioAssay, error) {
	b := &BioAssay{
		name:    name,
		ids:     make([]string, len(ids)),
		index:   make(map[string]int, len(ids)),
		columns: make(map[string]*column),
	}

	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("bioassay %s row %d: %w", name, i, exprannot.ErrEmptyIdentifier)
		}
		if _, exists := b.index[id]; exists {
			return nil, fmt.Errorf("bioassay %s: %w %q", name, exprannot.ErrDuplicateIdentifier, id)
		}
		b.index[id] = i
		b.ids[i] = id
	}

	return b, nil
}

func (b *BioAssay) Name() string { return b.name }

// WithName returns a copy of b under another name. Columns are shared until
// one of the two tables replaces them.
func (b *BioAssay) WithName(name string) *BioAssay {
	out := &BioAssay{
		name:    name,
		ids:     b.ids,
		index:   b.index,
		fields:  append([]string(nil), b.fields...),
		columns: make(map[string]*column, len(b.columns)),
	}
	for k, v := range b.columns {
		out.columns[k] = v
	}

	return out
}

func (b *BioAssay) Len() int { return len(b.ids) }

func (b *BioAssay) IDs() []string {
	return append([]string(nil), b.ids...)
}

// Index returns the row of id.
func (b *BioAssay) Index(id string) (int, bool) {
	i, ok := b.index[id]
	return i, ok
}

// Fields lists the data columns in the order they were first set. The
// identifier column is implicit and not listed.
func (b *BioAssay) Fields() []string {
	return append([]string(nil), b.fields...)
}

// HasField reports whether field is a data column or the identifier column.
func (b *BioAssay) HasField(field string) bool {
	if field == FieldID {
		return true
	}
	_, ok := b.columns[field]
	return ok
}

func (b *BioAssay) Kind(field string) ColumnKind {
	if field == FieldID {
		return KindString
	}
	c, ok := b.columns[field]
	if !ok {
		return KindNone
	}
	return c.kind
}

func (b *BioAssay) column(field string, kind ColumnKind) (*column, error) {
	c, ok := b.columns[field]
	if !ok {
		return nil, exprannot.UnknownField(field, "bioassay "+b.name)
	}
	if c.kind != kind {
		return nil, fmt.Errorf("bioassay %s: field %q is %s, not %s", b.name, field, c.kind, kind)
	}
	return c, nil
}

func (b *BioAssay) put(field string, c *column) {
	if _, exists := b.columns[field]; !exists {
		b.fields = append(b.fields, field)
	}
	b.columns[field] = c
}

func (b *BioAssay) checkLen(field string, n int) error {
	if n != len(b.ids) {
		return fmt.Errorf("bioassay %s field %q: %d values for %d rows: %w", b.name, field, n, len(b.ids), exprannot.ErrDimensionMismatch)
	}
	if field == "" || field == FieldID {
		return fmt.Errorf("bioassay %s: %q cannot be used as a data column", b.name, field)
	}
	return nil
}

// SetFloats adds or replaces a float column. Every value is set; NaN stays a
// defined NaN.
func (b *BioAssay) SetFloats(field string, values []float64) error {
	if err := b.checkLen(field, len(values)); err != nil {
		return err
	}

	c := &column{kind: KindFloat, floats: make([]null.Float, len(values))}
	for i, v := range values {
		c.floats[i] = null.FloatFrom(v)
	}
	b.put(field, c)

	return nil
}

// SetFloatValues adds or replaces a float column whose cells may be unset.
func (b *BioAssay) SetFloatValues(field string, values []null.Float) error {
	if err := b.checkLen(field, len(values)); err != nil {
		return err
	}
	b.put(field, &column{kind: KindFloat, floats: append([]null.Float(nil), values...)})
	return nil
}

func (b *BioAssay) SetInts(field string, values []null.Int) error {
	if err := b.checkLen(field, len(values)); err != nil {
		return err
	}
	b.put(field, &column{kind: KindInt, ints: append([]null.Int(nil), values...)})
	return nil
}

func (b *BioAssay) SetStrings(field string, values []null.String) error {
	if err := b.checkLen(field, len(values)); err != nil {
		return err
	}
	b.put(field, &column{kind: KindString, strings: append([]null.String(nil), values...)})
	return nil
}

// Floats returns a copy of a numeric column with unset cells as NaN. Int
// columns are converted.
func (b *BioAssay) Floats(field string) ([]float64, error) {
	if c, ok := b.columns[field]; ok && c.kind == KindInt {
		out := make([]float64, len(c.ints))
		for i, v := range c.ints {
			out[i] = math.NaN()
			if v.Valid {
				out[i] = float64(v.Int64)
			}
		}
		return out, nil
	}

	c, err := b.column(field, KindFloat)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(c.floats))
	for i, v := range c.floats {
		out[i] = math.NaN()
		if v.Valid {
			out[i] = v.Float64
		}
	}

	return out, nil
}

func (b *BioAssay) FloatValues(field string) ([]null.Float, error) {
	c, err := b.column(field, KindFloat)
	if err != nil {
		return nil, err
	}
	return append([]null.Float(nil), c.floats...), nil
}

func (b *BioAssay) Ints(field string) ([]null.Int, error) {
	c, err := b.column(field, KindInt)
	if err != nil {
		return nil, err
	}
	return append([]null.Int(nil), c.ints...), nil
}

// Strings returns a copy of a string column. FieldID yields the identifiers.
func (b *BioAssay) Strings(field string) ([]null.String, error) {
	if field == FieldID {
		out := make([]null.String, len(b.ids))
		for i, id := range b.ids {
			out[i] = null.StringFrom(id)
		}
		return out, nil
	}

	c, err := b.column(field, KindString)
	if err != nil {
		return nil, err
	}
	return append([]null.String(nil), c.strings...), nil
}

// Row returns a view of row i. It panics if i is out of range, like a slice.
func (b *BioAssay) Row(i int) Row {
	_ = b.ids[i]
	return Row{b: b, i: i}
}

// Filter returns a new table with the rows keep accepts, in their original
// order. b is not modified.
func (b *BioAssay) Filter(keep func(Row) bool) *BioAssay {
	var indices []int
	for i := range b.ids {
		if keep(Row{b: b, i: i}) {
			indices = append(indices, i)
		}
	}

	out, _ := b.Subset(indices)
	return out
}

// Subset returns a new table holding the given rows in the given order.
// Indices must be in range and must not repeat.
func (b *BioAssay) Subset(indices []int) (*BioAssay, error) {
	ids := make([]string, len(indices))
	for k, i := range indices {
		if i < 0 || i >= len(b.ids) {
			return nil, fmt.Errorf("bioassay %s: row %d out of range [0,%d)", b.name, i, len(b.ids))
		}
		ids[k] = b.ids[i]
	}

	out, err := New(b.name, ids)
	if err != nil {
		return nil, err
	}

	for _, field := range b.fields {
		src := b.columns[field]
		c := &column{kind: src.kind}
		switch src.kind {
		case KindFloat:
			c.floats = make([]null.Float, len(indices))
			for k, i := range indices {
				c.floats[k] = src.floats[i]
			}
		case KindInt:
			c.ints = make([]null.Int, len(indices))
			for k, i := range indices {
				c.ints[k] = src.ints[i]
			}
		case KindString:
			c.strings = make([]null.String, len(indices))
			for k, i := range indices {
				c.strings[k] = src.strings[i]
			}
		}
		out.put(field, c)
	}

	return out, nil
}
