package bioassay

import (
	"math"

	"gopkg.in/guregu/null.v3"
)

// Row is one row of a BioAssay, read together with its table so predicates
// can consult any column.
type Row struct {
	b *BioAssay
	i int
}

func (r Row) ID() string { return r.b.ids[r.i] }

func (r Row) Index() int { return r.i }

func (r Row) Table() *BioAssay { return r.b }

// Value returns a numeric cell. Unset cells, unknown fields and string
// columns are invalid. Int columns are converted.
func (r Row) Value(field string) null.Float {
	c, ok := r.b.columns[field]
	if !ok {
		return null.Float{}
	}

	switch c.kind {
	case KindFloat:
		return c.floats[r.i]
	case KindInt:
		v := c.ints[r.i]
		if !v.Valid {
			return null.Float{}
		}
		return null.FloatFrom(float64(v.Int64))
	}

	return null.Float{}
}

// Float is Value with NaN standing in for an invalid cell.
func (r Row) Float(field string) float64 {
	v := r.Value(field)
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (r Row) Int(field string) null.Int {
	c, ok := r.b.columns[field]
	if !ok || c.kind != KindInt {
		return null.Int{}
	}
	return c.ints[r.i]
}

// String returns a string cell. FieldID yields the row identifier.
func (r Row) String(field string) null.String {
	if field == FieldID {
		return null.StringFrom(r.ID())
	}

	c, ok := r.b.columns[field]
	if !ok || c.kind != KindString {
		return null.String{}
	}
	return c.strings[r.i]
}

// Set reports whether field has a value in this row. A defined NaN is set.
func (r Row) Set(field string) bool {
	if field == FieldID {
		return true
	}

	c, ok := r.b.columns[field]
	if !ok {
		return false
	}

	switch c.kind {
	case KindFloat:
		return c.floats[r.i].Valid
	case KindInt:
		return c.ints[r.i].Valid
	case KindString:
		return c.strings[r.i].Valid
	}

	return false
}
