// Package annotation holds identifier → annotation tables. A Source is built
// once, from a delimited file, a FASTA file, a database snapshot or code, and
// is read-only afterwards, so it may be shared between goroutines.
package annotation

import (
	"fmt"

	"github.com/carbocation/exprannot"
	"gopkg.in/guregu/null.v3"
)

// Record maps field name to value for one identifier. A field that is not a
// key of the map is absent, which is different from a present empty string.
type Record map[string]string

// Table is the read-only view shared by sources and materialized translators.
type Table interface {
	Fields() []string
	IDs() []string
	Value(id, field string) null.String
}

// DefaultFielder is implemented by tables that name a default field.
type DefaultFielder interface {
	DefaultField() string
}

type Source struct {
	fields       []string
	known        map[string]struct{}
	defaultField string
	ids          []string
	records      map[string]Record
}

// Fields returns the ordered field names.
func (s *Source) Fields() []string {
	return append([]string(nil), s.fields...)
}

// DefaultField is the field a translator over s answers by default. Empty
// means the first field.
func (s *Source) DefaultField() string {
	return s.defaultField
}

// HasField reports whether field is one of the source's fields.
func (s *Source) HasField(field string) bool {
	_, ok := s.known[field]
	return ok
}

// IDs returns identifiers in the order they were added.
func (s *Source) IDs() []string {
	return append([]string(nil), s.ids...)
}

func (s *Source) Len() int {
	return len(s.ids)
}

// Record returns a copy of the record for id.
func (s *Source) Record(id string) (Record, bool) {
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}

	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}

	return out, true
}

// Value returns the value of field for id, or an invalid null.String when
// either is unknown or the record lacks that field.
func (s *Source) Value(id, field string) null.String {
	rec, ok := s.records[id]
	if !ok {
		return null.String{}
	}

	v, ok := rec[field]
	if !ok {
		return null.String{}
	}

	return null.StringFrom(v)
}

// Builder accumulates records for a Source. It is not safe for concurrent
// use and must not be used after Build.
type Builder struct {
	src   *Source
	built bool
}

func NewBuilder(fields ...string) (*Builder, error) {
	b := &Builder{src: &Source{
		known:   make(map[string]struct{}),
		records: make(map[string]Record),
	}}

	for _, f := range fields {
		if err := b.AddField(f); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// AddField appends a field name. Names must be non-empty and unique.
func (b *Builder) AddField(field string) error {
	if field == "" {
		return fmt.Errorf("annotation: empty field name")
	}
	if _, exists := b.src.known[field]; exists {
		return fmt.Errorf("annotation: field %q declared twice", field)
	}

	b.src.known[field] = struct{}{}
	b.src.fields = append(b.src.fields, field)

	return nil
}

// SetDefaultField records which declared field is the default.
func (b *Builder) SetDefaultField(field string) error {
	if _, ok := b.src.known[field]; !ok {
		return exprannot.UnknownField(field, "annotation builder")
	}
	b.src.defaultField = field
	return nil
}

// Add stores rec under id. The record is copied. Every key of rec must be a
// declared field.
func (b *Builder) Add(id string, rec Record) error {
	if b.built {
		return fmt.Errorf("annotation: builder already built")
	}
	if id == "" {
		return exprannot.ErrEmptyIdentifier
	}
	if _, exists := b.src.records[id]; exists {
		return fmt.Errorf("%w %q", exprannot.ErrDuplicateIdentifier, id)
	}

	stored := make(Record, len(rec))
	for k, v := range rec {
		if _, ok := b.src.known[k]; !ok {
			return exprannot.UnknownField(k, "annotation record "+id)
		}
		stored[k] = v
	}

	b.src.records[id] = stored
	b.src.ids = append(b.src.ids, id)

	return nil
}

// Build returns the finished Source.
func (b *Builder) Build() *Source {
	b.built = true
	return b.src
}

// FromTable copies any Table into a new Source, keeping its default field
// when it has one.
func FromTable(t Table) (*Source, error) {
	b, err := NewBuilder(t.Fields()...)
	if err != nil {
		return nil, err
	}
	if df, ok := t.(DefaultFielder); ok && df.DefaultField() != "" {
		if err := b.SetDefaultField(df.DefaultField()); err != nil {
			return nil, err
		}
	}

	fields := t.Fields()
	for _, id := range t.IDs() {
		rec := make(Record, len(fields))
		for _, f := range fields {
			if v := t.Value(id, f); v.Valid {
				rec[f] = v.String
			}
		}
		if err := b.Add(id, rec); err != nil {
			return nil, err
		}
	}

	return b.Build(), nil
}
