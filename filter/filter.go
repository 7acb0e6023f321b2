// Package filter builds row predicates over BioAssay tables and adapts
// them to the rows and columns of expression matrices.
//
// Every numeric comparison follows one rule: a NaN or unset value fails.
// Use OrNaN where such rows should pass instead.
package filter

import (
	"math"
	"regexp"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/bioassay"
)

// Filter is a predicate over one row. Fields lists the columns it reads so a
// table can be checked before any row is evaluated.
type Filter interface {
	Fields() []string
	Keep(bioassay.Row) bool
}

// Validate checks that b has every field f reads.
func Validate(b *bioassay.BioAssay, f Filter) error {
	for _, field := range f.Fields() {
		if !b.HasField(field) {
			return exprannot.UnknownField(field, "bioassay "+b.Name())
		}
	}
	return nil
}

// Apply returns the rows of b that f keeps, in their original order.
func Apply(b *bioassay.BioAssay, f Filter) (*bioassay.BioAssay, error) {
	if err := Validate(b, f); err != nil {
		return nil, err
	}
	return b.Filter(f.Keep), nil
}

// Count returns how many rows of b f keeps.
func Count(b *bioassay.BioAssay, f Filter) (int, error) {
	if err := Validate(b, f); err != nil {
		return 0, err
	}

	n := 0
	for i := 0; i < b.Len(); i++ {
		if f.Keep(b.Row(i)) {
			n++
		}
	}
	return n, nil
}

func unionFields(fs []Filter) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, f := range fs {
		for _, field := range f.Fields() {
			if _, ok := seen[field]; ok {
				continue
			}
			seen[field] = struct{}{}
			out = append(out, field)
		}
	}
	return out
}

type and []Filter

// And keeps rows every filter keeps. With no filters it keeps every row.
func And(fs ...Filter) Filter { return and(fs) }

func (a and) Fields() []string { return unionFields(a) }

func (a and) Keep(r bioassay.Row) bool {
	for _, f := range a {
		if !f.Keep(r) {
			return false
		}
	}
	return true
}

type or []Filter

// Or keeps rows any filter keeps. With no filters it keeps nothing.
func Or(fs ...Filter) Filter { return or(fs) }

func (o or) Fields() []string { return unionFields(o) }

func (o or) Keep(r bioassay.Row) bool {
	for _, f := range o {
		if f.Keep(r) {
			return true
		}
	}
	return false
}

type not struct{ f Filter }

// Not inverts f. Note that Not(Sup(field, t)) keeps NaN rows.
func Not(f Filter) Filter { return not{f} }

func (n not) Fields() []string { return n.f.Fields() }

func (n not) Keep(r bioassay.Row) bool { return !n.f.Keep(r) }

type orNaN struct {
	field string
	f     Filter
}

// OrNaN keeps rows whose field is NaN or unset, and otherwise defers to f.
func OrNaN(field string, f Filter) Filter { return orNaN{field: field, f: f} }

func (o orNaN) Fields() []string { return unionFields([]Filter{Fields(o.field), o.f}) }

func (o orNaN) Keep(r bioassay.Row) bool {
	if math.IsNaN(r.Float(o.field)) {
		return true
	}
	return o.f.Keep(r)
}

type fieldsOnly []string

// Fields is a filter that keeps every row but requires the named fields.
func Fields(fields ...string) Filter { return fieldsOnly(fields) }

func (f fieldsOnly) Fields() []string { return []string(f) }

func (fieldsOnly) Keep(bioassay.Row) bool { return true }

type funcFilter struct {
	fields []string
	keep   func(bioassay.Row) bool
}

// Func wraps an arbitrary predicate that reads fields.
func Func(fields []string, keep func(bioassay.Row) bool) Filter {
	return funcFilter{fields: fields, keep: keep}
}

func (f funcFilter) Fields() []string { return f.fields }

func (f funcFilter) Keep(r bioassay.Row) bool { return f.keep(r) }

type nonEmpty struct{ tester bioassay.EmptyTester }

// NonEmpty drops rows the tester finds empty. A nil tester means
// bioassay.DefaultEmptyTester.
func NonEmpty(tester bioassay.EmptyTester) Filter {
	if tester == nil {
		tester = bioassay.DefaultEmptyTester
	}
	return nonEmpty{tester}
}

func (nonEmpty) Fields() []string { return nil }

func (n nonEmpty) Keep(r bioassay.Row) bool { return !n.tester.Empty(r) }

type flagsAtLeast int64

// FlagsAtLeast keeps rows whose flag is set and at least min.
func FlagsAtLeast(min int64) Filter { return flagsAtLeast(min) }

func (flagsAtLeast) Fields() []string { return []string{bioassay.FieldFlags} }

func (f flagsAtLeast) Keep(r bioassay.Row) bool {
	v := r.Int(bioassay.FieldFlags)
	return v.Valid && v.Int64 >= int64(f)
}

type idSet struct {
	ids    map[string]struct{}
	remove bool
}

// KeepIDs keeps only the listed identifiers.
func KeepIDs(ids ...string) Filter { return newIDSet(ids, false) }

// RemoveIDs drops the listed identifiers.
func RemoveIDs(ids ...string) Filter { return newIDSet(ids, true) }

func newIDSet(ids []string, remove bool) idSet {
	s := idSet{ids: make(map[string]struct{}, len(ids)), remove: remove}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (idSet) Fields() []string { return nil }

func (s idSet) Keep(r bioassay.Row) bool {
	_, found := s.ids[r.ID()]
	return found != s.remove
}

type match struct {
	field string
	re    *regexp.Regexp
}

// Match keeps rows whose string field is set and matches re. FieldID
// matches on the identifier.
func Match(field string, re *regexp.Regexp) Filter { return match{field: field, re: re} }

func (m match) Fields() []string { return []string{m.field} }

func (m match) Keep(r bioassay.Row) bool {
	v := r.String(m.field)
	return v.Valid && m.re.MatchString(v.String)
}
