// Package translator resolves identifiers to annotation fields. A Translator
// is one of a closed set of variants (see Kind): table-backed lookups and
// combinators that build richer translators from simpler ones. Every
// constructor validates field names up front, so a pipeline that names a
// field its inputs do not provide fails before any identifier is looked up.
//
// Translators are immutable and safe for concurrent use.
package translator

import (
	"fmt"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/annotation"
	"gopkg.in/guregu/null.v3"
)

type Kind int

const (
	KindTable Kind = iota
	KindDescription
	KindMultiColumn
	KindFasta
	KindConcat
	KindJoin
	KindSelect
	KindAddIdentifier
	KindUnique
	KindCommonLinks
)

var kindNames = map[Kind]string{
	KindTable:         "table",
	KindDescription:   "description",
	KindMultiColumn:   "multicolumn",
	KindFasta:         "fasta",
	KindConcat:        "concat",
	KindJoin:          "join",
	KindSelect:        "select",
	KindAddIdentifier: "addidentifier",
	KindUnique:        "unique",
	KindCommonLinks:   "commonlinks",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Translator carries only the data its Kind needs.
type Translator struct {
	kind         Kind
	fields       []string
	known        map[string]struct{}
	defaultField string

	// KindTable, KindDescription, KindMultiColumn, KindFasta
	table annotation.Table

	// KindConcat
	children []*Translator
	owner    map[string]*Translator

	// KindJoin, KindSelect, KindAddIdentifier, KindUnique, KindCommonLinks
	child *Translator

	// KindJoin
	second    *Translator
	joinField string
	fallback  bool
	joinAlias string

	// KindAddIdentifier, KindUnique
	idField string

	// KindUnique
	ids     []string
	unique  map[string]string
	reverse map[string]string

	// KindCommonLinks
	rules []LinkRule
	links map[string]LinkRule
}

func (t *Translator) setFields(fields []string) {
	t.fields = fields
	t.known = make(map[string]struct{}, len(fields))
	for _, f := range fields {
		t.known[f] = struct{}{}
	}
}

func (t *Translator) Kind() Kind { return t.kind }

// Fields returns the ordered, duplicate-free field names t can produce.
func (t *Translator) Fields() []string {
	return append([]string(nil), t.fields...)
}

func (t *Translator) DefaultField() string { return t.defaultField }

func (t *Translator) HasField(field string) bool {
	_, ok := t.known[field]
	return ok
}

// TranslateField returns the value of field for id. It is invalid when the
// field is unknown or the data holds no value for the pair.
func (t *Translator) TranslateField(id, field string) null.String {
	if !t.HasField(field) {
		return null.String{}
	}

	switch t.kind {
	case KindTable, KindDescription, KindMultiColumn, KindFasta:
		return t.table.Value(id, field)

	case KindConcat:
		return t.owner[field].TranslateField(id, field)

	case KindJoin:
		if t.joinAlias != "" && field == t.joinAlias {
			return t.joined(id, t.second.defaultField)
		}
		if t.child.HasField(field) {
			return t.child.TranslateField(id, field)
		}
		return t.joined(id, field)

	case KindSelect:
		return t.child.TranslateField(id, field)

	case KindAddIdentifier:
		if field == t.idField {
			return null.StringFrom(id)
		}
		return t.child.TranslateField(id, field)

	case KindUnique:
		if field == t.idField {
			v, ok := t.unique[id]
			if !ok {
				return null.String{}
			}
			return null.StringFrom(v)
		}
		return t.child.TranslateField(id, field)

	case KindCommonLinks:
		if rule, ok := t.links[field]; ok {
			return rule.Link(t.child.TranslateField(id, rule.Field))
		}
		return t.child.TranslateField(id, field)
	}

	return null.String{}
}

// joined looks id up in the primary translator's join field, then looks the
// result up in the secondary translator.
func (t *Translator) joined(id, field string) null.String {
	k := t.child.TranslateField(id, t.joinField)
	if !k.Valid {
		if t.fallback {
			return t.child.Translate(id)
		}
		return null.String{}
	}

	v := t.second.TranslateField(k.String, field)
	if !v.Valid && t.fallback {
		return t.child.Translate(id)
	}

	return v
}

// Translate returns the value of the default field for id.
func (t *Translator) Translate(id string) null.String {
	return t.TranslateField(id, t.defaultField)
}

// TranslateAll returns one value per entry of Fields.
func (t *Translator) TranslateAll(id string) []null.String {
	out := make([]null.String, len(t.fields))
	for i, f := range t.fields {
		out[i] = t.TranslateField(id, f)
	}
	return out
}

// TranslateIDs translates each of ids on field. An empty field means the
// default field.
func (t *Translator) TranslateIDs(ids []string, field string) []null.String {
	out := make([]null.String, len(ids))
	for i, id := range ids {
		if field == "" {
			out[i] = t.Translate(id)
		} else {
			out[i] = t.TranslateField(id, field)
		}
	}
	return out
}

// Lookup is TranslateField for callers that require a value: an unknown
// field is ErrUnknownField and a missing value is ErrMissingIdentifier.
func (t *Translator) Lookup(id, field string) (string, error) {
	if !t.HasField(field) {
		return "", exprannot.UnknownField(field, t.kind.String()+" translator")
	}

	v := t.TranslateField(id, field)
	if !v.Valid {
		return "", fmt.Errorf("%w %q for field %q", exprannot.ErrMissingIdentifier, id, field)
	}

	return v.String, nil
}

// WithDefaultField returns a copy of t whose default field is field.
func (t *Translator) WithDefaultField(field string) (*Translator, error) {
	if !t.HasField(field) {
		return nil, exprannot.UnknownField(field, t.kind.String()+" translator")
	}

	out := *t
	out.defaultField = field

	return &out, nil
}

// IDs lists the identifiers t knows about, when its data can enumerate them.
func (t *Translator) IDs() []string {
	switch t.kind {
	case KindTable, KindDescription, KindMultiColumn, KindFasta:
		return t.table.IDs()

	case KindConcat:
		var out []string
		seen := make(map[string]struct{})
		for _, c := range t.children {
			for _, id := range c.IDs() {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
		return out

	case KindUnique:
		return append([]string(nil), t.ids...)

	case KindJoin, KindSelect, KindAddIdentifier, KindCommonLinks:
		return t.child.IDs()
	}

	return nil
}

// IsLinkField reports whether values of field are turned into hyperlinks.
func (t *Translator) IsLinkField(field string) bool {
	switch t.kind {
	case KindCommonLinks:
		if _, ok := findRule(t.rules, field); ok && t.child.HasField(field) {
			return true
		}
		return t.child.IsLinkField(field)

	case KindConcat:
		if owner, ok := t.owner[field]; ok {
			return owner.IsLinkField(field)
		}

	case KindJoin:
		if t.joinAlias != "" && field == t.joinAlias {
			return t.second.IsLinkField(t.second.defaultField)
		}
		if t.child.HasField(field) {
			return t.child.IsLinkField(field)
		}
		return t.second.IsLinkField(field)

	case KindSelect, KindAddIdentifier, KindUnique:
		if t.HasField(field) && field != t.idField {
			return t.child.IsLinkField(field)
		}
	}

	return false
}

// LinkInfo returns the hyperlink for a value of field, if field is a link
// field.
func (t *Translator) LinkInfo(value, field string) null.String {
	switch t.kind {
	case KindCommonLinks:
		if rule, ok := findRule(t.rules, field); ok && t.child.HasField(field) {
			return rule.Link(null.StringFrom(value))
		}
		return t.child.LinkInfo(value, field)

	case KindConcat:
		if owner, ok := t.owner[field]; ok {
			return owner.LinkInfo(value, field)
		}

	case KindJoin:
		if t.joinAlias != "" && field == t.joinAlias {
			return t.second.LinkInfo(value, t.second.defaultField)
		}
		if t.child.HasField(field) {
			return t.child.LinkInfo(value, field)
		}
		return t.second.LinkInfo(value, field)

	case KindSelect, KindAddIdentifier, KindUnique:
		if t.HasField(field) && field != t.idField {
			return t.child.LinkInfo(value, field)
		}
	}

	return null.String{}
}
