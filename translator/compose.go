package translator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/carbocation/exprannot"
)

// DefaultIdentifierField names the field AddIdentifier injects when no name
// is given.
const DefaultIdentifierField = "Identifier"

// Concat unions the fields of children in order. When two children provide
// the same field, the first one listed answers for it. The default field is
// the first child's.
func Concat(children ...*Translator) (*Translator, error) {
	if len(children) == 0 {
		return nil, errors.New("concat: no translators")
	}

	t := &Translator{
		kind:     KindConcat,
		children: append([]*Translator(nil), children...),
		owner:    make(map[string]*Translator),
	}

	var fields []string
	for i, c := range children {
		if c == nil {
			return nil, fmt.Errorf("concat: translator %d is nil", i)
		}
		for _, f := range c.fields {
			if _, taken := t.owner[f]; taken {
				continue
			}
			t.owner[f] = c
			fields = append(fields, f)
		}
	}
	t.setFields(fields)
	t.defaultField = children[0].defaultField

	return t, nil
}

// Join chains two independently keyed translators. For a field of second,
// the identifier is first translated by primary on joinField, and that value
// is looked up in second. Fields of primary are answered by primary.
//
// Without fallback a missing link gives an invalid value. With fallback it
// gives primary.Translate(id) instead.
//
// The fields are primary's followed by those of second that primary lacks.
// The default field is second's, so
// Join(p, jf, s, false).Translate(id) == s.Translate(p.TranslateField(id, jf)).
// When primary already has a field of that name, the joined default is added
// as JoinedField(name, jf) and becomes the default field instead, so that
// Translate(id) always equals TranslateField(id, DefaultField()).
func Join(primary *Translator, joinField string, second *Translator, fallback bool) (*Translator, error) {
	if primary == nil || second == nil {
		return nil, errors.New("join: nil translator")
	}
	if !primary.HasField(joinField) {
		return nil, exprannot.UnknownField(joinField, "join primary translator")
	}

	fields := primary.Fields()
	for _, f := range second.fields {
		if !primary.HasField(f) {
			fields = append(fields, f)
		}
	}

	t := &Translator{
		kind:         KindJoin,
		child:        primary,
		second:       second,
		joinField:    joinField,
		fallback:     fallback,
		defaultField: second.defaultField,
	}

	if second.defaultField != "" && primary.HasField(second.defaultField) {
		alias := JoinedField(second.defaultField, joinField)
		taken := make(map[string]struct{}, len(fields))
		for _, f := range fields {
			taken[f] = struct{}{}
		}
		for n := 2; ; n++ {
			if _, exists := taken[alias]; !exists {
				break
			}
			alias = JoinedField(second.defaultField, joinField) + "#" + strconv.Itoa(n)
		}
		fields = append(fields, alias)
		t.joinAlias = alias
		t.defaultField = alias
	}
	t.setFields(fields)

	return t, nil
}

// JoinedField names the field through which a Join exposes the default
// field of its second translator when the primary shadows that name.
func JoinedField(field, joinField string) string {
	return field + " via " + joinField
}

// Select restricts t to the allowed fields, in the order given. Every
// allowed field must be a field of t. The default field is t's when it is
// allowed, the first allowed field otherwise.
func Select(t *Translator, allow ...string) (*Translator, error) {
	if t == nil {
		return nil, errors.New("select: nil translator")
	}

	var fields []string
	seen := make(map[string]struct{}, len(allow))
	for _, f := range allow {
		if !t.HasField(f) {
			return nil, exprannot.UnknownField(f, "select over "+t.kind.String()+" translator")
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		fields = append(fields, f)
	}

	out := &Translator{kind: KindSelect, child: t}
	out.setFields(fields)

	switch {
	case out.HasField(t.defaultField):
		out.defaultField = t.defaultField
	case len(fields) > 0:
		out.defaultField = fields[0]
	}

	return out, nil
}

// AddIdentifier adds a field, listed first, whose value is the identifier
// itself. It hides a field of t with the same name. An empty name means
// DefaultIdentifierField.
func AddIdentifier(t *Translator, name string) (*Translator, error) {
	if t == nil {
		return nil, errors.New("add identifier: nil translator")
	}
	if name == "" {
		name = DefaultIdentifierField
	}

	fields := []string{name}
	for _, f := range t.fields {
		if f != name {
			fields = append(fields, f)
		}
	}

	out := &Translator{
		kind:         KindAddIdentifier,
		child:        t,
		idField:      name,
		defaultField: t.defaultField,
	}
	out.setFields(fields)
	if out.defaultField == "" {
		out.defaultField = name
	}

	return out, nil
}
