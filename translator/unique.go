package translator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/annotation"
)

const (
	// DefaultUniqueField names the field UniqueIdentifier adds when no name
	// is given.
	DefaultUniqueField = "UniqueId"

	// ReverseField is the field of the translator returned by Reverse.
	ReverseField = "OriginalId"
)

// Suffix chooses how identifiers sharing a translation are told apart.
type Suffix int

const (
	SuffixUnset Suffix = iota

	// SuffixIndex appends "#1", "#2", ... in the order the identifiers
	// were given.
	SuffixIndex

	// SuffixField appends "#" and the value of UniqueOptions.SecondaryField,
	// or "#" and the identifier when SecondaryField is empty.
	SuffixField
)

type UniqueOptions struct {
	// Field whose value is made unique. Empty means t's default field.
	Field string

	// Suffix must be set.
	Suffix Suffix

	// SecondaryField supplies suffixes for SuffixField.
	SecondaryField string

	// NewField names the added field. Empty means DefaultUniqueField.
	NewField string
}

// UniqueIdentifier gives each of ids a unique string derived from its
// translation by t. An identifier with no translation, or an empty one,
// stands for itself. Translations shared by several identifiers get a suffix
// chosen by opts.Suffix; if the result still collides, "#2", "#3", ... is
// appended until it does not.
//
// The new field is listed first, followed by t's fields, which are looked up
// with the original identifier.
func UniqueIdentifier(ids []string, t *Translator, opts UniqueOptions) (*Translator, error) {
	if t == nil {
		return nil, errors.New("unique identifier: nil translator")
	}

	switch opts.Suffix {
	case SuffixIndex, SuffixField:
	default:
		return nil, errors.New("unique identifier: suffix policy must be SuffixIndex or SuffixField")
	}

	field := opts.Field
	if field == "" {
		field = t.defaultField
	}
	if !t.HasField(field) {
		return nil, exprannot.UnknownField(field, "unique identifier source")
	}
	if opts.SecondaryField != "" {
		if opts.Suffix != SuffixField {
			return nil, errors.New("unique identifier: a secondary field needs SuffixField")
		}
		if !t.HasField(opts.SecondaryField) {
			return nil, exprannot.UnknownField(opts.SecondaryField, "unique identifier source")
		}
	}

	newField := opts.NewField
	if newField == "" {
		newField = DefaultUniqueField
	}

	var (
		order []string
		base  = make(map[string]string, len(ids))
		count = make(map[string]int, len(ids))
	)
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("unique identifier: position %d: %w", i, exprannot.ErrEmptyIdentifier)
		}
		if _, dup := base[id]; dup {
			continue
		}

		b := id
		if v := t.TranslateField(id, field); v.Valid && v.String != "" {
			b = v.String
		}
		base[id] = b
		count[b]++
		order = append(order, id)
	}

	var (
		unique  = make(map[string]string, len(order))
		reverse = make(map[string]string, len(order))
		nth     = make(map[string]int)
	)
	for _, id := range order {
		candidate := base[id]

		if count[candidate] > 1 {
			switch opts.Suffix {
			case SuffixIndex:
				nth[candidate]++
				candidate += "#" + strconv.Itoa(nth[candidate])
			case SuffixField:
				key := id
				if opts.SecondaryField != "" {
					if v := t.TranslateField(id, opts.SecondaryField); v.Valid && v.String != "" {
						key = v.String
					}
				}
				candidate += "#" + key
			}
		}

		if _, taken := reverse[candidate]; taken {
			for n := 2; ; n++ {
				next := candidate + "#" + strconv.Itoa(n)
				if _, taken := reverse[next]; !taken {
					candidate = next
					break
				}
			}
		}

		unique[id] = candidate
		reverse[candidate] = id
	}

	fields := []string{newField}
	for _, f := range t.fields {
		if f != newField {
			fields = append(fields, f)
		}
	}

	out := &Translator{
		kind:         KindUnique,
		child:        t,
		idField:      newField,
		defaultField: newField,
		ids:          order,
		unique:       unique,
		reverse:      reverse,
	}
	out.setFields(fields)

	return out, nil
}

// UniqueIDs returns the unique strings in the order the identifiers were
// given. It is nil unless t was built by UniqueIdentifier.
func (t *Translator) UniqueIDs() []string {
	if t.kind != KindUnique {
		return nil
	}

	out := make([]string, len(t.ids))
	for i, id := range t.ids {
		out[i] = t.unique[id]
	}
	return out
}

// Reverse returns a translator from the unique strings of a UniqueIdentifier
// translator back to the original identifiers, in field ReverseField.
func (t *Translator) Reverse() (*Translator, error) {
	if t.kind != KindUnique {
		return nil, fmt.Errorf("reverse: %s translator is not a unique identifier translator", t.kind)
	}

	b, err := annotation.NewBuilder(ReverseField)
	if err != nil {
		return nil, err
	}
	for _, id := range t.ids {
		if err := b.Add(t.unique[id], annotation.Record{ReverseField: id}); err != nil {
			return nil, err
		}
	}

	return newTable(KindTable, b.Build(), ReverseField)
}
