package translator

import (
	"context"
	"errors"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/annotation"
	"github.com/carbocation/exprannot/bioassay"
	"github.com/carbocation/exprannot/design"
)

// DescriptionField is the sole field of a description translator.
const DescriptionField = "description"

func newTable(kind Kind, table annotation.Table, defaultField string) (*Translator, error) {
	if table == nil {
		return nil, errors.New("translator: nil annotation table")
	}

	t := &Translator{kind: kind, table: table}
	t.setFields(table.Fields())

	switch {
	case defaultField != "":
		if !t.HasField(defaultField) {
			return nil, exprannot.UnknownField(defaultField, kind.String()+" translator")
		}
		t.defaultField = defaultField
	case len(t.fields) > 0:
		t.defaultField = t.fields[0]
	}

	return t, nil
}

// FromSource wraps any annotation table. An empty defaultField selects the
// table's own default field (see annotation.DefaultFielder), or else its
// first field.
func FromSource(table annotation.Table, defaultField string) (*Translator, error) {
	if df, ok := table.(annotation.DefaultFielder); ok && defaultField == "" {
		defaultField = df.DefaultField()
	}
	return newTable(KindTable, table, defaultField)
}

// NewMultiColumn wraps a table read from a delimited annotation file. The
// default field is the first annotation column.
func NewMultiColumn(src *annotation.Source) (*Translator, error) {
	return newTable(KindMultiColumn, src, "")
}

// LoadMultiColumn reads a delimited annotation file into a translator.
func LoadMultiColumn(ctx context.Context, path string, opts annotation.DelimitedOptions) (*Translator, error) {
	src, err := annotation.LoadDelimited(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return NewMultiColumn(src)
}

// NewFasta wraps a table read from a FASTA file. Its field is
// annotation.FastaField.
func NewFasta(src *annotation.Source) (*Translator, error) {
	if !src.HasField(annotation.FastaField) {
		return nil, exprannot.UnknownField(annotation.FastaField, "fasta source")
	}
	return newTable(KindFasta, src, annotation.FastaField)
}

func LoadFasta(ctx context.Context, path string) (*Translator, error) {
	src, err := annotation.LoadFasta(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewFasta(src)
}

// NewDescription translates identifiers to the description column of the
// given assays. When several assays describe the same identifier, the first
// listed wins. Rows without a description are skipped.
func NewDescription(assays ...*bioassay.BioAssay) (*Translator, error) {
	b, err := annotation.NewBuilder(DescriptionField)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, assay := range assays {
		if assay == nil {
			continue
		}
		if !assay.HasField(bioassay.FieldDescription) {
			return nil, exprannot.UnknownField(bioassay.FieldDescription, "bioassay "+assay.Name())
		}

		desc, err := assay.Strings(bioassay.FieldDescription)
		if err != nil {
			return nil, err
		}

		for i, id := range assay.IDs() {
			if !desc[i].Valid {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if err := b.Add(id, annotation.Record{DescriptionField: desc[i].String}); err != nil {
				return nil, err
			}
		}
	}

	return newTable(KindDescription, b.Build(), DescriptionField)
}

// NewDesignDescription is NewDescription over the loaded assays of d.
func NewDesignDescription(d *design.Design) (*Translator, error) {
	return NewDescription(d.Assays()...)
}
