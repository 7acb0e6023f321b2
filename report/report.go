// Package report writes expression data as tab-separated text, with
// annotation columns taken from a translator.
package report

import (
	"encoding/csv"
	"io"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/bioassay"
	"github.com/carbocation/exprannot/matrix"
	"github.com/carbocation/exprannot/translator"
)

// IDColumn heads the identifier column.
const IDColumn = "id"

// annotations validates fields against t. With a nil t there are no
// annotation columns; with no fields, all of t's fields are written.
func annotations(t *translator.Translator, fields []string) (*translator.Translator, error) {
	if t == nil {
		return nil, nil
	}
	if len(fields) == 0 {
		return t, nil
	}
	return translator.Select(t, fields...)
}

func annotate(rec []string, t *translator.Translator, id string) []string {
	if t == nil {
		return rec
	}
	for _, v := range t.TranslateAll(id) {
		rec = append(rec, v.String)
	}
	return rec
}

func header(t *translator.Translator, data []string) []string {
	out := []string{IDColumn}
	if t != nil {
		out = append(out, t.Fields()...)
	}
	return append(out, data...)
}

// WriteMatrix writes one row per identifier: the identifier, the requested
// annotation fields (empty when absent), then dim for each sample.
func WriteMatrix(w io.Writer, m *matrix.Matrix, dim string, t *translator.Translator, fields []string) error {
	t, err := annotations(t, fields)
	if err != nil {
		return err
	}

	if !m.HasDimension(dim) {
		return exprannot.UnknownField(dim, "matrix dimensions")
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(header(t, m.Columns())); err != nil {
		return err
	}

	for i, id := range m.Rows() {
		rec := annotate([]string{id}, t, id)
		for j := 0; j < m.NColumns(); j++ {
			rec = append(rec, bioassay.FormatFloat(m.At(dim, i, j)))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAssay writes one row per spot: the identifier, the requested
// annotation fields, then every field of b.
func WriteAssay(w io.Writer, b *bioassay.BioAssay, t *translator.Translator, fields []string) error {
	t, err := annotations(t, fields)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	data := b.Fields()
	if err := cw.Write(header(t, data)); err != nil {
		return err
	}

	for i := 0; i < b.Len(); i++ {
		row := b.Row(i)
		rec := annotate([]string{row.ID()}, t, row.ID())
		for _, f := range data {
			rec = append(rec, bioassay.FormatCell(row, f))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
