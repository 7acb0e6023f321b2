package design

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/carbocation/exprannot"
	"github.com/gocarina/gocsv"
)

// DateLayout is how WriteSheet prints hybridization dates.
const DateLayout = "2006-01-02"

type sheetRow struct {
	Slide     string `csv:"slide"`
	File      string `csv:"file"`
	Sample    string `csv:"sample"`
	Replicate string `csv:"replicate"`
	Date      string `csv:"date"`
}

// ReadSheet reads a tab-separated design sheet with the columns slide, file,
// sample, replicate and date. Only slide is required. Dates may be in any
// format dateparse understands.
func ReadSheet(r io.Reader) (*Design, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	rows := []*sheetRow{}
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, &exprannot.MalformedFileError{Reason: "unreadable design sheet", Err: err}
	}

	slides := make([]Slide, 0, len(rows))
	for i, row := range rows {
		s := Slide{
			Name:      strings.TrimSpace(row.Slide),
			File:      strings.TrimSpace(row.File),
			Sample:    strings.TrimSpace(row.Sample),
			Replicate: strings.TrimSpace(row.Replicate),
		}

		if date := strings.TrimSpace(row.Date); date != "" {
			t, err := dateparse.ParseAny(date)
			if err != nil {
				return nil, &exprannot.MalformedFileError{Line: i + 2, Reason: fmt.Sprintf("unparseable date %q", date), Err: err}
			}
			s.Date = t
		}

		slides = append(slides, s)
	}

	d, err := New(slides...)
	if err != nil {
		return nil, &exprannot.MalformedFileError{Reason: "bad slide names", Err: err}
	}

	return d, nil
}

// WriteSheet writes d in the layout ReadSheet reads.
func WriteSheet(w io.Writer, d *Design) error {
	rows := make([]*sheetRow, 0, d.Len())
	for _, s := range d.slides {
		row := &sheetRow{
			Slide:     s.Name,
			File:      s.File,
			Sample:    s.Sample,
			Replicate: s.Replicate,
		}
		if !s.Date.IsZero() {
			row.Date = s.Date.Format(DateLayout)
		}
		rows = append(rows, row)
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	return gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw))
}
