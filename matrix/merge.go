package matrix

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/bioassay"
)

// Policy selects which identifiers a merge keeps.
type Policy int

const (
	// Union keeps every identifier found in any source.
	Union Policy = iota

	// Intersection keeps identifiers found in every source.
	Intersection
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "union":
		return Union, nil
	case "intersection":
		return Intersection, nil
	}
	return 0, fmt.Errorf("unknown merge policy %q, expected union or intersection", s)
}

type MergeOptions struct {
	// Dimensions to merge, each read from the source field of the same name.
	// Defaults to m.
	Dimensions []string

	Policy Policy
}

// Merge builds one column per source, named after the source. Rows are
// ordered by first appearance across the sources in the order listed. A
// source that lacks an identifier contributes NaN for it.
func Merge(sources []*bioassay.BioAssay, opts MergeOptions) (*Matrix, error) {
	if len(sources) == 0 {
		return nil, errors.New("merge: no sources")
	}

	dims := opts.Dimensions
	if len(dims) == 0 {
		dims = []string{DimensionM}
	}

	columns := make([]string, len(sources))
	for k, s := range sources {
		if s == nil {
			return nil, fmt.Errorf("merge: source %d is nil", k)
		}
		for _, d := range dims {
			if !s.HasField(d) || s.Kind(d) == bioassay.KindString {
				return nil, exprannot.UnknownField(d, "numeric columns of bioassay "+s.Name())
			}
		}
		columns[k] = s.Name()
	}

	var (
		rows  []string
		count = make(map[string]int)
	)
	for _, s := range sources {
		for _, id := range s.IDs() {
			if count[id] == 0 {
				rows = append(rows, id)
			}
			count[id]++
		}
	}

	if opts.Policy == Intersection {
		kept := rows[:0]
		for _, id := range rows {
			if count[id] == len(sources) {
				kept = append(kept, id)
			}
		}
		rows = kept
	}

	m, err := newMatrix(rows, columns, dims)
	if err != nil {
		// Duplicate or empty source names surface here.
		return nil, fmt.Errorf("merge: %w", err)
	}

	for j, s := range sources {
		for _, d := range dims {
			values, err := s.Floats(d)
			if err != nil {
				return nil, err
			}
			cells := m.data[d]
			for k, id := range s.IDs() {
				i, ok := m.rowIndex[id]
				if !ok {
					continue
				}
				cells[i*len(columns)+j] = values[k]
			}
		}
	}

	return m, nil
}

// present reports the non-NaN values of xs.
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}
