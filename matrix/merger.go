package matrix

import (
	"errors"

	"github.com/carbocation/exprannot/bioassay"
)

// Merger accumulates matrices and collapses rows, columns and dimensions
// that share a name, or that were mapped to one with the Merge* methods.
// Coincident cells are aggregated with Aggregate, ignoring NaN. A Merger is
// not safe for concurrent use.
type Merger struct {
	Aggregate bioassay.Aggregate

	rowAlias map[string]string
	colAlias map[string]string
	dimAlias map[string]string
	matrices []*Matrix
}

func NewMerger(agg bioassay.Aggregate) *Merger {
	return &Merger{
		Aggregate: agg,
		rowAlias:  make(map[string]string),
		colAlias:  make(map[string]string),
		dimAlias:  make(map[string]string),
	}
}

func (mg *Merger) Add(m ...*Matrix) {
	mg.matrices = append(mg.matrices, m...)
}

// MergeRows makes the given row identifiers count as target.
func (mg *Merger) MergeRows(target string, ids ...string) {
	for _, id := range ids {
		mg.rowAlias[id] = target
	}
}

// MergeColumns makes the given columns count as target.
func (mg *Merger) MergeColumns(target string, names ...string) {
	for _, n := range names {
		mg.colAlias[n] = target
	}
}

// MergeDimensions makes the given dimensions count as target.
func (mg *Merger) MergeDimensions(target string, dims ...string) {
	for _, d := range dims {
		mg.dimAlias[d] = target
	}
}

func alias(m map[string]string, name string) string {
	if a, ok := m[name]; ok {
		return a
	}
	return name
}

type cell struct {
	dim      string
	row, col int
}

// Matrix builds the merged matrix. Rows, columns and dimensions appear in
// first-seen order.
func (mg *Merger) Matrix() (*Matrix, error) {
	if len(mg.matrices) == 0 {
		return nil, errors.New("merger: no matrices")
	}

	var rows, cols, dims []string
	rowPos := make(map[string]int)
	colPos := make(map[string]int)
	dimSeen := make(map[string]struct{})
	values := make(map[cell][]float64)

	for _, m := range mg.matrices {
		for _, d := range m.dims {
			target := alias(mg.dimAlias, d)
			if _, ok := dimSeen[target]; !ok {
				dimSeen[target] = struct{}{}
				dims = append(dims, target)
			}
		}
		for _, r := range m.rows {
			target := alias(mg.rowAlias, r)
			if _, ok := rowPos[target]; !ok {
				rowPos[target] = len(rows)
				rows = append(rows, target)
			}
		}
		for _, c := range m.columns {
			target := alias(mg.colAlias, c)
			if _, ok := colPos[target]; !ok {
				colPos[target] = len(cols)
				cols = append(cols, target)
			}
		}

		for _, d := range m.dims {
			src := m.data[d]
			dim := alias(mg.dimAlias, d)
			for i, r := range m.rows {
				ri := rowPos[alias(mg.rowAlias, r)]
				for j, c := range m.columns {
					k := cell{dim: dim, row: ri, col: colPos[alias(mg.colAlias, c)]}
					values[k] = append(values[k], src[i*len(m.columns)+j])
				}
			}
		}
	}

	out, err := newMatrix(rows, cols, dims)
	if err != nil {
		return nil, err
	}

	for k, xs := range values {
		if v, ok := mg.Aggregate.Apply(xs); ok {
			out.data[k.dim][k.row*len(cols)+k.col] = v
		}
	}

	return out, nil
}
