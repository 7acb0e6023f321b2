package matrix

import (
	"fmt"
	"math"

	"github.com/carbocation/exprannot"
	"gonum.org/v1/gonum/stat"
)

type Axis int

const (
	// ByRow transforms each row across samples.
	ByRow Axis = iota

	// ByColumn transforms each sample across rows.
	ByColumn
)

// Center subtracts from each row (or column) of dim the mean of its non-NaN
// values. NaN cells stay NaN, and a vector with no values is left as is.
func Center(m *Matrix, dim string, axis Axis) (*Matrix, error) {
	return m.transform(dim, axis, func(name string, v []float64) error {
		xs := present(v)
		if len(xs) == 0 {
			return nil
		}

		mean := stat.Mean(xs, nil)
		for i := range v {
			v[i] -= mean
		}
		return nil
	})
}

// Scale divides each row (or column) of dim by the sample standard deviation
// of its non-NaN values. A vector with a single value, or whose values are
// all equal, is ErrZeroVariance.
func Scale(m *Matrix, dim string, axis Axis) (*Matrix, error) {
	return m.transform(dim, axis, func(name string, v []float64) error {
		xs := present(v)
		if len(xs) == 0 {
			return nil
		}
		if len(xs) < 2 {
			return fmt.Errorf("scale %s: one value: %w", name, exprannot.ErrZeroVariance)
		}

		sd := stat.StdDev(xs, nil)
		if sd == 0 || math.IsNaN(sd) {
			return fmt.Errorf("scale %s: %w", name, exprannot.ErrZeroVariance)
		}
		for i := range v {
			v[i] /= sd
		}
		return nil
	})
}

// transform copies m and applies fn to every row or column of dim. fn edits
// the vector in place.
func (m *Matrix) transform(dim string, axis Axis, fn func(name string, v []float64) error) (*Matrix, error) {
	if _, err := m.cells(dim); err != nil {
		return nil, err
	}

	out := m.subset(m.allRows(), m.allColumns())
	cells := out.data[dim]
	n := len(out.columns)

	switch axis {
	case ByRow:
		for i, id := range out.rows {
			if err := fn(id, cells[i*n:(i+1)*n]); err != nil {
				return nil, err
			}
		}
	case ByColumn:
		for j, name := range out.columns {
			v := out.column(cells, j)
			if err := fn(name, v); err != nil {
				return nil, err
			}
			for i, x := range v {
				cells[i*n+j] = x
			}
		}
	default:
		return nil, fmt.Errorf("unknown axis %d", axis)
	}

	return out, nil
}
