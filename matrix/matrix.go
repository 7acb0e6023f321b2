// Package matrix holds expression matrices: rows are identifiers, columns
// are samples, and each named dimension (m, a, ...) stores one value per
// cell. NaN marks a missing cell. Matrices are immutable; every operation
// returns a new one.
package matrix

import (
	"fmt"
	"math"
	"sort"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/bioassay"
	"gopkg.in/guregu/null.v3"
)

const (
	DimensionM = bioassay.FieldM
	DimensionA = bioassay.FieldA
)

// RowFilter decides from one row of one dimension whether to keep the row.
type RowFilter interface {
	Dimension() string
	KeepRow(values []float64) bool
}

// ColumnFilter decides from one column of one dimension whether to keep the
// column.
type ColumnFilter interface {
	Dimension() string
	KeepColumn(values []float64) bool
}

type Matrix struct {
	rows     []string
	rowIndex map[string]int
	columns  []string
	colIndex map[string]int
	dims     []string

	// data[dim] is row-major, len(rows)*len(columns).
	data map[string][]float64
}

func index(names []string, what string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("matrix %s %d: %w", what, i, exprannot.ErrEmptyIdentifier)
		}
		if _, dup := out[n]; dup {
			return nil, fmt.Errorf("matrix %s: %w %q", what, exprannot.ErrDuplicateIdentifier, n)
		}
		out[n] = i
	}
	return out, nil
}

// newMatrix allocates a matrix of NaN.
func newMatrix(rows, columns, dims []string) (*Matrix, error) {
	ri, err := index(rows, "row")
	if err != nil {
		return nil, err
	}
	ci, err := index(columns, "column")
	if err != nil {
		return nil, err
	}
	if _, err := index(dims, "dimension"); err != nil {
		return nil, err
	}

	m := &Matrix{
		rows:     append([]string(nil), rows...),
		rowIndex: ri,
		columns:  append([]string(nil), columns...),
		colIndex: ci,
		dims:     append([]string(nil), dims...),
		data:     make(map[string][]float64, len(dims)),
	}
	for _, d := range dims {
		cells := make([]float64, len(rows)*len(columns))
		for i := range cells {
			cells[i] = math.NaN()
		}
		m.data[d] = cells
	}

	return m, nil
}

// FromValues builds a matrix from values[dim][row][column].
func FromValues(rows, columns []string, values map[string][][]float64) (*Matrix, error) {
	dims := make([]string, 0, len(values))
	for d := range values {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	m, err := newMatrix(rows, columns, dims)
	if err != nil {
		return nil, err
	}

	for d, grid := range values {
		if len(grid) != len(rows) {
			return nil, fmt.Errorf("dimension %s: %d rows for %d identifiers: %w", d, len(grid), len(rows), exprannot.ErrDimensionMismatch)
		}
		for i, row := range grid {
			if len(row) != len(columns) {
				return nil, fmt.Errorf("dimension %s row %s: %d values for %d columns: %w", d, rows[i], len(row), len(columns), exprannot.ErrDimensionMismatch)
			}
			copy(m.data[d][i*len(columns):], row)
		}
	}

	return m, nil
}

func (m *Matrix) Rows() []string       { return append([]string(nil), m.rows...) }
func (m *Matrix) Columns() []string    { return append([]string(nil), m.columns...) }
func (m *Matrix) Dimensions() []string { return append([]string(nil), m.dims...) }

func (m *Matrix) NRows() int    { return len(m.rows) }
func (m *Matrix) NColumns() int { return len(m.columns) }

func (m *Matrix) HasDimension(dim string) bool {
	_, ok := m.data[dim]
	return ok
}

func (m *Matrix) cells(dim string) ([]float64, error) {
	c, ok := m.data[dim]
	if !ok {
		return nil, exprannot.UnknownField(dim, "matrix dimensions")
	}
	return c, nil
}

// At returns the value at row i, column j of dim, or NaN when dim is unknown.
func (m *Matrix) At(dim string, i, j int) float64 {
	c, ok := m.data[dim]
	if !ok {
		return math.NaN()
	}
	return c[i*len(m.columns)+j]
}

// Value returns the value for a row identifier and column name, or NaN when
// any of them is unknown.
func (m *Matrix) Value(dim, row, column string) float64 {
	i, ok := m.rowIndex[row]
	if !ok {
		return math.NaN()
	}
	j, ok := m.colIndex[column]
	if !ok {
		return math.NaN()
	}
	return m.At(dim, i, j)
}

// Row returns a copy of one row of dim.
func (m *Matrix) Row(dim, id string) ([]float64, error) {
	c, err := m.cells(dim)
	if err != nil {
		return nil, err
	}
	i, ok := m.rowIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w %q in matrix rows", exprannot.ErrMissingIdentifier, id)
	}

	n := len(m.columns)
	return append([]float64(nil), c[i*n:(i+1)*n]...), nil
}

// Column returns a copy of one column of dim.
func (m *Matrix) Column(dim, name string) ([]float64, error) {
	c, err := m.cells(dim)
	if err != nil {
		return nil, err
	}
	j, ok := m.colIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w %q in matrix columns", exprannot.ErrMissingIdentifier, name)
	}

	return m.column(c, j), nil
}

func (m *Matrix) row(c []float64, i int) []float64 {
	n := len(m.columns)
	return c[i*n : (i+1)*n]
}

func (m *Matrix) column(c []float64, j int) []float64 {
	out := make([]float64, len(m.rows))
	for i := range out {
		out[i] = c[i*len(m.columns)+j]
	}
	return out
}

// ColumnAssay returns one sample as a BioAssay named after the column, with
// one float field per dimension. NaN cells are unset.
func (m *Matrix) ColumnAssay(name string) (*bioassay.BioAssay, error) {
	j, ok := m.colIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w %q in matrix columns", exprannot.ErrMissingIdentifier, name)
	}

	b, err := bioassay.New(name, m.rows)
	if err != nil {
		return nil, err
	}

	for _, d := range m.dims {
		col := m.column(m.data[d], j)
		values := make([]null.Float, len(col))
		for i, v := range col {
			if !math.IsNaN(v) {
				values[i] = null.FloatFrom(v)
			}
		}
		if err := b.SetFloatValues(d, values); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// subset copies the given rows and columns, by index.
func (m *Matrix) subset(rows, cols []int) *Matrix {
	out := &Matrix{
		rows:     make([]string, len(rows)),
		rowIndex: make(map[string]int, len(rows)),
		columns:  make([]string, len(cols)),
		colIndex: make(map[string]int, len(cols)),
		dims:     append([]string(nil), m.dims...),
		data:     make(map[string][]float64, len(m.dims)),
	}
	for k, i := range rows {
		out.rows[k] = m.rows[i]
		out.rowIndex[m.rows[i]] = k
	}
	for k, j := range cols {
		out.columns[k] = m.columns[j]
		out.colIndex[m.columns[j]] = k
	}

	for _, d := range m.dims {
		src := m.data[d]
		dst := make([]float64, len(rows)*len(cols))
		for a, i := range rows {
			for b, j := range cols {
				dst[a*len(cols)+b] = src[i*len(m.columns)+j]
			}
		}
		out.data[d] = dst
	}

	return out
}

func (m *Matrix) allRows() []int    { return identity(len(m.rows)) }
func (m *Matrix) allColumns() []int { return identity(len(m.columns)) }

// SubsetRows keeps the named rows, in the order given.
func (m *Matrix) SubsetRows(ids []string) (*Matrix, error) {
	rows := make([]int, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for k, id := range ids {
		i, ok := m.rowIndex[id]
		if !ok {
			return nil, fmt.Errorf("%w %q in matrix rows", exprannot.ErrMissingIdentifier, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("subset rows: %w %q", exprannot.ErrDuplicateIdentifier, id)
		}
		seen[id] = struct{}{}
		rows[k] = i
	}
	return m.subset(rows, m.allColumns()), nil
}

// SubsetColumns keeps the named columns, in the order given.
func (m *Matrix) SubsetColumns(names []string) (*Matrix, error) {
	cols := make([]int, len(names))
	seen := make(map[string]struct{}, len(names))
	for k, name := range names {
		j, ok := m.colIndex[name]
		if !ok {
			return nil, fmt.Errorf("%w %q in matrix columns", exprannot.ErrMissingIdentifier, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("subset columns: %w %q", exprannot.ErrDuplicateIdentifier, name)
		}
		seen[name] = struct{}{}
		cols[k] = j
	}
	return m.subset(m.allRows(), cols), nil
}

// FilterRows keeps the rows f accepts, in order.
func (m *Matrix) FilterRows(f RowFilter) (*Matrix, error) {
	c, err := m.cells(f.Dimension())
	if err != nil {
		return nil, err
	}

	var rows []int
	for i := range m.rows {
		if f.KeepRow(append([]float64(nil), m.row(c, i)...)) {
			rows = append(rows, i)
		}
	}

	return m.subset(rows, m.allColumns()), nil
}

// FilterColumns keeps the columns f accepts, in order.
func (m *Matrix) FilterColumns(f ColumnFilter) (*Matrix, error) {
	c, err := m.cells(f.Dimension())
	if err != nil {
		return nil, err
	}

	var cols []int
	for j := range m.columns {
		if f.KeepColumn(m.column(c, j)) {
			cols = append(cols, j)
		}
	}

	return m.subset(m.allRows(), cols), nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
