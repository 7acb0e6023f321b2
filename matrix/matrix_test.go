package matrix

import (
	"errors"
	"math"
	"testing"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/exprannot/bioassay"
)

var nan = math.NaN()

func assay(t *testing.T, name string, ids []string, m []float64) *bioassay.BioAssay {
	t.Helper()

	b, err := bioassay.New(name, ids)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetFloats(bioassay.FieldM, m); err != nil {
		t.Fatal(err)
	}
	return b
}

func same(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.IsNaN(x) && math.IsNaN(y)
	}
	return math.Abs(x-y) < 1e-9
}

func checkRow(t *testing.T, m *Matrix, dim, id string, want ...float64) {
	t.Helper()

	got, err := m.Row(dim, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("row %s: expected %v, got %v", id, want, got)
	}
	for i := range want {
		if !same(got[i], want[i]) {
			t.Fatalf("row %s: expected %v, got %v", id, want, got)
		}
	}
}

func TestMergeUnion(t *testing.T) {
	a := assay(t, "A", []string{"x", "y"}, []float64{1, 2})
	b := assay(t, "B", []string{"x", "z"}, []float64{3, 4})

	m, err := Merge([]*bioassay.BioAssay{a, b}, MergeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if cols := m.Columns(); len(cols) != 2 || cols[0] != "A" || cols[1] != "B" {
		t.Fatalf("unexpected columns %v", cols)
	}
	if rows := m.Rows(); len(rows) != 3 || rows[0] != "x" || rows[1] != "y" || rows[2] != "z" {
		t.Fatalf("unexpected rows %v", rows)
	}

	checkRow(t, m, DimensionM, "x", 1, 3)
	checkRow(t, m, DimensionM, "y", 2, nan)
	checkRow(t, m, DimensionM, "z", nan, 4)

	// A cell is defined exactly where its source had the identifier.
	for _, src := range []*bioassay.BioAssay{a, b} {
		for _, id := range m.Rows() {
			_, has := src.Index(id)
			if got := !math.IsNaN(m.Value(DimensionM, id, src.Name())); got != has {
				t.Fatalf("%s/%s: defined=%v but present=%v", id, src.Name(), got, has)
			}
		}
	}
}

func TestMergeIntersectionAndDimensions(t *testing.T) {
	a := assay(t, "A", []string{"x", "y"}, []float64{1, 2})
	a.SetFloats(bioassay.FieldA, []float64{10, 20})
	b := assay(t, "B", []string{"y", "x", "z"}, []float64{3, 4, 5})
	b.SetFloats(bioassay.FieldA, []float64{30, 40, 50})

	m, err := Merge([]*bioassay.BioAssay{a, b}, MergeOptions{
		Dimensions: []string{DimensionM, DimensionA},
		Policy:     Intersection,
	})
	if err != nil {
		t.Fatal(err)
	}

	if rows := m.Rows(); len(rows) != 2 || rows[0] != "x" || rows[1] != "y" {
		t.Fatalf("unexpected rows %v", rows)
	}
	checkRow(t, m, DimensionA, "x", 10, 40)
	checkRow(t, m, DimensionM, "y", 2, 3)
}

func TestMergeErrors(t *testing.T) {
	a := assay(t, "A", []string{"x"}, []float64{1})
	again := assay(t, "A", []string{"y"}, []float64{2})

	if _, err := Merge([]*bioassay.BioAssay{a, again}, MergeOptions{}); !errors.Is(err, exprannot.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}
	if _, err := Merge([]*bioassay.BioAssay{a}, MergeOptions{Dimensions: []string{DimensionA}}); !errors.Is(err, exprannot.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := Merge(nil, MergeOptions{}); err == nil {
		t.Fatal("expected an error for no sources")
	}
}

func grid(t *testing.T, values [][]float64) *Matrix {
	t.Helper()

	m, err := FromValues([]string{"r1", "r2"}, []string{"c1", "c2", "c3"}, map[string][][]float64{DimensionM: values})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestCenter(t *testing.T) {
	m := grid(t, [][]float64{{1, 2, 3}, {nan, 4, 8}})

	byRow, err := Center(m, DimensionM, ByRow)
	if err != nil {
		t.Fatal(err)
	}
	checkRow(t, byRow, DimensionM, "r1", -1, 0, 1)
	checkRow(t, byRow, DimensionM, "r2", nan, -2, 2)

	byCol, err := Center(m, DimensionM, ByColumn)
	if err != nil {
		t.Fatal(err)
	}
	checkRow(t, byCol, DimensionM, "r1", 0, -1, -2.5)
	checkRow(t, byCol, DimensionM, "r2", nan, 1, 2.5)

	// The source is untouched.
	checkRow(t, m, DimensionM, "r1", 1, 2, 3)
}

func TestScale(t *testing.T) {
	m := grid(t, [][]float64{{1, 2, 3}, {nan, 4, 8}})

	s, err := Scale(m, DimensionM, ByRow)
	if err != nil {
		t.Fatal(err)
	}
	checkRow(t, s, DimensionM, "r1", 1, 2, 3)
	checkRow(t, s, DimensionM, "r2", nan, 4/math.Sqrt(8), 8/math.Sqrt(8))

	flat := grid(t, [][]float64{{1, 2, 3}, {5, 5, 5}})
	if _, err := Scale(flat, DimensionM, ByRow); !errors.Is(err, exprannot.ErrZeroVariance) {
		t.Fatalf("expected ErrZeroVariance, got %v", err)
	}

	single := grid(t, [][]float64{{1, 2, 3}, {nan, 4, nan}})
	if _, err := Scale(single, DimensionM, ByRow); !errors.Is(err, exprannot.ErrZeroVariance) {
		t.Fatalf("expected ErrZeroVariance, got %v", err)
	}

	if _, err := Scale(m, DimensionA, ByRow); !errors.Is(err, exprannot.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

type keepComplete struct{}

func (keepComplete) Dimension() string { return DimensionM }

func (keepComplete) KeepRow(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return false
		}
	}
	return true
}

func (k keepComplete) KeepColumn(v []float64) bool { return k.KeepRow(v) }

func TestFilterRowsAndColumns(t *testing.T) {
	m := grid(t, [][]float64{{1, 2, 3}, {nan, 4, 8}})

	rows, err := m.FilterRows(keepComplete{})
	if err != nil {
		t.Fatal(err)
	}
	if r := rows.Rows(); len(r) != 1 || r[0] != "r1" {
		t.Fatalf("unexpected rows %v", r)
	}

	cols, err := m.FilterColumns(keepComplete{})
	if err != nil {
		t.Fatal(err)
	}
	if c := cols.Columns(); len(c) != 2 || c[0] != "c2" || c[1] != "c3" {
		t.Fatalf("unexpected columns %v", c)
	}
	checkRow(t, cols, DimensionM, "r2", 4, 8)
}

func TestColumnAssay(t *testing.T) {
	m := grid(t, [][]float64{{1, 2, 3}, {nan, 4, 8}})

	b, err := m.ColumnAssay("c1")
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "c1" || b.Len() != 2 {
		t.Fatalf("unexpected assay %s with %d rows", b.Name(), b.Len())
	}
	if v := b.Row(0).Float(bioassay.FieldM); v != 1 {
		t.Fatalf("unexpected value %v", v)
	}
	if b.Row(1).Set(bioassay.FieldM) {
		t.Fatal("a missing cell must be unset")
	}
}

func TestSubset(t *testing.T) {
	m := grid(t, [][]float64{{1, 2, 3}, {nan, 4, 8}})

	s, err := m.SubsetColumns([]string{"c3", "c1"})
	if err != nil {
		t.Fatal(err)
	}
	checkRow(t, s, DimensionM, "r1", 3, 1)

	if _, err := m.SubsetRows([]string{"r9"}); !errors.Is(err, exprannot.ErrMissingIdentifier) {
		t.Fatalf("expected ErrMissingIdentifier, got %v", err)
	}
}

func TestMerger(t *testing.T) {
	m1, _ := FromValues([]string{"p1", "p2"}, []string{"s1"}, map[string][][]float64{DimensionM: {{1}, {2}}})
	m2, _ := FromValues([]string{"p1", "p3"}, []string{"s1", "s2"}, map[string][][]float64{DimensionM: {{3, 10}, {nan, 20}}})
	m3, _ := FromValues([]string{"p1"}, []string{"s1"}, map[string][][]float64{DimensionM: {{8}}})

	mg := NewMerger(bioassay.AggregateMedian)
	mg.Add(m1, m2, m3)
	mg.MergeRows("P", "p2", "p3")

	out, err := mg.Matrix()
	if err != nil {
		t.Fatal(err)
	}

	if rows := out.Rows(); len(rows) != 2 || rows[0] != "p1" || rows[1] != "P" {
		t.Fatalf("unexpected rows %v", rows)
	}
	checkRow(t, out, DimensionM, "p1", 3, 10)
	checkRow(t, out, DimensionM, "P", 2, 20)

	mean := NewMerger(bioassay.AggregateMean)
	mean.Add(m1, m2, m3)
	mean.MergeColumns("all", "s1", "s2")
	out, err = mean.Matrix()
	if err != nil {
		t.Fatal(err)
	}
	checkRow(t, out, DimensionM, "p1", 5.5)
}
