package filter

import (
	"math"

	"github.com/carbocation/exprannot/matrix"
)

// ValueTest checks single matrix cells of one dimension. Threshold is a
// ValueTest.
type ValueTest interface {
	Dimension() string
	Test(v float64) bool
}

// Limit bounds how many cells of a row or column may fail before the whole
// row or column is rejected. The zero Limit rejects on the first failure.
// When both are set, exceeding either rejects.
type Limit struct {
	// Fraction of cells allowed to fail.
	Fraction float64

	// Count of cells allowed to fail.
	Count int
}

func (l Limit) exceeded(failing, n int) bool {
	if l.Fraction <= 0 && l.Count <= 0 {
		return failing > 0
	}
	if l.Count > 0 && failing > l.Count {
		return true
	}
	if l.Fraction > 0 && float64(failing) > l.Fraction*float64(n)+1e-9 {
		return true
	}
	return false
}

type vectorFilter struct {
	test  ValueTest
	limit Limit
}

func (f vectorFilter) Dimension() string { return f.test.Dimension() }

func (f vectorFilter) keep(values []float64) bool {
	failing := 0
	for _, v := range values {
		if !f.test.Test(v) {
			failing++
		}
	}
	return !f.limit.exceeded(failing, len(values))
}

type rowFilter struct{ vectorFilter }

func (f rowFilter) KeepRow(values []float64) bool { return f.keep(values) }

type columnFilter struct{ vectorFilter }

func (f columnFilter) KeepColumn(values []float64) bool { return f.keep(values) }

// Rows rejects a matrix row when more of its cells fail test than limit
// allows.
func Rows(test ValueTest, limit Limit) matrix.RowFilter {
	return rowFilter{vectorFilter{test: test, limit: limit}}
}

// Columns rejects a matrix column when more of its cells fail test than
// limit allows.
func Columns(test ValueTest, limit Limit) matrix.ColumnFilter {
	return columnFilter{vectorFilter{test: test, limit: limit}}
}

type notNaN string

// NotNaN passes every defined value of dim.
func NotNaN(dim string) ValueTest { return notNaN(dim) }

func (n notNaN) Dimension() string { return string(n) }

func (notNaN) Test(v float64) bool { return !math.IsNaN(v) }

// DefaultRate is the share of samples MThresholdRows and MFloorRows require
// by default.
const DefaultRate = 2.0 / 3.0

// NARows rejects m rows where more than maxFraction of the samples are NaN.
func NARows(maxFraction float64) matrix.RowFilter {
	return Rows(NotNaN(matrix.DimensionM), Limit{Fraction: maxFraction})
}

// MThresholdRows keeps m rows where at least rate of the samples have
// |m| >= threshold (m >= threshold when absolute is false).
func MThresholdRows(threshold, rate float64, absolute bool) matrix.RowFilter {
	return Rows(Threshold{Field: matrix.DimensionM, Value: threshold, Cmp: GreaterEqual, Absolute: absolute}, rateLimit(rate))
}

// MFloorRows keeps m rows where at least rate of the samples have
// |m| <= threshold (m <= threshold when absolute is false).
func MFloorRows(threshold, rate float64, absolute bool) matrix.RowFilter {
	return Rows(Threshold{Field: matrix.DimensionM, Value: threshold, Cmp: LessEqual, Absolute: absolute}, rateLimit(rate))
}

// rateLimit turns a required passing share into a failing allowance.
func rateLimit(rate float64) Limit {
	if rate >= 1 {
		return Limit{}
	}
	if rate <= 0 {
		return Limit{Fraction: 1}
	}
	return Limit{Fraction: 1 - rate}
}
