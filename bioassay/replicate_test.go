package bioassay

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/carbocation/exprannot"
	"gopkg.in/guregu/null.v3"
)

func TestReplicateMergerMedian(t *testing.T) {
	ids := []string{"p1", "p2", "p3"}
	r1 := mustAssay(t, "r1", ids, []float64{1, 4, math.NaN()}, []float64{10, 10, 10})
	r2 := mustAssay(t, "r2", ids, []float64{2, 5, math.NaN()}, []float64{12, 10, 10})
	r3 := mustAssay(t, "r3", ids, []float64{9, 6, math.NaN()}, []float64{20, 10, 10})
	r3.SetInts(FieldFlags, []null.Int{null.IntFrom(0), null.IntFrom(FlagBad), null.IntFrom(0)})

	out, err := ReplicateMerger{StdDev: true}.Merge("merged", r1, r2, r3)
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []struct {
		Row   int
		Field string
		Want  float64
	}{
		{0, FieldM, 2},
		{0, FieldA, 12},
		{1, FieldM, 4.5},
	} {
		if got := out.Row(v.Row).Float(v.Field); got != v.Want {
			t.Fatalf("row %d %s: expected %v, got %v", v.Row, v.Field, v.Want, got)
		}
	}

	if out.Row(2).Set(FieldM) {
		t.Fatal("a row without values must stay unset")
	}
	if !out.Row(0).Set(FieldStdDevM) || out.Row(0).Float(FieldStdDevM) <= 0 {
		t.Fatal("expected a positive spread for p1")
	}
}

func TestReplicateMergerMeanGroupBy(t *testing.T) {
	ids := []string{"geneA_1", "geneA_2", "geneB_1"}
	r1 := mustAssay(t, "r1", ids, []float64{1, 3, 5}, []float64{1, 1, 1})

	out, err := ReplicateMerger{
		Aggregate: AggregateMean,
		GroupBy:   func(id string) string { return strings.SplitN(id, "_", 2)[0] },
	}.Merge("merged", r1)
	if err != nil {
		t.Fatal(err)
	}

	if ids := out.IDs(); len(ids) != 2 || ids[0] != "geneA" || ids[1] != "geneB" {
		t.Fatalf("unexpected groups %v", ids)
	}
	if got := out.Row(0).Float(FieldM); got != 2 {
		t.Fatalf("expected mean 2, got %v", got)
	}
}

func TestReplicateMergerLayoutMismatch(t *testing.T) {
	r1 := mustAssay(t, "r1", []string{"p1", "p2"}, []float64{1, 2}, []float64{1, 2})
	r2 := mustAssay(t, "r2", []string{"p2", "p1"}, []float64{1, 2}, []float64{1, 2})

	if _, err := (ReplicateMerger{}).Merge("m", r1, r2); !errors.Is(err, exprannot.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParseAggregate(t *testing.T) {
	if a, err := ParseAggregate("mean"); err != nil || a != AggregateMean {
		t.Fatalf("unexpected %v %v", a, err)
	}
	if _, err := ParseAggregate("mode"); err == nil {
		t.Fatal("expected an error for an unknown aggregate")
	}
}
