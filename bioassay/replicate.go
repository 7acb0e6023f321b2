package bioassay

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/exprannot"
	"github.com/carbocation/runningvariance"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/guregu/null.v3"
)

// Aggregate collapses several measurements of one spot into one value.
type Aggregate int

const (
	AggregateMedian Aggregate = iota
	AggregateMean
)

func (a Aggregate) String() string {
	if a == AggregateMean {
		return "mean"
	}
	return "median"
}

// ParseAggregate accepts "median" and "mean".
func ParseAggregate(s string) (Aggregate, error) {
	switch s {
	case "median":
		return AggregateMedian, nil
	case "mean":
		return AggregateMean, nil
	}
	return 0, fmt.Errorf("unknown aggregate %q, expected median or mean", s)
}

// Apply aggregates the non-NaN values of xs. It returns false when there are
// none.
func (a Aggregate) Apply(xs []float64) (float64, bool) {
	clean := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			clean = append(clean, x)
		}
	}
	if len(clean) == 0 {
		return math.NaN(), false
	}

	if a == AggregateMean {
		return stat.Mean(clean, nil), true
	}

	med, err := stats.Median(clean)
	if err != nil {
		return math.NaN(), false
	}
	return med, true
}

// ReplicateMerger combines replicate hybridizations of the same array layout
// into one BioAssay.
type ReplicateMerger struct {
	// Fields to aggregate. Defaults to m and a.
	Fields []string

	Aggregate Aggregate

	// StdDev adds stddevm and stddeva columns holding the spread of the
	// merged m and a values. Rows with fewer than two values leave it unset.
	StdDev bool

	// KeepFlagged keeps rows whose flags are negative. By default they are
	// left out of the aggregate.
	KeepFlagged bool

	// GroupBy, if set, maps each identifier to the identifier of its output
	// row, collapsing spots of the same probe. An empty result keeps the
	// original identifier.
	GroupBy func(id string) string
}

var stdDevFields = map[string]string{
	FieldM: FieldStdDevM,
	FieldA: FieldStdDevA,
}

// Merge returns a new BioAssay named name. Every replicate must list the
// same identifiers in the same order.
func (rm ReplicateMerger) Merge(name string, replicates ...*BioAssay) (*BioAssay, error) {
	if len(replicates) == 0 {
		return nil, errors.New("replicate merge: no assays")
	}

	first := replicates[0]
	for _, r := range replicates[1:] {
		if !sameLayout(first, r) {
			return nil, fmt.Errorf("replicate merge: %s and %s differ in layout: %w", first.Name(), r.Name(), exprannot.ErrDimensionMismatch)
		}
	}

	fields := rm.Fields
	if len(fields) == 0 {
		fields = []string{FieldM, FieldA}
	}
	for _, r := range replicates {
		for _, f := range fields {
			if !r.HasField(f) || r.Kind(f) == KindString {
				return nil, exprannot.UnknownField(f, "numeric columns of bioassay "+r.Name())
			}
		}
	}

	var (
		outIDs []string
		groups = make(map[string][]int)
	)
	for i, id := range first.ids {
		key := id
		if rm.GroupBy != nil {
			if k := rm.GroupBy(id); k != "" {
				key = k
			}
		}
		if _, seen := groups[key]; !seen {
			outIDs = append(outIDs, key)
		}
		groups[key] = append(groups[key], i)
	}

	out, err := New(name, outIDs)
	if err != nil {
		return nil, err
	}

	for _, f := range fields {
		merged := make([]null.Float, len(outIDs))
		var spread []null.Float
		sdField, wantSD := stdDevFields[f]
		wantSD = wantSD && rm.StdDev
		if wantSD {
			spread = make([]null.Float, len(outIDs))
		}

		for k, key := range outIDs {
			var xs []float64
			for _, r := range replicates {
				for _, i := range groups[key] {
					row := r.Row(i)
					if !rm.KeepFlagged {
						if flag := row.Int(FieldFlags); flag.Valid && flag.Int64 < 0 {
							continue
						}
					}
					if v := row.Float(f); !math.IsNaN(v) {
						xs = append(xs, v)
					}
				}
			}

			if v, ok := rm.Aggregate.Apply(xs); ok {
				merged[k] = null.FloatFrom(v)
			}

			if wantSD && len(xs) > 1 {
				rs := runningvariance.NewRunningStat()
				for _, x := range xs {
					rs.Push(x)
				}
				spread[k] = null.FloatFrom(rs.StandardDeviation())
			}
		}

		if err := out.SetFloatValues(f, merged); err != nil {
			return nil, err
		}
		if wantSD {
			if err := out.SetFloatValues(sdField, spread); err != nil {
				return nil, err
			}
		}
	}

	// The first listed description of a group describes the merged row.
	if first.Kind(FieldDescription) == KindString {
		desc := make([]null.String, len(outIDs))
		for k, key := range outIDs {
			for _, i := range groups[key] {
				if v := first.Row(i).String(FieldDescription); v.Valid {
					desc[k] = v
					break
				}
			}
		}
		if err := out.SetStrings(FieldDescription, desc); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func sameLayout(x, y *BioAssay) bool {
	if x.Len() != y.Len() {
		return false
	}
	for i := range x.ids {
		if x.ids[i] != y.ids[i] {
			return false
		}
	}
	return true
}
