package bioassay

import (
	"math"
	"sort"

	"github.com/carbocation/exprannot"
)

// compareDescending orders larger values first and NaN last.
func compareDescending(x, y float64) int {
	xn, yn := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xn && yn:
		return 0
	case xn:
		return 1
	case yn:
		return -1
	case x > y:
		return -1
	case x < y:
		return 1
	}
	return 0
}

// SortMA returns a copy of b ordered by descending m, then descending a.
// Unset and NaN values sort last. Rows equal on both keys keep their order.
func SortMA(b *BioAssay) (*BioAssay, error) {
	m, err := b.Floats(FieldM)
	if err != nil {
		return nil, err
	}
	a, err := b.Floats(FieldA)
	if err != nil {
		return nil, err
	}

	order := identity(b.Len())
	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := order[i], order[j]
		if c := compareDescending(m[ri], m[rj]); c != 0 {
			return c < 0
		}
		return compareDescending(a[ri], a[rj]) < 0
	})

	return b.Subset(order)
}

// SortBy returns a copy of b ordered on one numeric field, NaN and unset
// last in either direction.
func SortBy(b *BioAssay, field string, descending bool) (*BioAssay, error) {
	if !b.HasField(field) || b.Kind(field) == KindString {
		return nil, exprannot.UnknownField(field, "numeric columns of bioassay "+b.Name())
	}

	v, err := b.Floats(field)
	if err != nil {
		return nil, err
	}

	order := identity(b.Len())
	sort.SliceStable(order, func(i, j int) bool {
		x, y := v[order[i]], v[order[j]]
		if !descending && !math.IsNaN(x) && !math.IsNaN(y) {
			return x < y
		}
		return compareDescending(x, y) < 0
	})

	return b.Subset(order)
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
