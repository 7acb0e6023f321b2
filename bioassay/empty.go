package bioassay

import "strings"

// EmptyTester decides whether a row holds no usable spot.
type EmptyTester interface {
	Empty(Row) bool
}

// FieldEmptyTester treats a row as empty when every one of Fields that the
// table carries is unset, or when the row's description is one of Markers
// (case-insensitive). A table carrying none of Fields is judged on Markers
// alone.
type FieldEmptyTester struct {
	Fields  []string
	Markers []string
}

// DefaultEmptyTester checks the red, green, m and a measurements and the
// "empty" description marker.
var DefaultEmptyTester EmptyTester = FieldEmptyTester{
	Fields:  []string{FieldRed, FieldGreen, FieldM, FieldA},
	Markers: []string{"empty"},
}

func (t FieldEmptyTester) Empty(r Row) bool {
	if desc := r.String(FieldDescription); desc.Valid {
		for _, m := range t.Markers {
			if strings.EqualFold(strings.TrimSpace(desc.String), m) {
				return true
			}
		}
	}

	seen := 0
	for _, f := range t.Fields {
		if !r.b.HasField(f) {
			continue
		}
		seen++
		if r.Set(f) {
			return false
		}
	}

	return seen > 0
}
