package filter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/carbocation/exprannot/bioassay"
)

type Comparator int

const (
	Less Comparator = iota + 1
	LessEqual
	Equal
	NotEqual
	GreaterEqual
	Greater
)

var comparatorSymbols = map[Comparator]string{
	Less:         "<",
	LessEqual:    "<=",
	Equal:        "=",
	NotEqual:     "!=",
	GreaterEqual: ">=",
	Greater:      ">",
}

func (c Comparator) String() string {
	if s, ok := comparatorSymbols[c]; ok {
		return s
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

// ParseComparator accepts <, <=, =, ==, !=, >= and >.
func ParseComparator(s string) (Comparator, error) {
	switch strings.TrimSpace(s) {
	case "<":
		return Less, nil
	case "<=":
		return LessEqual, nil
	case "=", "==":
		return Equal, nil
	case "!=":
		return NotEqual, nil
	case ">=":
		return GreaterEqual, nil
	case ">":
		return Greater, nil
	}
	return 0, fmt.Errorf("unknown comparator %q", s)
}

// Compare reports whether v c t holds. It is false whenever v or t is NaN,
// including for NotEqual.
func (c Comparator) Compare(v, t float64) bool {
	if math.IsNaN(v) || math.IsNaN(t) {
		return false
	}

	switch c {
	case Less:
		return v < t
	case LessEqual:
		return v <= t
	case Equal:
		return v == t
	case NotEqual:
		return v != t
	case GreaterEqual:
		return v >= t
	case Greater:
		return v > t
	}
	return false
}

// Threshold compares one numeric field with a constant. Absolute compares
// the magnitude of the value.
type Threshold struct {
	Field    string
	Value    float64
	Cmp      Comparator
	Absolute bool
}

// Sup keeps rows where field >= t.
func Sup(field string, t float64) Threshold {
	return Threshold{Field: field, Value: t, Cmp: GreaterEqual}
}

// Inf keeps rows where field <= t.
func Inf(field string, t float64) Threshold {
	return Threshold{Field: field, Value: t, Cmp: LessEqual}
}

func (t Threshold) Fields() []string { return []string{t.Field} }

// Dimension lets a Threshold test matrix values of the dimension named like
// its field.
func (t Threshold) Dimension() string { return t.Field }

func (t Threshold) Test(v float64) bool {
	if t.Absolute {
		v = math.Abs(v)
	}
	return t.Cmp.Compare(v, t.Value)
}

func (t Threshold) Keep(r bioassay.Row) bool {
	return t.Test(r.Float(t.Field))
}

func (t Threshold) String() string {
	field := t.Field
	if t.Absolute {
		field = "|" + field + "|"
	}
	return field + t.Cmp.String() + strconv.FormatFloat(t.Value, 'g', -1, 64)
}

var thresholdExpr = regexp.MustCompile(`^\s*(\|?)\s*([^<>=!|\s]+)\s*(\|?)\s*(<=|>=|!=|==|<|>|=)\s*(\S+)\s*$`)

// ParseThreshold reads expressions such as "m>=1", "a < 8" or "|m|>=1", the
// form String writes.
func ParseThreshold(expr string) (Threshold, error) {
	parts := thresholdExpr.FindStringSubmatch(expr)
	if parts == nil {
		return Threshold{}, fmt.Errorf("cannot parse threshold %q, expected field, comparator and number", expr)
	}
	if parts[1] != parts[3] {
		return Threshold{}, fmt.Errorf("threshold %q: unbalanced |", expr)
	}

	cmp, err := ParseComparator(parts[4])
	if err != nil {
		return Threshold{}, err
	}

	v, err := strconv.ParseFloat(parts[5], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("threshold %q: %w", expr, err)
	}
	if math.IsNaN(v) {
		return Threshold{}, fmt.Errorf("threshold %q: NaN never matches", expr)
	}

	return Threshold{Field: parts[2], Value: v, Cmp: cmp, Absolute: parts[1] == "|"}, nil
}
