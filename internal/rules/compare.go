package rules

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/value"
)

// compare dispatches on the declared data type. IS_NULL/IS_NOT_NULL are
// resolved before dispatch so they work regardless of the declared type;
// every other operator needs a non-null source and at least one target.
func compare(dt model.DataType, op model.Operator, source value.Value, targets value.Array, now time.Time) bool {
	switch op {
	case model.OpIsNull:
		return value.IsNull(source)
	case model.OpIsNotNull:
		return !value.IsNull(source)
	}
	if value.IsNull(source) || len(targets) == 0 {
		return false
	}

	switch {
	case dt == model.TypeString:
		return compareString(op, source, targets)
	case dt.IsNumeric():
		return compareNumber(op, source, targets)
	case dt == model.TypeBoolean:
		return compareBool(op, source, targets)
	case dt == model.TypeDatetime:
		return compareDatetime(op, source, targets, now)
	case dt == model.TypeDate:
		return compareDate(op, source, targets, now)
	case dt == model.TypeArrayString:
		return compareArray(op, source, targets)
	default:
		// OBJECT and anything unknown.
		return false
	}
}

// foldContains reports whether s contains substr under Unicode case
// folding.
func foldContains(s, substr string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}

func stringTargets(targets value.Array) ([]string, bool) {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		s, ok := value.AsString(t)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func compareString(op model.Operator, source value.Value, targets value.Array) bool {
	s, ok := value.AsString(source)
	if !ok {
		return false
	}
	ts, ok := stringTargets(targets)
	if !ok {
		return false
	}

	switch op {
	case model.OpEqual:
		return s == ts[0]
	case model.OpNotEqual:
		return s != ts[0]
	case model.OpLike:
		for _, t := range ts {
			if foldContains(s, t) {
				return true
			}
		}
		return false
	case model.OpNotLike:
		for _, t := range ts {
			if foldContains(s, t) {
				return false
			}
		}
		return true
	case model.OpIn:
		for _, t := range ts {
			if s == t {
				return true
			}
		}
		return false
	case model.OpNotIn:
		for _, t := range ts {
			if s == t {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func floatTargets(targets value.Array) ([]float64, bool) {
	out := make([]float64, 0, len(targets))
	for _, t := range targets {
		f, ok := value.AsFloat(t)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// compareNumber treats INT, BIGINT and DOUBLE as one domain. Ordering
// operators compare against the first target only. BETWEEN is exclusive on
// both bounds and NOT_BETWEEN inclusive on both: the pair partitions the
// number line, so a value sitting exactly on a bound is NOT_BETWEEN.
func compareNumber(op model.Operator, source value.Value, targets value.Array) bool {
	n, ok := value.AsFloat(source)
	if !ok {
		return false
	}
	ts, ok := floatTargets(targets)
	if !ok {
		return false
	}

	switch op {
	case model.OpEqual:
		return n == ts[0]
	case model.OpNotEqual:
		return n != ts[0]
	case model.OpGreaterThan:
		return n > ts[0]
	case model.OpGreaterThanOrEqual:
		return n >= ts[0]
	case model.OpLessThan:
		return n < ts[0]
	case model.OpLessThanOrEqual:
		return n <= ts[0]
	case model.OpBetween:
		return len(ts) == 2 && n > ts[0] && n < ts[1]
	case model.OpNotBetween:
		return len(ts) == 2 && (n <= ts[0] || n >= ts[1])
	case model.OpIn:
		for _, t := range ts {
			if n == t {
				return true
			}
		}
		return false
	case model.OpNotIn:
		for _, t := range ts {
			if n == t {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func compareBool(op model.Operator, source value.Value, targets value.Array) bool {
	b, ok := value.AsBool(source)
	if !ok {
		return false
	}
	first, ok := value.AsBool(targets[0])
	if !ok {
		return false
	}

	switch op {
	case model.OpEqual:
		return b == first
	case model.OpNotEqual:
		return b != first
	case model.OpIn:
		for _, t := range targets {
			if tb, ok := value.AsBool(t); ok && tb == b {
				return true
			}
		}
		return false
	case model.OpNotIn:
		for _, t := range targets {
			if tb, ok := value.AsBool(t); ok && tb == b {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareArray evaluates string-list sources. CONTAINS/NOT_CONTAINS test
// the first target, ANY/NONE test the whole target list, and the
// ARRAY_LIKE pair applies the case-insensitive substring test across
// elements.
func compareArray(op model.Operator, source value.Value, targets value.Array) bool {
	src, ok := value.AsStringSlice(source)
	if !ok {
		return false
	}
	ts, ok := stringTargets(targets)
	if !ok {
		return false
	}

	contains := func(s string) bool {
		for _, e := range src {
			if e == s {
				return true
			}
		}
		return false
	}
	likes := func(t string) bool {
		for _, e := range src {
			if foldContains(e, t) {
				return true
			}
		}
		return false
	}

	switch op {
	case model.OpContains:
		return contains(ts[0])
	case model.OpNotContains:
		return !contains(ts[0])
	case model.OpAny:
		for _, t := range ts {
			if contains(t) {
				return true
			}
		}
		return false
	case model.OpNone:
		for _, t := range ts {
			if contains(t) {
				return false
			}
		}
		return true
	case model.OpArrayLike:
		for _, t := range ts {
			if likes(t) {
				return true
			}
		}
		return false
	case model.OpArrayNotLike:
		for _, t := range ts {
			if likes(t) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
