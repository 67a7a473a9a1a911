package rules

import (
	"math"
	"strings"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/value"
)

// parseInstant reads an RFC 3339 timestamp, with or without fractional
// seconds.
func parseInstant(v value.Value) (time.Time, bool) {
	s, ok := value.AsString(v)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var daySeparators = strings.NewReplacer(".", "-", "/", "-")

// parseDay reads a calendar day in loc. Accepts "YYYY-MM-DD" with "-", "."
// or "/" separators, and full RFC 3339 timestamps truncated to their local
// day.
func parseDay(v value.Value, loc *time.Location) (time.Time, bool) {
	s, ok := value.AsString(v)
	if !ok {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return dayStart(t, loc), true
	}
	t, err := time.ParseInLocation("2006-01-02", daySeparators.Replace(s), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// calendarDaysAgo counts whole local calendar days from t to now. Rounded,
// not truncated, so a DST transition cannot skew the count.
func calendarDaysAgo(t, now time.Time, loc *time.Location) int {
	diff := dayStart(now, loc).Sub(dayStart(t, loc))
	return int(math.Round(diff.Hours() / 24))
}

func intTarget(v value.Value) (int, bool) {
	f, ok := value.AsFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// relativeMatch evaluates the relative-day operators given how many days
// ago the source lies (negative = in the future). BEFORE/AFTER pin the
// exact day at the offset, PAST/REMAINING are open-ended beyond it, and the
// WITHIN variants span from the evaluation instant to the offset.
func relativeMatch(op model.Operator, daysAgo, offset int) bool {
	daysAhead := -daysAgo
	switch op {
	case model.OpBefore:
		return daysAgo == offset
	case model.OpPast:
		return daysAgo >= offset
	case model.OpWithinPast:
		return daysAgo >= 0 && daysAgo <= offset
	case model.OpAfter:
		return daysAhead == offset
	case model.OpRemaining:
		return daysAhead >= offset
	case model.OpWithinRemaining:
		return daysAhead >= 0 && daysAhead <= offset
	default:
		return false
	}
}

// extractionMatch evaluates the calendar-extraction operators against the
// first target. YEAR_EQUAL and MONTH_EQUAL take an integer, and
// YEAR_MONTH_EQUAL a "YYYY-MM" string.
func extractionMatch(op model.Operator, t time.Time, target value.Value) bool {
	switch op {
	case model.OpYearEqual:
		n, ok := intTarget(target)
		return ok && t.Year() == n
	case model.OpMonthEqual:
		n, ok := intTarget(target)
		return ok && int(t.Month()) == n
	case model.OpYearMonthEqual:
		s, ok := value.AsString(target)
		return ok && t.Format("2006-01") == s
	default:
		return false
	}
}

// compareInstants evaluates the ordering operators on parsed times. Like
// the numeric domain, BETWEEN is exclusive and NOT_BETWEEN inclusive on
// both bounds.
func compareInstants(op model.Operator, src time.Time, ts []time.Time) bool {
	switch op {
	case model.OpEqual:
		return src.Equal(ts[0])
	case model.OpNotEqual:
		return !src.Equal(ts[0])
	case model.OpGreaterThan:
		return src.After(ts[0])
	case model.OpGreaterThanOrEqual:
		return !src.Before(ts[0])
	case model.OpLessThan:
		return src.Before(ts[0])
	case model.OpLessThanOrEqual:
		return !src.After(ts[0])
	case model.OpBetween:
		return len(ts) == 2 && src.After(ts[0]) && src.Before(ts[1])
	case model.OpNotBetween:
		return len(ts) == 2 && (!src.After(ts[0]) || !src.Before(ts[1]))
	case model.OpIn:
		for _, t := range ts {
			if src.Equal(t) {
				return true
			}
		}
		return false
	case model.OpNotIn:
		for _, t := range ts {
			if src.Equal(t) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func compareDatetime(op model.Operator, source value.Value, targets value.Array, now time.Time) bool {
	src, ok := parseInstant(source)
	if !ok {
		return false
	}

	switch op {
	case model.OpYearEqual, model.OpMonthEqual, model.OpYearMonthEqual:
		return extractionMatch(op, src.In(now.Location()), targets[0])
	case model.OpBefore, model.OpPast, model.OpWithinPast,
		model.OpAfter, model.OpRemaining, model.OpWithinRemaining:
		n, ok := intTarget(targets[0])
		if !ok {
			return false
		}
		daysAgo := int(now.Sub(src) / (24 * time.Hour))
		return relativeMatch(op, daysAgo, n)
	}

	ts := make([]time.Time, 0, len(targets))
	for _, t := range targets {
		parsed, ok := parseInstant(t)
		if !ok {
			return false
		}
		ts = append(ts, parsed)
	}
	return compareInstants(op, src, ts)
}

// compareDate works on whole local calendar days in the evaluation
// instant's zone.
func compareDate(op model.Operator, source value.Value, targets value.Array, now time.Time) bool {
	loc := now.Location()
	src, ok := parseDay(source, loc)
	if !ok {
		return false
	}

	switch op {
	case model.OpYearEqual, model.OpMonthEqual, model.OpYearMonthEqual:
		return extractionMatch(op, src, targets[0])
	case model.OpBefore, model.OpPast, model.OpWithinPast,
		model.OpAfter, model.OpRemaining, model.OpWithinRemaining:
		n, ok := intTarget(targets[0])
		if !ok {
			return false
		}
		return relativeMatch(op, calendarDaysAgo(src, now, loc), n)
	}

	ts := make([]time.Time, 0, len(targets))
	for _, t := range targets {
		parsed, ok := parseDay(t, loc)
		if !ok {
			return false
		}
		ts = append(ts, parsed)
	}
	return compareInstants(op, src, ts)
}
