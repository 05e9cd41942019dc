package rules

import (
	"time"

	"github.com/ledgerd/automations/internal/types"
)

/*
 * Value coercion for condition evaluation.
 *
 * Event records arrive from JSON decoding, host structs, or test fixtures,
 * so a "number" may be float64/int/int64, a "date" may be time.Time or a
 * string, and an "array" may be []any or []string. Coercion normalizes
 * both the event value and the condition value before comparison.
 *
 * Every coercion is total at the call site: failure reports (zero, false)
 * and the evaluator degrades the leaf to non-match. Nothing here panics or
 * returns an error; malformed shapes were the validator's job to reject.
 */

// dateLayouts accepted for date-typed values, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// asNumber converts a value to float64 for numeric comparison.
// Handles float64, int, int64 from JSON and host code.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// asString converts a value to string. Strict: only real strings qualify,
// no stringification of numbers or booleans (avoids "10" matching 10).
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asBool converts a value to bool. Strict: no "true"/1 coercion, which
// avoids the string-vs-number ambiguity entirely.
func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asDate converts a value to a UTC day. time.Time values pass through;
// strings are parsed against the accepted layouts. The returned time is
// truncated to midnight UTC: date operators compare calendar days in the
// pinned UTC reference frame, not instants.
func asDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return dayUTC(d), true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return dayUTC(t), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// dayUTC truncates an instant to its calendar day in UTC.
func dayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// asList normalizes a value to []any for array operators.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(l))
		for i, f := range l {
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

// asPair extracts the [low, high] 2-tuple of a between/not_between value.
func asPair(v any) (any, any, bool) {
	list, ok := asList(v)
	if !ok || len(list) != 2 {
		return nil, nil, false
	}
	return list[0], list[1], true
}

// isEmptyValue reports whether a present value counts as "empty" for its
// declared type: empty string, zero-length array/object, or nil.
func isEmptyValue(v any, t types.FieldType) bool {
	if v == nil {
		return true
	}
	switch t {
	case types.FieldTypeString:
		s, ok := asString(v)
		return ok && s == ""
	case types.FieldTypeArray:
		list, ok := asList(v)
		return ok && len(list) == 0
	case types.FieldTypeObject:
		m, ok := v.(map[string]any)
		return ok && len(m) == 0
	default:
		return false
	}
}
