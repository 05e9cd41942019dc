package rules

import (
	"regexp"
	"strings"
	"time"

	"github.com/ledgerd/automations/internal/types"
)

/*
 * Operator comparison logic, one dispatch function per field type.
 *
 * Values reaching these functions were already coerced; any residual shape
 * mismatch returns false rather than erroring, so a malformed condition can
 * never break evaluation of the surrounding rule batch.
 *
 * String comparisons are case-sensitive unless the field definition folds
 * case (fold=true lowers both operands). The matches operator ignores the
 * fold flag: pattern authors control case with (?i).
 *
 * Date comparisons operate on calendar days in UTC; asDate already
 * truncated both operands.
 *
 * Why function-based: a switch per type is clearer than operator interface
 * polymorphism when most operators are one comparison expression.
 */

// compareString applies a string operator. is_empty/is_not_empty are handled
// by the evaluator before coercion and never reach here.
func compareString(op types.Operator, actual string, value any, fold bool) bool {
	target, ok := asString(value)
	if !ok && op != types.OpMatches {
		return false
	}
	if fold {
		actual = strings.ToLower(actual)
		target = strings.ToLower(target)
	}
	switch op {
	case types.OpEq:
		return actual == target
	case types.OpNeq:
		return actual != target
	case types.OpContains:
		return strings.Contains(actual, target)
	case types.OpNotContains:
		return !strings.Contains(actual, target)
	case types.OpStartsWith:
		return strings.HasPrefix(actual, target)
	case types.OpEndsWith:
		return strings.HasSuffix(actual, target)
	case types.OpMatches:
		pattern, ok := asString(value)
		if !ok {
			return false
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			// Validated at save time; degrade to non-match if it slipped through.
			return false
		}
		return re.MatchString(actual)
	default:
		return false
	}
}

// compareNumber applies a numeric operator. between/not_between are
// inclusive on both ends of the [low, high] 2-tuple.
func compareNumber(op types.Operator, actual float64, value any) bool {
	switch op {
	case types.OpBetween, types.OpNotBetween:
		lowRaw, highRaw, ok := asPair(value)
		if !ok {
			return false
		}
		low, okLow := asNumber(lowRaw)
		high, okHigh := asNumber(highRaw)
		if !okLow || !okHigh {
			return false
		}
		in := actual >= low && actual <= high
		if op == types.OpBetween {
			return in
		}
		return !in
	}

	target, ok := asNumber(value)
	if !ok {
		return false
	}
	switch op {
	case types.OpEq:
		return actual == target
	case types.OpNeq:
		return actual != target
	case types.OpGt:
		return actual > target
	case types.OpGte:
		return actual >= target
	case types.OpLt:
		return actual < target
	case types.OpLte:
		return actual <= target
	default:
		return false
	}
}

// compareDate applies a date operator to a day-truncated UTC time.
func compareDate(op types.Operator, actual time.Time, value any) bool {
	switch op {
	case types.OpIsWeekend:
		wd := actual.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	case types.OpIsWeekday:
		wd := actual.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case types.OpDayOfWeek:
		return matchesWeekday(actual.Weekday(), value)
	case types.OpDayOfMonth:
		target, ok := asNumber(value)
		return ok && float64(actual.Day()) == target
	case types.OpBetween, types.OpNotBetween:
		lowRaw, highRaw, ok := asPair(value)
		if !ok {
			return false
		}
		low, okLow := asDate(lowRaw)
		high, okHigh := asDate(highRaw)
		if !okLow || !okHigh {
			return false
		}
		in := !actual.Before(low) && !actual.After(high)
		if op == types.OpBetween {
			return in
		}
		return !in
	}

	target, ok := asDate(value)
	if !ok {
		return false
	}
	switch op {
	case types.OpEq:
		return actual.Equal(target)
	case types.OpNeq:
		return !actual.Equal(target)
	case types.OpBefore:
		return actual.Before(target)
	case types.OpAfter:
		return actual.After(target)
	default:
		return false
	}
}

// weekdayNames maps lowercase day names to time.Weekday for day_of_week
// conditions authored as strings.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// matchesWeekday accepts a numeric weekday (0=Sunday..6=Saturday) or a day
// name, case-insensitive.
func matchesWeekday(actual time.Weekday, value any) bool {
	if n, ok := asNumber(value); ok {
		return float64(actual) == n
	}
	if s, ok := asString(value); ok {
		wd, known := weekdayNames[strings.ToLower(s)]
		return known && wd == actual
	}
	return false
}

// compareArray applies an array operator. Membership uses scalar equality
// with numeric widening so 10 and 10.0 compare equal across JSON decodings.
func compareArray(op types.Operator, actual []any, value any) bool {
	switch op {
	case types.OpContains:
		return listContains(actual, value)
	case types.OpNotContains:
		return !listContains(actual, value)
	case types.OpContainsAny:
		targets, ok := asList(value)
		if !ok {
			return false
		}
		for _, t := range targets {
			if listContains(actual, t) {
				return true
			}
		}
		return false
	case types.OpContainsAll:
		targets, ok := asList(value)
		if !ok {
			return false
		}
		for _, t := range targets {
			if !listContains(actual, t) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareBool applies a boolean operator. Strict coercion upstream means
// both sides are real booleans here.
func compareBool(op types.Operator, actual bool, value any) bool {
	target, ok := asBool(value)
	if !ok {
		return false
	}
	switch op {
	case types.OpEq:
		return actual == target
	case types.OpNeq:
		return actual != target
	default:
		return false
	}
}

func listContains(list []any, target any) bool {
	for _, elem := range list {
		if scalarEqual(elem, target) {
			return true
		}
	}
	return false
}

// scalarEqual compares two scalars with numeric widening; non-numeric
// values fall back to interface equality (strings, bools).
func scalarEqual(a, b any) bool {
	na, okA := asNumber(a)
	nb, okB := asNumber(b)
	if okA && okB {
		return na == nb
	}
	return a == b
}
