// Package types provides domain models shared across the automation engine.
//
// Zero-dependency design: the condition/rule/version types use only the
// standard library so the engine can be embedded in any host without pulling
// in transport or storage packages. ID utilities in ids.go import uuid but
// are isolated for selective inclusion.
package types

// FieldType classifies the values a condition field can hold. Operator
// legality is declared per type; the evaluator uses the type to select the
// comparison semantics for a leaf condition.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// Operator is a condition operator token as stored in rule definitions.
type Operator string

// Operator tokens grouped by the field types they apply to. A token may be
// legal for more than one type (eq, neq, between, contains); the field
// registry owns the authoritative per-type sets.
const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpMatches     Operator = "matches"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"

	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpBetween    Operator = "between"
	OpNotBetween Operator = "not_between"

	OpBefore     Operator = "before"
	OpAfter      Operator = "after"
	OpIsWeekend  Operator = "is_weekend"
	OpIsWeekday  Operator = "is_weekday"
	OpDayOfWeek  Operator = "day_of_week"
	OpDayOfMonth Operator = "day_of_month"

	OpContainsAny Operator = "contains_any"
	OpContainsAll Operator = "contains_all"
)

// LogicalOperator combines the children of a condition group.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// EventRecord is the flat field-name -> value mapping a trigger event carries.
// Values are whatever the host produced: JSON-decoded scalars, time.Time
// values, string slices. The evaluator coerces per field type and treats
// missing fields as the type's empty value.
type EventRecord map[string]any

// Resource limits enforced at rule-save time. Validating at creation moves
// error detection out of the dispatch hot path and bounds evaluation cost
// for any single rule.
const (
	// MaxGroupDepth bounds condition tree nesting. 8 levels is far beyond
	// what the visual rule builder produces and keeps recursion trivially safe.
	MaxGroupDepth = 8

	// MaxConditionsPerRule bounds total leaf conditions across the tree.
	MaxConditionsPerRule = 64

	// MaxActionsPerRule bounds the action list of a single rule.
	MaxActionsPerRule = 16

	// MaxListValues bounds the value list of contains_any/contains_all
	// conditions to prevent quadratic comparison cost.
	MaxListValues = 64

	// MaxHistoryPageSize caps version history page size.
	MaxHistoryPageSize = 100
)
