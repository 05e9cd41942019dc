package types

import "errors"

// Sentinel errors for automation engine operations.
//
// The configuration family (unknown field, illegal operator, malformed value
// shape) surfaces at rule-save time and is never raised during evaluation:
// the evaluator degrades to non-match instead so one malformed rule cannot
// break dispatch of the rest.
var (
	// ErrUnknownField indicates a condition references a field absent from
	// the field catalog for the rule's trigger.
	ErrUnknownField = errors.New("unknown condition field")

	// ErrInvalidOperator indicates an operator not legal for the field's
	// declared type.
	ErrInvalidOperator = errors.New("operator not valid for field type")

	// ErrInvalidValueShape indicates a condition value whose shape does not
	// match the operator contract (e.g. between without a 2-tuple).
	ErrInvalidValueShape = errors.New("condition value shape invalid for operator")

	// ErrInvalidRegex indicates a matches operator whose pattern does not compile.
	ErrInvalidRegex = errors.New("regex pattern does not compile")

	// ErrGroupTooDeep indicates a condition tree nested beyond MaxGroupDepth.
	ErrGroupTooDeep = errors.New("condition group exceeds maximum depth")

	// ErrTooManyConditions indicates a rule with more than MaxConditionsPerRule leaves.
	ErrTooManyConditions = errors.New("rule has too many conditions")

	// ErrTooManyActions indicates a rule with more than MaxActionsPerRule actions.
	ErrTooManyActions = errors.New("rule has too many actions")

	// ErrTooManyListValues indicates a list-valued condition exceeding MaxListValues.
	ErrTooManyListValues = errors.New("condition value list too long")

	// ErrUnknownTrigger indicates an event or rule referencing an unregistered
	// trigger type.
	ErrUnknownTrigger = errors.New("unknown trigger type")

	// ErrSimulationUnsupported indicates a dry run against a trigger whose
	// definition does not support simulation.
	ErrSimulationUnsupported = errors.New("trigger does not support simulation")

	// ErrVersionConflict indicates two writers raced for the same
	// (rule_id, version) slot. Retryable: recompute max and append again.
	ErrVersionConflict = errors.New("rule version number conflict")

	// ErrInvalidChangeType indicates an unrecognized version change type.
	ErrInvalidChangeType = errors.New("invalid version change type")

	// ErrMissingSnapshot indicates an update/delete/restore recorded without
	// the prior snapshot needed for diffing.
	ErrMissingSnapshot = errors.New("previous snapshot required for change type")

	// ErrRuleNotFound indicates a rule ID absent from the store.
	ErrRuleNotFound = errors.New("rule not found")
)
