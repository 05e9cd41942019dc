// Package rules evaluates condition trees against event records and
// validates rule configuration at save time.
package rules

import (
	"github.com/ledgerd/automations/internal/fields"
	"github.com/ledgerd/automations/internal/types"
)

/*
 * Condition tree evaluation with per-node diagnostics.
 *
 * Evaluate walks a ConditionGroup recursively and returns both the overall
 * match decision and a trace mirroring the tree shape: every child's
 * individual outcome is recorded. The trace backs "why did/didn't this rule
 * fire" tooling, so children are always fully evaluated; only the combined
 * boolean could short-circuit, and with bounded CPU-only leaves the full
 * walk is cheap enough to keep the trace complete.
 *
 * Leaf semantics:
 *   - Field definitions come from the registry; a definition's type and
 *     case policy override whatever the stored condition claims.
 *   - Missing field (or field unknown to the catalog): counts as the
 *     type's empty value for is_empty/is_not_empty, non-match for every
 *     other operator. Partial event payloads are safe to evaluate.
 *   - Illegal operator-for-type is the validator's error to raise; if one
 *     reaches evaluation it degrades to non-match so a malformed rule
 *     cannot break dispatch of the batch.
 *
 * Group semantics: AND over an empty child list is vacuously true, OR is
 * vacuously false.
 */

// ConditionResult is the outcome of one leaf condition.
type ConditionResult struct {
	Field    string         `json:"field"`
	Operator types.Operator `json:"operator"`
	Expected any            `json:"expected,omitempty"`
	Actual   any            `json:"actual,omitempty"`
	Matched  bool           `json:"matched"`
	Reason   string         `json:"reason,omitempty"`
}

// GroupResult is the outcome of a condition group, carrying each child's
// individual result alongside the combined decision.
type GroupResult struct {
	LogicalOperator types.LogicalOperator `json:"logicalOperator"`
	Matched         bool                  `json:"matched"`
	Children        []NodeResult          `json:"children"`
}

// NodeResult mirrors ConditionNode: exactly one of Condition or Group set.
type NodeResult struct {
	Condition *ConditionResult `json:"condition,omitempty"`
	Group     *GroupResult     `json:"group,omitempty"`
}

// Matched reports the node's outcome regardless of kind.
func (n NodeResult) Matched() bool {
	if n.Group != nil {
		return n.Group.Matched
	}
	if n.Condition != nil {
		return n.Condition.Matched
	}
	return false
}

// EvaluationResult is the full outcome of evaluating a rule's tree.
type EvaluationResult struct {
	Matched bool        `json:"matched"`
	Group   GroupResult `json:"group"`
}

// Evaluator evaluates condition trees, consulting the field registry for
// type and case policy. Stateless and safe for concurrent use.
type Evaluator struct {
	fields *fields.Registry
}

// NewEvaluator creates an evaluator over the given field registry.
func NewEvaluator(reg *fields.Registry) *Evaluator {
	return &Evaluator{fields: reg}
}

// Evaluate decides whether record satisfies group and explains why.
// Never panics and never returns an error: configuration problems degrade
// to non-match with a reason in the trace.
func (e *Evaluator) Evaluate(group types.ConditionGroup, record types.EventRecord) EvaluationResult {
	g := e.evalGroup(group, record)
	return EvaluationResult{Matched: g.Matched, Group: g}
}

func (e *Evaluator) evalGroup(group types.ConditionGroup, record types.EventRecord) GroupResult {
	result := GroupResult{
		LogicalOperator: group.LogicalOperator,
		Children:        make([]NodeResult, 0, len(group.Conditions)),
	}

	for _, node := range group.Conditions {
		var child NodeResult
		if node.Group != nil {
			sub := e.evalGroup(*node.Group, record)
			child.Group = &sub
		} else if node.Condition != nil {
			leaf := e.evalLeaf(*node.Condition, record)
			child.Condition = &leaf
		} else {
			// Empty union slot; counts as a non-matching child.
			child.Condition = &ConditionResult{Reason: "empty condition node"}
		}
		result.Children = append(result.Children, child)
	}

	switch group.LogicalOperator {
	case types.LogicalOr:
		// Vacuously false on empty: an OR asserts at least one alternative.
		result.Matched = false
		for _, child := range result.Children {
			if child.Matched() {
				result.Matched = true
				break
			}
		}
	default:
		// AND, including the vacuous-truth empty case. Unknown logical
		// operators fold into AND rather than erroring mid-dispatch.
		result.Matched = true
		for _, child := range result.Children {
			if !child.Matched() {
				result.Matched = false
				break
			}
		}
	}

	return result
}

func (e *Evaluator) evalLeaf(cond types.Condition, record types.EventRecord) ConditionResult {
	result := ConditionResult{
		Field:    cond.Field,
		Operator: cond.Operator,
		Expected: cond.Value,
	}

	fieldType := cond.Type
	fold := false
	if def, known := e.fields.FieldDefinition(cond.Field); known {
		fieldType = def.Type
		fold = def.CaseInsensitive
		if !operatorDeclared(def.Operators, cond.Operator) {
			result.Reason = "operator not allowed for field"
			return result
		}
	} else if !fields.OperatorLegalForType(cond.Operator, fieldType) {
		result.Reason = "operator not valid for field type"
		return result
	}

	raw, present := record[cond.Field]
	if present {
		result.Actual = raw
	}

	// Emptiness checks see missing fields as the type's empty value.
	switch cond.Operator {
	case types.OpIsEmpty:
		result.Matched = !present || isEmptyValue(raw, fieldType)
		return result
	case types.OpIsNotEmpty:
		result.Matched = present && !isEmptyValue(raw, fieldType)
		return result
	}

	if !present || raw == nil {
		result.Reason = "field missing from event"
		return result
	}

	switch fieldType {
	case types.FieldTypeString:
		actual, ok := asString(raw)
		if !ok {
			result.Reason = "event value is not a string"
			return result
		}
		result.Matched = compareString(cond.Operator, actual, cond.Value, fold)
	case types.FieldTypeNumber:
		actual, ok := asNumber(raw)
		if !ok {
			result.Reason = "event value is not a number"
			return result
		}
		result.Matched = compareNumber(cond.Operator, actual, cond.Value)
	case types.FieldTypeDate:
		actual, ok := asDate(raw)
		if !ok {
			result.Reason = "event value is not a date"
			return result
		}
		result.Matched = compareDate(cond.Operator, actual, cond.Value)
	case types.FieldTypeArray:
		actual, ok := asList(raw)
		if !ok {
			result.Reason = "event value is not an array"
			return result
		}
		result.Matched = compareArray(cond.Operator, actual, cond.Value)
	case types.FieldTypeBoolean:
		actual, ok := asBool(raw)
		if !ok {
			result.Reason = "event value is not a boolean"
			return result
		}
		result.Matched = compareBool(cond.Operator, actual, cond.Value)
	default:
		result.Reason = "unsupported field type"
	}

	return result
}

func operatorDeclared(set []types.Operator, op types.Operator) bool {
	for _, o := range set {
		if o == op {
			return true
		}
	}
	return false
}
