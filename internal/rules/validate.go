package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledgerd/automations/internal/fields"
	"github.com/ledgerd/automations/internal/triggers"
	"github.com/ledgerd/automations/internal/types"
)

/*
 * Save-time rule validation.
 *
 * Configuration errors (unknown field, illegal operator-for-type, malformed
 * value shape) must be raised when a rule is saved, never tolerated there:
 * the evaluator's defensive non-match is a runtime safety net, not the
 * contract. Validating at creation also enforces the resource limits that
 * bound evaluation cost per rule.
 *
 * Field resolution order: the trigger's own available-field list first
 * (custom triggers may declare fields outside the built-in catalogs), then
 * the global field registry.
 */

// Validator checks rule configuration against the field and trigger
// registries before a rule is persisted.
type Validator struct {
	Fields   *fields.Registry
	Triggers *triggers.Registry
}

// NewValidator creates a validator over the given registries.
func NewValidator(fieldReg *fields.Registry, triggerReg *triggers.Registry) *Validator {
	return &Validator{Fields: fieldReg, Triggers: triggerReg}
}

// Validate checks the whole rule: trigger existence, tree shape and limits,
// per-leaf operator legality and value shape, and the action list.
// The first problem found is returned, wrapped around its sentinel.
func (v *Validator) Validate(rule *types.Rule) error {
	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if !v.Triggers.IsValidTrigger(rule.TriggerType) {
		return fmt.Errorf("trigger %q: %w", rule.TriggerType, types.ErrUnknownTrigger)
	}
	if len(rule.Actions) > types.MaxActionsPerRule {
		return fmt.Errorf("%d actions: %w", len(rule.Actions), types.ErrTooManyActions)
	}
	for i, action := range rule.Actions {
		if strings.TrimSpace(action.Type) == "" {
			return fmt.Errorf("action %d: type is required", i)
		}
	}

	triggerFields := v.triggerFieldIndex(rule.TriggerType)

	leafCount := 0
	if err := v.validateGroup(rule.Conditions, triggerFields, 1, &leafCount); err != nil {
		return err
	}
	if leafCount > types.MaxConditionsPerRule {
		return fmt.Errorf("%d conditions: %w", leafCount, types.ErrTooManyConditions)
	}
	return nil
}

// triggerFieldIndex builds a lookup over the trigger's available fields.
func (v *Validator) triggerFieldIndex(triggerType string) map[string]types.FieldDefinition {
	def, ok := v.Triggers.Get(triggerType)
	if !ok {
		return nil
	}
	index := make(map[string]types.FieldDefinition, len(def.AvailableFields))
	for _, f := range def.AvailableFields {
		index[f.Field] = f
	}
	return index
}

func (v *Validator) validateGroup(group types.ConditionGroup, triggerFields map[string]types.FieldDefinition, depth int, leafCount *int) error {
	if depth > types.MaxGroupDepth {
		return fmt.Errorf("depth %d: %w", depth, types.ErrGroupTooDeep)
	}
	if group.LogicalOperator != types.LogicalAnd && group.LogicalOperator != types.LogicalOr {
		return fmt.Errorf("logical operator %q is not AND or OR", group.LogicalOperator)
	}

	for _, node := range group.Conditions {
		if node.Group != nil {
			if err := v.validateGroup(*node.Group, triggerFields, depth+1, leafCount); err != nil {
				return err
			}
			continue
		}
		if node.Condition == nil {
			return fmt.Errorf("condition node has neither condition nor group")
		}
		*leafCount++
		if err := v.validateLeaf(*node.Condition, triggerFields); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateLeaf(cond types.Condition, triggerFields map[string]types.FieldDefinition) error {
	def, ok := triggerFields[cond.Field]
	if !ok {
		def, ok = v.Fields.FieldDefinition(cond.Field)
	}
	if !ok {
		return fmt.Errorf("field %q: %w", cond.Field, types.ErrUnknownField)
	}

	if !operatorDeclared(def.Operators, cond.Operator) {
		return fmt.Errorf("field %q operator %q: %w", cond.Field, cond.Operator, types.ErrInvalidOperator)
	}

	return v.validateValueShape(cond, def.Type)
}

// validateValueShape enforces the operator's value contract for the field's
// declared type.
func (v *Validator) validateValueShape(cond types.Condition, fieldType types.FieldType) error {
	fail := func(format string, args ...any) error {
		prefix := fmt.Sprintf("field %q operator %q: ", cond.Field, cond.Operator)
		return fmt.Errorf(prefix+format, args...)
	}

	switch cond.Operator {
	case types.OpIsEmpty, types.OpIsNotEmpty, types.OpIsWeekend, types.OpIsWeekday:
		// No comparison value.
		return nil

	case types.OpBetween, types.OpNotBetween:
		low, high, ok := asPair(cond.Value)
		if !ok {
			return fail("%w: expected [low, high] 2-tuple", types.ErrInvalidValueShape)
		}
		if fieldType == types.FieldTypeDate {
			if _, okLow := asDate(low); !okLow {
				return fail("%w: low bound is not a date", types.ErrInvalidValueShape)
			}
			if _, okHigh := asDate(high); !okHigh {
				return fail("%w: high bound is not a date", types.ErrInvalidValueShape)
			}
			return nil
		}
		lowN, okLow := asNumber(low)
		highN, okHigh := asNumber(high)
		if !okLow || !okHigh {
			return fail("%w: bounds must be numbers", types.ErrInvalidValueShape)
		}
		if lowN > highN {
			return fail("%w: low bound exceeds high bound", types.ErrInvalidValueShape)
		}
		return nil

	case types.OpMatches:
		pattern, ok := asString(cond.Value)
		if !ok {
			return fail("%w: pattern must be a string", types.ErrInvalidValueShape)
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fail("%w: %v", types.ErrInvalidRegex, err)
		}
		return nil

	case types.OpContainsAny, types.OpContainsAll:
		list, ok := asList(cond.Value)
		if !ok {
			return fail("%w: expected a value list", types.ErrInvalidValueShape)
		}
		if len(list) > types.MaxListValues {
			return fail("%d values: %w", len(list), types.ErrTooManyListValues)
		}
		return nil

	case types.OpDayOfWeek:
		if n, ok := asNumber(cond.Value); ok {
			if n < 0 || n > 6 || n != float64(int(n)) {
				return fail("%w: weekday must be an integer 0-6", types.ErrInvalidValueShape)
			}
			return nil
		}
		if s, ok := asString(cond.Value); ok {
			if _, known := weekdayNames[strings.ToLower(s)]; !known {
				return fail("%w: unknown weekday name %q", types.ErrInvalidValueShape, s)
			}
			return nil
		}
		return fail("%w: weekday must be a number or day name", types.ErrInvalidValueShape)

	case types.OpDayOfMonth:
		n, ok := asNumber(cond.Value)
		if !ok || n < 1 || n > 31 || n != float64(int(n)) {
			return fail("%w: day of month must be an integer 1-31", types.ErrInvalidValueShape)
		}
		return nil
	}

	// Scalar operators: value must coerce to the field's type.
	switch fieldType {
	case types.FieldTypeString:
		if _, ok := asString(cond.Value); !ok {
			return fail("%w: expected a string value", types.ErrInvalidValueShape)
		}
	case types.FieldTypeNumber:
		if _, ok := asNumber(cond.Value); !ok {
			return fail("%w: expected a numeric value", types.ErrInvalidValueShape)
		}
	case types.FieldTypeBoolean:
		if _, ok := asBool(cond.Value); !ok {
			return fail("%w: expected a boolean value", types.ErrInvalidValueShape)
		}
	case types.FieldTypeDate:
		if _, ok := asDate(cond.Value); !ok {
			return fail("%w: expected a date value", types.ErrInvalidValueShape)
		}
	case types.FieldTypeArray:
		if cond.Value == nil {
			return fail("%w: expected a comparison value", types.ErrInvalidValueShape)
		}
	}
	return nil
}
