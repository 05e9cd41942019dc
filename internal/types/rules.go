package types

import (
	"encoding/json"
	"time"
)

/*
 * Domain types for rule definition and evaluation.
 *
 * Provides Rule, ConditionGroup, Condition, and ConditionNode structures
 * used by internal/rules for validation and evaluation and by
 * internal/versions for snapshot diffing. These types are wire-format
 * agnostic; hosts convert at their own API boundary.
 *
 * Key types:
 *   - Rule: trigger binding + condition tree + ordered action list
 *   - ConditionGroup: AND/OR combination of conditions and nested groups
 *   - Condition: single comparison against one event field
 *   - ConditionNode: tagged union of Condition | ConditionGroup
 */

// Condition is a leaf comparison test against one event field.
type Condition struct {
	Field    string    `json:"field"`
	Operator Operator  `json:"operator"`
	Value    any       `json:"value,omitempty"`
	Type     FieldType `json:"type"`
}

// ConditionGroup combines conditions and nested groups under one logical
// operator. Groups form a tree, never a graph: nodes are created fresh and
// never back-reference an ancestor.
type ConditionGroup struct {
	LogicalOperator LogicalOperator `json:"logicalOperator"`
	Conditions      []ConditionNode `json:"conditions"`
}

// ConditionNode is a tagged union: exactly one of Condition or Group is set.
// Modeling the union explicitly avoids runtime ambiguity between a leaf and
// a group when walking the tree.
type ConditionNode struct {
	Condition *Condition
	Group     *ConditionGroup
}

// IsGroup reports whether the node is a nested group.
func (n ConditionNode) IsGroup() bool { return n.Group != nil }

// MarshalJSON flattens the union: groups serialize as objects with a
// logicalOperator key, leaves as plain condition objects.
func (n ConditionNode) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	return json.Marshal(n.Condition)
}

// UnmarshalJSON discriminates on the presence of logicalOperator, the one
// key a group always carries and a leaf never does.
func (n *ConditionNode) UnmarshalJSON(data []byte) error {
	var probe struct {
		LogicalOperator *LogicalOperator `json:"logicalOperator"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.LogicalOperator != nil {
		var g ConditionGroup
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		n.Group = &g
		n.Condition = nil
		return nil
	}
	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	n.Condition = &c
	n.Group = nil
	return nil
}

// Action is a side-effecting operation executed when a rule matches.
// Execution semantics are owned by the host's action executor; the engine
// only guarantees ordering and isolation.
type Action struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Rule binds a trigger to a condition tree and an ordered action list.
// Rules are owned by an organization and soft-deleted in the common path so
// the version history stays resolvable.
type Rule struct {
	ID               RuleID          `json:"id"`
	OrganizationID   OrgID           `json:"organizationId"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Category         string          `json:"category,omitempty"`
	TriggerType      string          `json:"triggerType"`
	TriggerConfig    map[string]any  `json:"triggerConfig,omitempty"`
	Conditions       ConditionGroup  `json:"conditions"`
	Actions          []Action        `json:"actions"`
	Priority         int             `json:"priority"`
	IsActive         bool            `json:"isActive"`
	StopOnFirstMatch bool            `json:"stopOnFirstMatch"`
	FlowData         json.RawMessage `json:"flowData,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	DeletedAt        *time.Time      `json:"deletedAt,omitempty"`
}

// Clone returns a deep copy of the rule via JSON round-trip. Version
// snapshots must not alias the live rule's nested structures.
func (r *Rule) Clone() (*Rule, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out Rule
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
