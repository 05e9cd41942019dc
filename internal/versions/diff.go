package versions

import (
	"reflect"
	"sort"

	"github.com/ledgerd/automations/internal/types"
)

/*
 * Field-level rule diffing.
 *
 * Shallow field-by-field comparison between the previous snapshot and the
 * new rule state, restricted to a stable allowlist. Fields outside the
 * allowlist (timestamps, IDs, soft-delete markers) never appear in a diff.
 *
 * Equality policy for list-valued fields:
 *   - actions, conditions, flowData: order-sensitive. Actions execute in
 *     declared order and the condition tree's child order is part of its
 *     meaning, so a reorder IS a change.
 *   - tags: order-insensitive. Tags are a set; both sides are compared
 *     after sorting a copy.
 */

// FieldLabels is the allowlist of diffable fields with their display labels.
var FieldLabels = map[string]string{
	"actions":          "Actions",
	"category":         "Category",
	"conditions":       "Conditions",
	"description":      "Description",
	"flowData":         "Flow layout",
	"isActive":         "Active",
	"metadata":         "Metadata",
	"name":             "Name",
	"priority":         "Priority",
	"stopOnFirstMatch": "Stop on first match",
	"tags":             "Tags",
	"triggerConfig":    "Trigger configuration",
	"triggerType":      "Trigger type",
}

// diffOrder fixes the emission order of diff entries.
var diffOrder = []string{
	"actions", "category", "conditions", "description", "flowData",
	"isActive", "metadata", "name", "priority", "stopOnFirstMatch",
	"tags", "triggerConfig", "triggerType",
}

// ComputeDiff compares two rule snapshots over the allowlist and returns
// one entry per changed field. Always non-nil: no changes yields an empty
// slice, the nil diff is reserved for created versions.
func ComputeDiff(previous, current *types.Rule) []types.FieldDiff {
	diff := make([]types.FieldDiff, 0)
	for _, field := range diffOrder {
		oldVal := fieldValue(previous, field)
		newVal := fieldValue(current, field)
		if !fieldEqual(field, oldVal, newVal) {
			diff = append(diff, types.FieldDiff{Field: field, OldValue: oldVal, NewValue: newVal})
		}
	}
	return diff
}

func fieldValue(r *types.Rule, field string) any {
	if r == nil {
		return nil
	}
	switch field {
	case "actions":
		return r.Actions
	case "category":
		return r.Category
	case "conditions":
		return r.Conditions
	case "description":
		return r.Description
	case "flowData":
		return r.FlowData
	case "isActive":
		return r.IsActive
	case "metadata":
		return r.Metadata
	case "name":
		return r.Name
	case "priority":
		return r.Priority
	case "stopOnFirstMatch":
		return r.StopOnFirstMatch
	case "tags":
		return r.Tags
	case "triggerConfig":
		return r.TriggerConfig
	case "triggerType":
		return r.TriggerType
	default:
		return nil
	}
}

func fieldEqual(field string, a, b any) bool {
	if field == "tags" {
		return tagSetEqual(a, b)
	}
	// Deep equality covers the object/array-valued fields; nil and empty
	// collections are distinct states and reported as such.
	return reflect.DeepEqual(a, b)
}

// tagSetEqual compares tag lists as sets: a reordered-but-identical list is
// not a change.
func tagSetEqual(a, b any) bool {
	as, _ := a.([]string)
	bs, _ := b.([]string)
	if len(as) != len(bs) {
		return false
	}
	sortedA := append([]string(nil), as...)
	sortedB := append([]string(nil), bs...)
	sort.Strings(sortedA)
	sort.Strings(sortedB)
	return reflect.DeepEqual(sortedA, sortedB)
}
