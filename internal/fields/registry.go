// Package fields provides the condition field registry: a static catalog of
// evaluable fields per entity type, each with its data type and legal
// operator set.
//
// Pure, stateless lookup. Extending the engine to a new entity type means
// adding a parallel catalog here, not touching the evaluator.
package fields

import "github.com/ledgerd/automations/internal/types"

// EntityType names a catalog of condition fields.
type EntityType string

// EntityTransaction is the only built-in entity type today.
const EntityTransaction EntityType = "transaction"

// operatorsByType is the authoritative legality table: the operators each
// field type may declare. Every catalog definition must stay a subset of
// the set for its type (asserted by TestCatalogOperatorLegality).
var operatorsByType = map[types.FieldType][]types.Operator{
	types.FieldTypeString: {
		types.OpEq, types.OpNeq, types.OpContains, types.OpNotContains,
		types.OpStartsWith, types.OpEndsWith, types.OpMatches,
		types.OpIsEmpty, types.OpIsNotEmpty,
	},
	types.FieldTypeNumber: {
		types.OpEq, types.OpNeq, types.OpGt, types.OpGte, types.OpLt,
		types.OpLte, types.OpBetween, types.OpNotBetween,
	},
	types.FieldTypeDate: {
		types.OpEq, types.OpNeq, types.OpBefore, types.OpAfter,
		types.OpBetween, types.OpNotBetween, types.OpIsWeekend,
		types.OpIsWeekday, types.OpDayOfWeek, types.OpDayOfMonth,
	},
	types.FieldTypeArray: {
		types.OpContains, types.OpNotContains, types.OpContainsAny,
		types.OpContainsAll, types.OpIsEmpty, types.OpIsNotEmpty,
	},
	types.FieldTypeBoolean: {
		types.OpEq, types.OpNeq,
	},
	types.FieldTypeObject: {
		types.OpIsEmpty, types.OpIsNotEmpty,
	},
}

// Registry answers field lookups against the static catalogs.
type Registry struct {
	catalogs map[EntityType][]types.FieldDefinition
	byField  map[string]types.FieldDefinition
}

// NewRegistry builds a registry over the built-in catalogs.
func NewRegistry() *Registry {
	return newRegistry(map[EntityType][]types.FieldDefinition{
		EntityTransaction: transactionFields,
	})
}

func newRegistry(catalogs map[EntityType][]types.FieldDefinition) *Registry {
	r := &Registry{
		catalogs: catalogs,
		byField:  make(map[string]types.FieldDefinition),
	}
	for _, defs := range catalogs {
		for _, def := range defs {
			r.byField[def.Field] = def
		}
	}
	return r
}

// FieldDefinition returns the definition for a field name.
// The second return is false for unknown fields.
func (r *Registry) FieldDefinition(field string) (types.FieldDefinition, bool) {
	def, ok := r.byField[field]
	return def, ok
}

// FieldsForEntity returns a copy of the catalog for an entity type.
// Unknown entity types yield an empty slice.
func (r *Registry) FieldsForEntity(entity EntityType) []types.FieldDefinition {
	defs := r.catalogs[entity]
	out := make([]types.FieldDefinition, len(defs))
	copy(out, defs)
	return out
}

// OperatorsForField returns the legal operators for a field.
// Empty slice for unknown fields, never an error: callers use this as a
// lookup, not a validation gate.
func (r *Registry) OperatorsForField(field string) []types.Operator {
	def, ok := r.byField[field]
	if !ok {
		return []types.Operator{}
	}
	out := make([]types.Operator, len(def.Operators))
	copy(out, def.Operators)
	return out
}

// OperatorsForType returns the full legal operator set for a field type.
func OperatorsForType(t types.FieldType) []types.Operator {
	ops := operatorsByType[t]
	out := make([]types.Operator, len(ops))
	copy(out, ops)
	return out
}

// OperatorLegalForType reports whether op may be declared on a field of type t.
func OperatorLegalForType(op types.Operator, t types.FieldType) bool {
	for _, legal := range operatorsByType[t] {
		if legal == op {
			return true
		}
	}
	return false
}
