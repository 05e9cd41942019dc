// Package triggers provides the trigger registry: the catalog of event
// types that can start rule evaluation.
//
// Two-tier lookup: an immutable built-in catalog plus a mutable custom map.
// Custom registrations shadow built-ins of the same type for the process
// lifetime, which extends the engine without touching the built-in catalog
// and keeps built-ins constant and auditable.
package triggers

import (
	"sort"
	"sync"

	"github.com/ledgerd/automations/internal/types"
)

// Registry holds built-in and custom trigger definitions.
//
// Construct one at process start and inject it into consumers (dispatcher,
// validators); each test can build a fresh instance. Concurrent
// registration and lookup are safe: the custom map is guarded by a RWMutex
// and definitions are stored by value, so a reader never observes a
// half-constructed definition.
type Registry struct {
	builtins map[string]types.TriggerDefinition

	mu     sync.RWMutex
	custom map[string]types.TriggerDefinition
}

// NewRegistry creates a registry seeded with the built-in triggers.
func NewRegistry() *Registry {
	r := &Registry{
		builtins: make(map[string]types.TriggerDefinition, len(builtinTriggers)),
		custom:   make(map[string]types.TriggerDefinition),
	}
	for _, def := range builtinTriggers {
		r.builtins[def.Type] = def
	}
	return r
}

// Get returns the definition for a trigger type, custom shadowing built-in.
func (r *Registry) Get(triggerType string) (types.TriggerDefinition, bool) {
	r.mu.RLock()
	def, ok := r.custom[triggerType]
	r.mu.RUnlock()
	if ok {
		return def, true
	}
	def, ok = r.builtins[triggerType]
	return def, ok
}

// GetAll returns every registered definition, custom wins on collision.
// Sorted by type for a stable catalog listing.
func (r *Registry) GetAll() []types.TriggerDefinition {
	merged := make(map[string]types.TriggerDefinition, len(r.builtins))
	for t, def := range r.builtins {
		merged[t] = def
	}
	r.mu.RLock()
	for t, def := range r.custom {
		merged[t] = def
	}
	r.mu.RUnlock()

	out := make([]types.TriggerDefinition, 0, len(merged))
	for _, def := range merged {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// GetByCategory returns all definitions in a category, custom-merged.
func (r *Registry) GetByCategory(category types.TriggerCategory) []types.TriggerDefinition {
	all := r.GetAll()
	out := make([]types.TriggerDefinition, 0, len(all))
	for _, def := range all {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

// GetLabel returns the human-readable label for a trigger type, or the raw
// type string when unknown (labels are display sugar, not a gate).
func (r *Registry) GetLabel(triggerType string) string {
	if def, ok := r.Get(triggerType); ok {
		return def.Label
	}
	return triggerType
}

// GetFields returns the condition fields applicable to a trigger's events.
// Empty slice for unknown triggers.
func (r *Registry) GetFields(triggerType string) []types.FieldDefinition {
	def, ok := r.Get(triggerType)
	if !ok {
		return []types.FieldDefinition{}
	}
	out := make([]types.FieldDefinition, len(def.AvailableFields))
	copy(out, def.AvailableFields)
	return out
}

// IsValidTrigger reports whether a trigger type is registered. Never
// panics; this is the gatekeeping check callers run before dispatching.
func (r *Registry) IsValidTrigger(triggerType string) bool {
	_, ok := r.Get(triggerType)
	return ok
}

// Register adds or replaces a custom trigger definition. Last write wins:
// registering the same type twice leaves a single entry.
func (r *Registry) Register(def types.TriggerDefinition) error {
	if def.Type == "" {
		return types.ErrUnknownTrigger
	}
	r.mu.Lock()
	r.custom[def.Type] = def
	r.mu.Unlock()
	return nil
}

// Unregister removes a custom registration. A built-in shadowed by the
// removed custom definition becomes visible again; built-ins themselves
// cannot be removed.
func (r *Registry) Unregister(triggerType string) {
	r.mu.Lock()
	delete(r.custom, triggerType)
	r.mu.Unlock()
}
