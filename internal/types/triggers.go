package types

// TriggerCategory groups trigger types by their event source.
type TriggerCategory string

const (
	CategoryTransaction TriggerCategory = "transaction"
	CategoryScheduled   TriggerCategory = "scheduled"
	CategoryWebhook     TriggerCategory = "webhook"
)

// EventField describes one field of a trigger's event payload contract.
type EventField struct {
	Field       string    `json:"field"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ConfigField describes one configurable parameter of a trigger.
type ConfigField struct {
	Field       string    `json:"field"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Description string    `json:"description,omitempty"`
}

// TriggerDefinition declares a trigger type: its event-data contract, the
// condition fields applicable to it, and whether dry-run simulation is
// supported. Built-ins are static; custom definitions registered at runtime
// shadow built-ins of the same type for the process lifetime.
type TriggerDefinition struct {
	Type               string            `json:"type"`
	Label              string            `json:"label"`
	Description        string            `json:"description,omitempty"`
	Category           TriggerCategory   `json:"category"`
	AvailableFields    []FieldDefinition `json:"availableFields"`
	EventDataSchema    []EventField      `json:"eventDataSchema"`
	SupportsSimulation bool              `json:"supportsSimulation"`
	ConfigSchema       []ConfigField     `json:"configSchema,omitempty"`
}
