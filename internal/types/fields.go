package types

// ValueOption is an enumerated choice for a field's value (rule builder UI
// contract, carried through so trigger catalogs can expose it).
type ValueOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDefinition describes one evaluable field of an entity type.
// Invariant: Operators is a subset of the operators valid for Type; the
// field registry asserts this over the whole static catalog.
type FieldDefinition struct {
	Field        string        `json:"field"`
	Label        string        `json:"label"`
	Type         FieldType     `json:"type"`
	Description  string        `json:"description,omitempty"`
	Operators    []Operator    `json:"operators"`
	ValueOptions []ValueOption `json:"valueOptions,omitempty"`
	Placeholder  string        `json:"placeholder,omitempty"`
	HelpText     string        `json:"helpText,omitempty"`

	// CaseInsensitive folds both operands of string comparisons. String
	// comparisons are case-sensitive unless the definition opts out here.
	CaseInsensitive bool `json:"caseInsensitive,omitempty"`
}
