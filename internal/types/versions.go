package types

import "time"

// ChangeType classifies why a rule version was recorded.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRestored ChangeType = "restored"
)

// Valid reports whether the change type is one of the known lifecycle values.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeCreated, ChangeUpdated, ChangeDeleted, ChangeRestored:
		return true
	}
	return false
}

// FieldDiff records one changed field between two rule snapshots.
type FieldDiff struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// RuleVersion is an immutable, numbered snapshot of a rule's state.
// Invariant: versions for a rule ID form a strictly increasing, gap-free
// sequence starting at 1. Diff is nil only for created (no prior state);
// deleted/restored may carry an empty diff when nothing but lifecycle state
// changed. Never mutated or deleted once written.
type RuleVersion struct {
	ID                VersionID   `json:"id"`
	RuleID            RuleID      `json:"ruleId"`
	Version           int         `json:"version"`
	Snapshot          Rule        `json:"snapshot"`
	ChangeType        ChangeType  `json:"changeType"`
	ChangedBy         *UserID     `json:"changedBy"` // nil for system-initiated changes
	ChangedAt         time.Time   `json:"changedAt"`
	Diff              []FieldDiff `json:"diff"`
	ChangeDescription string      `json:"changeDescription,omitempty"`
}

// Pagination describes one page of a version history listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}
