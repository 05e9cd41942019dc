package types

import "github.com/google/uuid"

// RuleID identifies a rule. UUIDv7 string alias: type safety with plain
// JSON string serialization, time-ordered so sequential inserts cluster in
// B-tree indexes.
type RuleID string

// OrgID identifies the organization owning a rule.
type OrgID string

// EventID identifies a single dispatched event.
type EventID string

// UserID identifies the user behind a rule change. System-initiated changes
// carry no user.
type UserID string

// VersionID identifies a rule version record.
type VersionID string

// NewRuleID generates a UUIDv7 rule identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// NewEventID generates a UUIDv7 event identifier.
func NewEventID() EventID {
	return EventID(uuid.Must(uuid.NewV7()).String())
}

// NewVersionID generates a UUIDv7 version record identifier.
func NewVersionID() VersionID {
	return VersionID(uuid.Must(uuid.NewV7()).String())
}

// ParseRuleID validates and converts a string to RuleID.
// Rejects malformed UUIDs so invalid IDs never enter the system.
func ParseRuleID(s string) (RuleID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return RuleID(s), nil
}

// ParseOrgID validates and converts a string to OrgID.
func ParseOrgID(s string) (OrgID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return OrgID(s), nil
}
