package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/ledgerd/automations/internal/types"
)

func TestRuleRowRoundTrip(t *testing.T) {
	deleted := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rule := testRule("rule-1", 3)
	rule.Description = "tag streaming services"
	rule.TriggerConfig = map[string]any{"hour": 9.0}
	rule.Conditions = types.ConditionGroup{
		LogicalOperator: types.LogicalAnd,
		Conditions: []types.ConditionNode{
			{Condition: &types.Condition{Field: "description", Operator: types.OpContains, Value: "Netflix"}},
		},
	}
	rule.StopOnFirstMatch = true
	rule.FlowData = json.RawMessage(`{"nodes":[]}`)
	rule.Metadata = map[string]any{"source": "import"}
	rule.Tags = []string{"finance"}
	rule.DeletedAt = &deleted

	row, err := toRuleRow(rule)
	if err != nil {
		t.Fatalf("toRuleRow() error = %v, want nil", err)
	}
	got, err := row.toRule()
	if err != nil {
		t.Fatalf("toRule() error = %v, want nil", err)
	}

	gotJSON, _ := json.Marshal(got)
	wantJSON, _ := json.Marshal(rule)
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("round trip mismatch:\ngot  %s\nwant %s", gotJSON, wantJSON)
	}
}

func TestRuleRowRoundTrip_EmptyOptionals(t *testing.T) {
	rule := testRule("rule-1", 0)

	row, err := toRuleRow(rule)
	if err != nil {
		t.Fatalf("toRuleRow() error = %v, want nil", err)
	}
	got, err := row.toRule()
	if err != nil {
		t.Fatalf("toRule() error = %v, want nil", err)
	}

	if got.TriggerConfig != nil || got.Metadata != nil || got.Tags != nil {
		t.Errorf("empty optionals came back non-nil: %+v", got)
	}
	if got.DeletedAt != nil {
		t.Errorf("DeletedAt = %v, want nil", got.DeletedAt)
	}
}

func TestVersionRowRoundTrip(t *testing.T) {
	user := types.UserID("user-1")
	version := &types.RuleVersion{
		ID:         types.NewVersionID(),
		RuleID:     "rule-1",
		Version:    2,
		Snapshot:   *testRule("rule-1", 1),
		ChangeType: types.ChangeUpdated,
		ChangedBy:  &user,
		ChangedAt:  time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC),
		Diff: []types.FieldDiff{
			{Field: "priority", OldValue: 1.0, NewValue: 2.0},
		},
		ChangeDescription: "bumped priority",
	}

	row, err := toVersionRow(version)
	if err != nil {
		t.Fatalf("toVersionRow() error = %v, want nil", err)
	}
	got, err := row.toVersion()
	if err != nil {
		t.Fatalf("toVersion() error = %v, want nil", err)
	}

	if got.Version != 2 || got.ChangeType != types.ChangeUpdated {
		t.Errorf("got %+v, want version 2 updated", got)
	}
	if got.ChangedBy == nil || *got.ChangedBy != user {
		t.Errorf("ChangedBy = %v, want %q", got.ChangedBy, user)
	}
	if !got.ChangedAt.Equal(version.ChangedAt) {
		t.Errorf("ChangedAt = %v, want %v", got.ChangedAt, version.ChangedAt)
	}
	if len(got.Diff) != 1 || got.Diff[0].Field != "priority" {
		t.Errorf("Diff = %v, want single priority entry", got.Diff)
	}
}

// Created versions carry a nil diff; it must stay nil through storage, never
// collapse into an empty slice.
func TestVersionRow_NilDiffPreserved(t *testing.T) {
	version := &types.RuleVersion{
		ID:         types.NewVersionID(),
		RuleID:     "rule-1",
		Version:    1,
		Snapshot:   *testRule("rule-1", 1),
		ChangeType: types.ChangeCreated,
		ChangedAt:  time.Now().UTC(),
	}

	row, err := toVersionRow(version)
	if err != nil {
		t.Fatalf("toVersionRow() error = %v, want nil", err)
	}
	if row.Diff != nil {
		t.Errorf("row.Diff = %v, want NULL for created", *row.Diff)
	}

	got, err := row.toVersion()
	if err != nil {
		t.Fatalf("toVersion() error = %v, want nil", err)
	}
	if got.Diff != nil {
		t.Errorf("Diff = %v, want nil", got.Diff)
	}
}

// Empty (but non-nil) diffs round-trip as empty, distinct from the nil case.
func TestVersionRow_EmptyDiffPreserved(t *testing.T) {
	version := &types.RuleVersion{
		ID:         types.NewVersionID(),
		RuleID:     "rule-1",
		Version:    2,
		Snapshot:   *testRule("rule-1", 1),
		ChangeType: types.ChangeDeleted,
		ChangedAt:  time.Now().UTC(),
		Diff:       []types.FieldDiff{},
	}

	row, err := toVersionRow(version)
	if err != nil {
		t.Fatalf("toVersionRow() error = %v, want nil", err)
	}
	got, err := row.toVersion()
	if err != nil {
		t.Fatalf("toVersion() error = %v, want nil", err)
	}
	if got.Diff == nil || len(got.Diff) != 0 {
		t.Errorf("Diff = %v, want non-nil empty slice", got.Diff)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "sqlite constraint",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint},
			want: true,
		},
		{
			name: "sqlite other",
			err:  sqlite3.Error{Code: sqlite3.ErrBusy},
			want: false,
		},
		{
			name: "postgres unique violation",
			err:  &pq.Error{Code: "23505"},
			want: true,
		},
		{
			name: "postgres other",
			err:  &pq.Error{Code: "42601"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
