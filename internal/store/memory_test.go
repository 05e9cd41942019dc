package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ledgerd/automations/internal/engine"
	"github.com/ledgerd/automations/internal/types"
	"github.com/ledgerd/automations/internal/versions"
)

// Both stores must satisfy the engine and version tracker contracts.
var (
	_ engine.RuleStore = (*MemoryStore)(nil)
	_ versions.Store   = (*MemoryStore)(nil)
	_ engine.RuleStore = (*SQLStore)(nil)
	_ versions.Store   = (*SQLStore)(nil)
)

func testRule(id string, priority int) *types.Rule {
	return &types.Rule{
		ID:             types.RuleID(id),
		OrganizationID: "org-1",
		Name:           id,
		TriggerType:    "transaction.created",
		Priority:       priority,
		IsActive:       true,
		CreatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Conditions: types.ConditionGroup{
			LogicalOperator: types.LogicalAnd,
		},
		Actions: []types.Action{{Type: "notify"}},
	}
}

func TestMemoryStore_FindActiveRulesByTrigger(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	active := testRule("rule-active", 2)
	first := testRule("rule-first", 1)
	inactive := testRule("rule-inactive", 0)
	inactive.IsActive = false
	deleted := testRule("rule-deleted", 0)
	now := time.Now()
	deleted.DeletedAt = &now
	otherOrg := testRule("rule-other-org", 0)
	otherOrg.OrganizationID = "org-2"
	otherTrigger := testRule("rule-other-trigger", 0)
	otherTrigger.TriggerType = "transaction.updated"

	for _, r := range []*types.Rule{active, first, inactive, deleted, otherOrg, otherTrigger} {
		if err := s.InsertRule(ctx, r); err != nil {
			t.Fatalf("InsertRule(%s) error = %v, want nil", r.ID, err)
		}
	}

	got, err := s.FindActiveRulesByTrigger(ctx, "org-1", "transaction.created")
	if err != nil {
		t.Fatalf("FindActiveRulesByTrigger() error = %v, want nil", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rules, want 2", len(got))
	}
	if got[0].ID != "rule-first" || got[1].ID != "rule-active" {
		t.Errorf("order = [%s, %s], want priority ascending", got[0].ID, got[1].ID)
	}
}

func TestMemoryStore_GetRule(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetRule(ctx, "missing"); !errors.Is(err, types.ErrRuleNotFound) {
		t.Errorf("GetRule(missing) error = %v, want ErrRuleNotFound", err)
	}

	rule := testRule("rule-1", 1)
	if err := s.InsertRule(ctx, rule); err != nil {
		t.Fatalf("InsertRule() error = %v, want nil", err)
	}

	got, err := s.GetRule(ctx, "rule-1")
	if err != nil {
		t.Fatalf("GetRule() error = %v, want nil", err)
	}

	// Mutating the returned copy must not affect the stored rule.
	got.Name = "mutated"
	again, _ := s.GetRule(ctx, "rule-1")
	if again.Name != "rule-1" {
		t.Errorf("stored rule mutated through returned copy")
	}
}

func TestMemoryStore_UpdateRule(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rule := testRule("rule-1", 1)
	if err := s.UpdateRule(ctx, rule); !errors.Is(err, types.ErrRuleNotFound) {
		t.Errorf("UpdateRule(missing) error = %v, want ErrRuleNotFound", err)
	}

	if err := s.InsertRule(ctx, rule); err != nil {
		t.Fatalf("InsertRule() error = %v, want nil", err)
	}
	rule.Priority = 9
	if err := s.UpdateRule(ctx, rule); err != nil {
		t.Fatalf("UpdateRule() error = %v, want nil", err)
	}

	got, _ := s.GetRule(ctx, "rule-1")
	if got.Priority != 9 {
		t.Errorf("Priority = %d, want 9", got.Priority)
	}
}

func TestMemoryStore_AppendVersionConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v1 := &types.RuleVersion{ID: types.NewVersionID(), RuleID: "rule-1", Version: 1}
	if err := s.AppendVersion(ctx, v1); err != nil {
		t.Fatalf("AppendVersion() error = %v, want nil", err)
	}

	dup := &types.RuleVersion{ID: types.NewVersionID(), RuleID: "rule-1", Version: 1}
	if err := s.AppendVersion(ctx, dup); !errors.Is(err, types.ErrVersionConflict) {
		t.Errorf("AppendVersion(dup) error = %v, want ErrVersionConflict", err)
	}

	// Same version on a different rule is fine.
	other := &types.RuleVersion{ID: types.NewVersionID(), RuleID: "rule-2", Version: 1}
	if err := s.AppendVersion(ctx, other); err != nil {
		t.Errorf("AppendVersion(other rule) error = %v, want nil", err)
	}
}

func TestMemoryStore_MaxVersion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	max, err := s.MaxVersion(ctx, "rule-1")
	if err != nil {
		t.Fatalf("MaxVersion() error = %v, want nil", err)
	}
	if max != 0 {
		t.Errorf("MaxVersion = %d, want 0 for unversioned rule", max)
	}

	for v := 1; v <= 3; v++ {
		s.AppendVersion(ctx, &types.RuleVersion{ID: types.NewVersionID(), RuleID: "rule-1", Version: v})
	}
	max, _ = s.MaxVersion(ctx, "rule-1")
	if max != 3 {
		t.Errorf("MaxVersion = %d, want 3", max)
	}
}

func TestMemoryStore_ListVersions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for v := 1; v <= 5; v++ {
		s.AppendVersion(ctx, &types.RuleVersion{ID: types.NewVersionID(), RuleID: "rule-1", Version: v})
	}

	page1, pagination, err := s.ListVersions(ctx, "rule-1", 1, 2)
	if err != nil {
		t.Fatalf("ListVersions() error = %v, want nil", err)
	}
	if len(page1) != 2 || page1[0].Version != 5 || page1[1].Version != 4 {
		t.Errorf("page 1 = %v, want versions [5, 4]", versionNumbers(page1))
	}
	if pagination.Total != 5 || pagination.TotalPages != 3 {
		t.Errorf("pagination = %+v, want Total 5, TotalPages 3", pagination)
	}

	page3, _, _ := s.ListVersions(ctx, "rule-1", 3, 2)
	if len(page3) != 1 || page3[0].Version != 1 {
		t.Errorf("page 3 = %v, want versions [1]", versionNumbers(page3))
	}

	empty, _, _ := s.ListVersions(ctx, "rule-1", 10, 2)
	if len(empty) != 0 {
		t.Errorf("page 10 = %v, want empty", versionNumbers(empty))
	}
}

func versionNumbers(list []*types.RuleVersion) []int {
	out := make([]int, len(list))
	for i, v := range list {
		out[i] = v.Version
	}
	return out
}
