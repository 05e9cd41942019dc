package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ledgerd/automations/internal/types"
)

// MemoryStore is an in-memory implementation of the rule and version
// stores. It backs tests and the simulate command, where spinning up a
// database is unwarranted.
type MemoryStore struct {
	mu       sync.RWMutex
	rules    map[types.RuleID]*types.Rule
	versions map[types.RuleID][]*types.RuleVersion
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:    make(map[types.RuleID]*types.Rule),
		versions: make(map[types.RuleID][]*types.RuleVersion),
	}
}

// FindActiveRulesByTrigger implements engine.RuleStore. Results are ordered
// by priority, then creation time, then rule ID.
func (s *MemoryStore) FindActiveRulesByTrigger(_ context.Context, orgID types.OrgID, triggerType string) ([]*types.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rules []*types.Rule
	for _, rule := range s.rules {
		if rule.OrganizationID != orgID || rule.TriggerType != triggerType {
			continue
		}
		if !rule.IsActive || rule.DeletedAt != nil {
			continue
		}
		clone, err := rule.Clone()
		if err != nil {
			return nil, err
		}
		rules = append(rules, clone)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].ID < rules[j].ID
	})
	return rules, nil
}

// GetRule returns a copy of the stored rule, soft-deleted included.
func (s *MemoryStore) GetRule(_ context.Context, id types.RuleID) (*types.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return nil, types.ErrRuleNotFound
	}
	return rule.Clone()
}

// InsertRule stores a copy of the rule.
func (s *MemoryStore) InsertRule(_ context.Context, rule *types.Rule) error {
	clone, err := rule.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules[rule.ID] = clone
	return nil
}

// UpdateRule replaces the stored rule.
func (s *MemoryStore) UpdateRule(_ context.Context, rule *types.Rule) error {
	clone, err := rule.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[rule.ID]; !ok {
		return types.ErrRuleNotFound
	}
	s.rules[rule.ID] = clone
	return nil
}

// AppendVersion implements versions.Store. Appending a version number that
// already exists for the rule returns types.ErrVersionConflict.
func (s *MemoryStore) AppendVersion(_ context.Context, version *types.RuleVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.versions[version.RuleID]
	for _, v := range existing {
		if v.Version == version.Version {
			return types.ErrVersionConflict
		}
	}
	clone := *version
	s.versions[version.RuleID] = append(existing, &clone)
	return nil
}

// MaxVersion implements versions.Store. Returns 0 when the rule has no
// recorded versions.
func (s *MemoryStore) MaxVersion(_ context.Context, ruleID types.RuleID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, v := range s.versions[ruleID] {
		if v.Version > max {
			max = v.Version
		}
	}
	return max, nil
}

// ListVersions implements versions.Store, newest first.
func (s *MemoryStore) ListVersions(_ context.Context, ruleID types.RuleID, page, limit int) ([]*types.RuleVersion, types.Pagination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := append([]*types.RuleVersion(nil), s.versions[ruleID]...)
	sort.Slice(all, func(i, j int) bool {
		return all[i].Version > all[j].Version
	})

	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]*types.RuleVersion, 0, end-start)
	for _, v := range all[start:end] {
		clone := *v
		out = append(out, &clone)
	}

	pagination := types.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	return out, pagination, nil
}
