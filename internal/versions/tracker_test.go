package versions

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/ledgerd/automations/internal/types"
)

// fakeStore is an in-memory Store with fault injection for conflict paths.
type fakeStore struct {
	mu           sync.Mutex
	versions     map[types.RuleID][]*types.RuleVersion
	conflictNext int // next N AppendVersion calls return ErrVersionConflict
	appendErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{versions: make(map[types.RuleID][]*types.RuleVersion)}
}

func (s *fakeStore) AppendVersion(_ context.Context, v *types.RuleVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.appendErr != nil {
		return s.appendErr
	}
	if s.conflictNext > 0 {
		s.conflictNext--
		return types.ErrVersionConflict
	}
	for _, existing := range s.versions[v.RuleID] {
		if existing.Version == v.Version {
			return types.ErrVersionConflict
		}
	}
	clone := *v
	s.versions[v.RuleID] = append(s.versions[v.RuleID], &clone)
	return nil
}

func (s *fakeStore) MaxVersion(_ context.Context, ruleID types.RuleID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	max := 0
	for _, v := range s.versions[ruleID] {
		if v.Version > max {
			max = v.Version
		}
	}
	return max, nil
}

func (s *fakeStore) ListVersions(_ context.Context, ruleID types.RuleID, page, limit int) ([]*types.RuleVersion, types.Pagination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := append([]*types.RuleVersion(nil), s.versions[ruleID]...)
	sort.Slice(all, func(i, j int) bool { return all[i].Version > all[j].Version })

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], types.Pagination{Page: page, Limit: limit, Total: len(all)}, nil
}

func TestRecordChange_Created(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(store, nil)
	rule := baseRule()

	version, err := tracker.RecordChange(context.Background(), rule, types.ChangeCreated, nil, nil)
	if err != nil {
		t.Fatalf("RecordChange() error = %v, want nil", err)
	}
	if version.Version != 1 {
		t.Errorf("Version = %d, want 1", version.Version)
	}
	if version.Diff != nil {
		t.Errorf("Diff = %v, want nil for created", version.Diff)
	}
	if version.ChangedBy != nil {
		t.Errorf("ChangedBy = %v, want nil for system change", version.ChangedBy)
	}
}

// The snapshot must not alias the live rule.
func TestRecordChange_SnapshotIsolation(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(store, nil)
	rule := baseRule()

	version, err := tracker.RecordChange(context.Background(), rule, types.ChangeCreated, nil, nil)
	if err != nil {
		t.Fatalf("RecordChange() error = %v, want nil", err)
	}

	rule.Name = "mutated-after-snapshot"
	rule.Tags[0] = "mutated"

	if version.Snapshot.Name != "subscription-tagger" {
		t.Errorf("snapshot Name = %q, want the pre-mutation value", version.Snapshot.Name)
	}
	if version.Snapshot.Tags[0] != "finance" {
		t.Errorf("snapshot Tags[0] = %q, want the pre-mutation value", version.Snapshot.Tags[0])
	}
}

func TestRecordChange_UpdatedRequiresPrevious(t *testing.T) {
	tracker := NewTracker(newFakeStore(), nil)

	_, err := tracker.RecordChange(context.Background(), baseRule(), types.ChangeUpdated, nil, nil)
	if !errors.Is(err, types.ErrMissingSnapshot) {
		t.Errorf("RecordChange() error = %v, want ErrMissingSnapshot", err)
	}
}

func TestRecordChange_InvalidChangeType(t *testing.T) {
	tracker := NewTracker(newFakeStore(), nil)

	_, err := tracker.RecordChange(context.Background(), baseRule(), types.ChangeType("renamed"), nil, nil)
	if !errors.Is(err, types.ErrInvalidChangeType) {
		t.Errorf("RecordChange() error = %v, want ErrInvalidChangeType", err)
	}
}

func TestRecordChange_SequentialVersions(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(store, nil)
	ctx := context.Background()

	previous := baseRule()
	if _, err := tracker.RecordChange(ctx, previous, types.ChangeCreated, nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	current := baseRule()
	current.Priority = 2
	v2, err := tracker.RecordChange(ctx, current, types.ChangeUpdated, nil, previous)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v2.Version != 2 {
		t.Errorf("Version = %d, want 2", v2.Version)
	}
	if len(v2.Diff) != 1 || v2.Diff[0].Field != "priority" {
		t.Errorf("Diff = %v, want a single priority entry", v2.Diff)
	}

	deleted := baseRule()
	deleted.Priority = 2
	v3, err := tracker.RecordChange(ctx, deleted, types.ChangeDeleted, nil, current)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v3.Version != 3 {
		t.Errorf("Version = %d, want 3", v3.Version)
	}
	if v3.Diff == nil {
		t.Errorf("Diff = nil, want non-nil (possibly empty) for non-created changes")
	}
}

func TestRecordChange_ConflictRetry(t *testing.T) {
	store := newFakeStore()
	store.conflictNext = 2
	tracker := NewTracker(store, nil)

	version, err := tracker.RecordChange(context.Background(), baseRule(), types.ChangeCreated, nil, nil)
	if err != nil {
		t.Fatalf("RecordChange() error = %v, want nil after retries", err)
	}
	if version.Version != 1 {
		t.Errorf("Version = %d, want 1", version.Version)
	}
}

func TestRecordChange_ConflictExhausted(t *testing.T) {
	store := newFakeStore()
	store.appendErr = types.ErrVersionConflict
	tracker := NewTracker(store, nil)

	_, err := tracker.RecordChange(context.Background(), baseRule(), types.ChangeCreated, nil, nil)
	if !errors.Is(err, types.ErrVersionConflict) {
		t.Errorf("RecordChange() error = %v, want wrapped ErrVersionConflict", err)
	}
}

// Concurrent writers on one rule must produce a gap-free 1..N sequence.
func TestRecordChange_ConcurrentMonotonicity(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(store, nil)
	rule := baseRule()
	previous := baseRule()

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.RecordChange(context.Background(), rule, types.ChangeUpdated, nil, previous)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("RecordChange() error = %v, want nil", err)
		}
	}

	got := make([]int, 0, writers)
	for _, v := range store.versions[rule.ID] {
		got = append(got, v.Version)
	}
	sort.Ints(got)
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("versions = %v, want gap-free 1..%d", got, writers)
		}
	}
}

func TestHistory_ClampsPaging(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(store, nil)
	ctx := context.Background()

	if _, err := tracker.RecordChange(ctx, baseRule(), types.ChangeCreated, nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, pagination, err := tracker.History(ctx, "rule-1", 0, types.MaxHistoryPageSize+50)
	if err != nil {
		t.Fatalf("History() error = %v, want nil", err)
	}
	if pagination.Page != 1 {
		t.Errorf("Page = %d, want 1 (clamped)", pagination.Page)
	}
	if pagination.Limit != types.MaxHistoryPageSize {
		t.Errorf("Limit = %d, want %d (clamped)", pagination.Limit, types.MaxHistoryPageSize)
	}
}
