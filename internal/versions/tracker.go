// Package versions records an immutable, numbered audit trail for every
// rule mutation: create, update, delete, restore.
package versions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ledgerd/automations/internal/types"
)

/*
 * Version tracking.
 *
 * Every mutation produces a RuleVersion with version = max existing + 1 for
 * the rule, a full snapshot, and a field diff against the prior snapshot.
 * Versions for one rule form a strictly increasing, gap-free sequence.
 *
 * Concurrency: updates to a single rule's version history are serialized
 * per rule id (in-process mutex). The store additionally enforces a unique
 * (rule_id, version) constraint, so a second process racing for the same
 * slot surfaces ErrVersionConflict; the tracker retries with a recomputed
 * max a bounded number of times before giving up.
 *
 * Ordering: callers append the version before (or in the same transaction
 * as) the rule's primary record update, so a crash never leaves a mutation
 * without an audit entry. At-least-once is acceptable, zero entries is not.
 */

// maxConflictRetries bounds conflict-retry attempts per RecordChange call.
const maxConflictRetries = 3

// Store is the external collaborator persisting version records.
type Store interface {
	// AppendVersion durably writes an immutable version record. Returns
	// types.ErrVersionConflict when (rule_id, version) already exists.
	AppendVersion(ctx context.Context, version *types.RuleVersion) error

	// MaxVersion returns the highest version number recorded for a rule,
	// zero when the rule has no versions yet.
	MaxVersion(ctx context.Context, ruleID types.RuleID) (int, error)

	// ListVersions returns one page of a rule's history, newest first.
	ListVersions(ctx context.Context, ruleID types.RuleID, page, limit int) ([]*types.RuleVersion, types.Pagination, error)
}

// Tracker computes and records rule versions.
type Tracker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[types.RuleID]*sync.Mutex
}

// NewTracker creates a tracker over the given store.
func NewTracker(store Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		logger: logger,
		now:    time.Now,
		locks:  make(map[types.RuleID]*sync.Mutex),
	}
}

// RecordChange computes the next version number and diff for a rule
// mutation and appends the version record. previous is the snapshot before
// the mutation: nil for created, required otherwise. changedBy is nil for
// system-initiated changes.
func (t *Tracker) RecordChange(ctx context.Context, rule *types.Rule, changeType types.ChangeType, changedBy *types.UserID, previous *types.Rule) (*types.RuleVersion, error) {
	if !changeType.Valid() {
		return nil, fmt.Errorf("change type %q: %w", changeType, types.ErrInvalidChangeType)
	}
	if changeType != types.ChangeCreated && previous == nil {
		return nil, fmt.Errorf("change type %q: %w", changeType, types.ErrMissingSnapshot)
	}

	lock := t.ruleLock(rule.ID)
	lock.Lock()
	defer lock.Unlock()

	snapshot, err := rule.Clone()
	if err != nil {
		return nil, fmt.Errorf("snapshot rule %s: %w", rule.ID, err)
	}

	var diff []types.FieldDiff
	if changeType != types.ChangeCreated {
		diff = ComputeDiff(previous, rule)
	}

	for attempt := 0; ; attempt++ {
		max, err := t.store.MaxVersion(ctx, rule.ID)
		if err != nil {
			return nil, fmt.Errorf("max version for rule %s: %w", rule.ID, err)
		}

		version := &types.RuleVersion{
			ID:         types.NewVersionID(),
			RuleID:     rule.ID,
			Version:    max + 1,
			Snapshot:   *snapshot,
			ChangeType: changeType,
			ChangedBy:  changedBy,
			ChangedAt:  t.now().UTC(),
			Diff:       diff,
		}

		err = t.store.AppendVersion(ctx, version)
		if err == nil {
			t.logger.InfoContext(ctx, "rule version recorded",
				slog.String("rule_id", string(rule.ID)),
				slog.Int("version", version.Version),
				slog.String("change_type", string(changeType)))
			return version, nil
		}
		if !errors.Is(err, types.ErrVersionConflict) || attempt >= maxConflictRetries {
			return nil, fmt.Errorf("append version %d for rule %s: %w", version.Version, rule.ID, err)
		}
		// Another writer took the slot; recompute max and retry.
		t.logger.WarnContext(ctx, "version conflict, retrying",
			slog.String("rule_id", string(rule.ID)),
			slog.Int("attempt", attempt+1))
	}
}

// History returns one page of a rule's version history, newest first.
// Limit is clamped to MaxHistoryPageSize; page numbers start at 1.
func (t *Tracker) History(ctx context.Context, ruleID types.RuleID, page, limit int) ([]*types.RuleVersion, types.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > types.MaxHistoryPageSize {
		limit = types.MaxHistoryPageSize
	}
	return t.store.ListVersions(ctx, ruleID, page, limit)
}

// ruleLock returns the serialization mutex for a rule id, creating it on
// first use. The map grows by one entry per rule ever versioned in this
// process; acceptable for dashboard-scale rule counts.
func (t *Tracker) ruleLock(id types.RuleID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.locks[id]; !ok {
		t.locks[id] = &sync.Mutex{}
	}
	return t.locks[id]
}
