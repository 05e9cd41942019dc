package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/ledgerd/automations/internal/types"
)

/*
 * SQL-backed rule and version store.
 *
 * Rules persist structured columns for everything the dispatcher filters
 * and orders on (org, trigger, active, priority, timestamps) and JSON text
 * for the nested structures (conditions, actions, metadata, flow layout).
 *
 * rule_versions carries a UNIQUE (rule_id, version) constraint; a violated
 * insert maps to types.ErrVersionConflict so the tracker can retry. All
 * timestamps are stored as RFC3339 UTC text, one format across both
 * drivers.
 */

// timeFormat is the canonical timestamp encoding for both drivers.
const timeFormat = time.RFC3339Nano

// SQLStore implements engine.RuleStore and versions.Store over sqlx.
type SQLStore struct {
	db      *sqlx.DB
	queries *Queries
}

// NewSQLStore wraps an open database with loaded named queries.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, queries: queries}, nil
}

type ruleRow struct {
	RuleID           string  `db:"rule_id"`
	OrgID            string  `db:"org_id"`
	Name             string  `db:"name"`
	Description      string  `db:"description"`
	Category         string  `db:"category"`
	TriggerType      string  `db:"trigger_type"`
	TriggerConfig    string  `db:"trigger_config"`
	Conditions       string  `db:"conditions"`
	Actions          string  `db:"actions"`
	Priority         int     `db:"priority"`
	IsActive         bool    `db:"is_active"`
	StopOnFirstMatch bool    `db:"stop_on_first_match"`
	FlowData         string  `db:"flow_data"`
	Metadata         string  `db:"metadata"`
	Tags             string  `db:"tags"`
	CreatedAt        string  `db:"created_at"`
	UpdatedAt        string  `db:"updated_at"`
	DeletedAt        *string `db:"deleted_at"`
}

type versionRow struct {
	VersionID         string  `db:"version_id"`
	RuleID            string  `db:"rule_id"`
	Version           int     `db:"version"`
	Snapshot          string  `db:"snapshot"`
	ChangeType        string  `db:"change_type"`
	ChangedBy         *string `db:"changed_by"`
	ChangedAt         string  `db:"changed_at"`
	Diff              *string `db:"diff"`
	ChangeDescription string  `db:"change_description"`
}

// FindActiveRulesByTrigger implements engine.RuleStore.
func (s *SQLStore) FindActiveRulesByTrigger(ctx context.Context, orgID types.OrgID, triggerType string) ([]*types.Rule, error) {
	var rows []ruleRow
	if err := s.queries.Select(ctx, "find-active-rules-by-trigger", &rows, string(orgID), triggerType); err != nil {
		return nil, fmt.Errorf("query active rules: %w", err)
	}
	rules := make([]*types.Rule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.toRule()
		if err != nil {
			// One malformed row must not hide the rest of the candidate set.
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// GetRule loads a single rule, soft-deleted included.
func (s *SQLStore) GetRule(ctx context.Context, id types.RuleID) (*types.Rule, error) {
	var row ruleRow
	if err := s.queries.Get(ctx, "get-rule", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrRuleNotFound
		}
		return nil, fmt.Errorf("query rule %s: %w", id, err)
	}
	return row.toRule()
}

// InsertRule persists a new rule.
func (s *SQLStore) InsertRule(ctx context.Context, rule *types.Rule) error {
	row, err := toRuleRow(rule)
	if err != nil {
		return err
	}
	_, err = s.queries.Exec(ctx, "insert-rule",
		row.RuleID, row.OrgID, row.Name, row.Description, row.Category,
		row.TriggerType, row.TriggerConfig, row.Conditions, row.Actions,
		row.Priority, row.IsActive, row.StopOnFirstMatch, row.FlowData,
		row.Metadata, row.Tags, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert rule %s: %w", rule.ID, err)
	}
	return nil
}

// UpdateRule persists the current state of an existing rule, including
// soft-delete and restore transitions via DeletedAt.
func (s *SQLStore) UpdateRule(ctx context.Context, rule *types.Rule) error {
	row, err := toRuleRow(rule)
	if err != nil {
		return err
	}
	res, err := s.queries.Exec(ctx, "update-rule",
		row.Name, row.Description, row.Category, row.TriggerType,
		row.TriggerConfig, row.Conditions, row.Actions, row.Priority,
		row.IsActive, row.StopOnFirstMatch, row.FlowData, row.Metadata,
		row.Tags, row.UpdatedAt, row.DeletedAt, row.RuleID)
	if err != nil {
		return fmt.Errorf("update rule %s: %w", rule.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrRuleNotFound
	}
	return nil
}

// AppendVersion implements versions.Store. A unique-constraint violation on
// (rule_id, version) maps to types.ErrVersionConflict.
func (s *SQLStore) AppendVersion(ctx context.Context, version *types.RuleVersion) error {
	row, err := toVersionRow(version)
	if err != nil {
		return err
	}
	_, err = s.queries.Exec(ctx, "insert-rule-version",
		row.VersionID, row.RuleID, row.Version, row.Snapshot,
		row.ChangeType, row.ChangedBy, row.ChangedAt, row.Diff,
		row.ChangeDescription)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrVersionConflict
		}
		return fmt.Errorf("insert version %d for rule %s: %w", version.Version, version.RuleID, err)
	}
	return nil
}

// MaxVersion implements versions.Store.
func (s *SQLStore) MaxVersion(ctx context.Context, ruleID types.RuleID) (int, error) {
	var max int
	if err := s.queries.Get(ctx, "max-rule-version", &max, string(ruleID)); err != nil {
		return 0, fmt.Errorf("max version for rule %s: %w", ruleID, err)
	}
	return max, nil
}

// ListVersions implements versions.Store, newest first.
func (s *SQLStore) ListVersions(ctx context.Context, ruleID types.RuleID, page, limit int) ([]*types.RuleVersion, types.Pagination, error) {
	var total int
	if err := s.queries.Get(ctx, "count-rule-versions", &total, string(ruleID)); err != nil {
		return nil, types.Pagination{}, fmt.Errorf("count versions for rule %s: %w", ruleID, err)
	}

	offset := (page - 1) * limit
	var rows []versionRow
	if err := s.queries.Select(ctx, "list-rule-versions", &rows, string(ruleID), limit, offset); err != nil {
		return nil, types.Pagination{}, fmt.Errorf("list versions for rule %s: %w", ruleID, err)
	}

	versions := make([]*types.RuleVersion, 0, len(rows))
	for _, row := range rows {
		v, err := row.toVersion()
		if err != nil {
			return nil, types.Pagination{}, err
		}
		versions = append(versions, v)
	}

	pagination := types.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	return versions, pagination, nil
}

// isUniqueViolation detects duplicate-key errors for both drivers.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func toRuleRow(rule *types.Rule) (ruleRow, error) {
	triggerConfig, err := marshalJSON(rule.TriggerConfig)
	if err != nil {
		return ruleRow{}, fmt.Errorf("encode trigger config: %w", err)
	}
	conditions, err := marshalJSON(rule.Conditions)
	if err != nil {
		return ruleRow{}, fmt.Errorf("encode conditions: %w", err)
	}
	actions, err := marshalJSON(rule.Actions)
	if err != nil {
		return ruleRow{}, fmt.Errorf("encode actions: %w", err)
	}
	metadata, err := marshalJSON(rule.Metadata)
	if err != nil {
		return ruleRow{}, fmt.Errorf("encode metadata: %w", err)
	}
	tags, err := marshalJSON(rule.Tags)
	if err != nil {
		return ruleRow{}, fmt.Errorf("encode tags: %w", err)
	}

	row := ruleRow{
		RuleID:           string(rule.ID),
		OrgID:            string(rule.OrganizationID),
		Name:             rule.Name,
		Description:      rule.Description,
		Category:         rule.Category,
		TriggerType:      rule.TriggerType,
		TriggerConfig:    triggerConfig,
		Conditions:       conditions,
		Actions:          actions,
		Priority:         rule.Priority,
		IsActive:         rule.IsActive,
		StopOnFirstMatch: rule.StopOnFirstMatch,
		FlowData:         string(rule.FlowData),
		Metadata:         metadata,
		Tags:             tags,
		CreatedAt:        rule.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:        rule.UpdatedAt.UTC().Format(timeFormat),
	}
	if rule.DeletedAt != nil {
		s := rule.DeletedAt.UTC().Format(timeFormat)
		row.DeletedAt = &s
	}
	return row, nil
}

func (r ruleRow) toRule() (*types.Rule, error) {
	rule := &types.Rule{
		ID:               types.RuleID(r.RuleID),
		OrganizationID:   types.OrgID(r.OrgID),
		Name:             r.Name,
		Description:      r.Description,
		Category:         r.Category,
		TriggerType:      r.TriggerType,
		Priority:         r.Priority,
		IsActive:         r.IsActive,
		StopOnFirstMatch: r.StopOnFirstMatch,
	}
	if err := unmarshalJSON(r.TriggerConfig, &rule.TriggerConfig); err != nil {
		return nil, fmt.Errorf("decode trigger config for rule %s: %w", r.RuleID, err)
	}
	if err := unmarshalJSON(r.Conditions, &rule.Conditions); err != nil {
		return nil, fmt.Errorf("decode conditions for rule %s: %w", r.RuleID, err)
	}
	if err := unmarshalJSON(r.Actions, &rule.Actions); err != nil {
		return nil, fmt.Errorf("decode actions for rule %s: %w", r.RuleID, err)
	}
	if err := unmarshalJSON(r.Metadata, &rule.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata for rule %s: %w", r.RuleID, err)
	}
	if err := unmarshalJSON(r.Tags, &rule.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for rule %s: %w", r.RuleID, err)
	}
	if r.FlowData != "" {
		rule.FlowData = json.RawMessage(r.FlowData)
	}

	var err error
	if rule.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("decode created_at for rule %s: %w", r.RuleID, err)
	}
	if rule.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at for rule %s: %w", r.RuleID, err)
	}
	if r.DeletedAt != nil {
		t, err := parseTime(*r.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("decode deleted_at for rule %s: %w", r.RuleID, err)
		}
		rule.DeletedAt = &t
	}
	return rule, nil
}

func toVersionRow(v *types.RuleVersion) (versionRow, error) {
	snapshot, err := json.Marshal(v.Snapshot)
	if err != nil {
		return versionRow{}, fmt.Errorf("encode snapshot: %w", err)
	}
	row := versionRow{
		VersionID:         string(v.ID),
		RuleID:            string(v.RuleID),
		Version:           v.Version,
		Snapshot:          string(snapshot),
		ChangeType:        string(v.ChangeType),
		ChangedAt:         v.ChangedAt.UTC().Format(timeFormat),
		ChangeDescription: v.ChangeDescription,
	}
	if v.ChangedBy != nil {
		s := string(*v.ChangedBy)
		row.ChangedBy = &s
	}
	// Diff stays NULL only for created versions; empty diffs round-trip as [].
	if v.Diff != nil {
		diff, err := json.Marshal(v.Diff)
		if err != nil {
			return versionRow{}, fmt.Errorf("encode diff: %w", err)
		}
		s := string(diff)
		row.Diff = &s
	}
	return row, nil
}

func (r versionRow) toVersion() (*types.RuleVersion, error) {
	v := &types.RuleVersion{
		ID:                types.VersionID(r.VersionID),
		RuleID:            types.RuleID(r.RuleID),
		Version:           r.Version,
		ChangeType:        types.ChangeType(r.ChangeType),
		ChangeDescription: r.ChangeDescription,
	}
	if err := json.Unmarshal([]byte(r.Snapshot), &v.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot for version %s: %w", r.VersionID, err)
	}
	if r.ChangedBy != nil {
		u := types.UserID(*r.ChangedBy)
		v.ChangedBy = &u
	}
	if r.Diff != nil {
		if err := json.Unmarshal([]byte(*r.Diff), &v.Diff); err != nil {
			return nil, fmt.Errorf("decode diff for version %s: %w", r.VersionID, err)
		}
	}
	var err error
	if v.ChangedAt, err = parseTime(r.ChangedAt); err != nil {
		return nil, fmt.Errorf("decode changed_at for version %s: %w", r.VersionID, err)
	}
	return v, nil
}

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalJSON(s string, dest any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dest)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		// Migrated rows may carry second-precision timestamps.
		t, err = time.Parse(time.RFC3339, s)
	}
	return t, err
}
