// Package engine dispatches trigger events against an organization's rules:
// load candidates by priority, evaluate each condition tree, execute the
// actions of matching rules in order.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ledgerd/automations/internal/rules"
	"github.com/ledgerd/automations/internal/triggers"
	"github.com/ledgerd/automations/internal/types"
)

/*
 * Dispatch pipeline per incoming event:
 *
 *   1. Gate on trigger validity (IsValidTrigger, never throws).
 *   2. Load active rules for (org, trigger), priority ascending. The store
 *      is expected to order; the dispatcher re-sorts defensively because
 *      stop-on-first-match semantics depend on deterministic order
 *      (priority, then CreatedAt, then ID).
 *   3. Evaluate each rule's tree sequentially within the event. Different
 *      events may dispatch in parallel -- rules are read-only here -- but
 *      within one event order is part of the contract.
 *   4. Execute matching rules' actions in declared order. An action error
 *      stops that rule's remaining actions and is recorded on its outcome;
 *      the batch continues. Panics in evaluation or actions are recovered
 *      per rule for the same reason: one malformed rule must not take down
 *      dispatch of the rest.
 *   5. A matching rule with StopOnFirstMatch set skips all lower-priority
 *      rules for this event.
 */

// RuleStore is the external collaborator supplying candidate rules.
type RuleStore interface {
	// FindActiveRulesByTrigger returns active, non-deleted rules for the
	// organization and trigger type, ordered by priority ascending with
	// ties broken by creation order.
	FindActiveRulesByTrigger(ctx context.Context, orgID types.OrgID, triggerType string) ([]*types.Rule, error)
}

// ActionExecutor is the external collaborator that performs rule actions.
// Execution semantics (set category, send notification, ...) are opaque to
// the engine, which only guarantees ordering and isolation.
type ActionExecutor interface {
	Execute(ctx context.Context, rule *types.Rule, action types.Action, event types.EventRecord) error
}

// Outcome records one rule's result within a dispatch.
type Outcome struct {
	RuleID          types.RuleID            `json:"ruleId"`
	RuleName        string                  `json:"ruleName"`
	Matched         bool                    `json:"matched"`
	Evaluation      rules.EvaluationResult  `json:"evaluation"`
	ActionsExecuted int                     `json:"actionsExecuted"`
	Err             error                   `json:"-"`
	Error           string                  `json:"error,omitempty"`
	StoppedBatch    bool                    `json:"stoppedBatch,omitempty"`
}

// Dispatcher wires the registries, store, and executor into the per-event
// state machine. Safe for concurrent use across events.
type Dispatcher struct {
	store     RuleStore
	executor  ActionExecutor
	triggers  *triggers.Registry
	evaluator *rules.Evaluator
	logger    *slog.Logger
	metrics   *Metrics
}

// NewDispatcher creates a dispatcher. Logger and metrics may be nil; the
// store, executor, and registries are required collaborators.
func NewDispatcher(store RuleStore, executor ActionExecutor, triggerReg *triggers.Registry, evaluator *rules.Evaluator, logger *slog.Logger, metrics *Metrics) (*Dispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if executor == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if triggerReg == nil {
		return nil, fmt.Errorf("trigger registry cannot be nil")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:     store,
		executor:  executor,
		triggers:  triggerReg,
		evaluator: evaluator,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Dispatch evaluates an event against the organization's rules and executes
// the actions of matching rules. One Outcome per evaluated rule; rules
// skipped by stop-on-first-match produce no outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, triggerType string, eventData types.EventRecord, orgID types.OrgID) ([]Outcome, error) {
	start := time.Now()

	if !d.triggers.IsValidTrigger(triggerType) {
		return nil, fmt.Errorf("dispatch %q: %w", triggerType, types.ErrUnknownTrigger)
	}

	candidates, err := d.store.FindActiveRulesByTrigger(ctx, orgID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("load rules for trigger %q: %w", triggerType, err)
	}
	sortRules(candidates)

	outcomes := make([]Outcome, 0, len(candidates))
	for _, rule := range candidates {
		outcome := d.dispatchRule(ctx, rule, eventData)
		if outcome.Err != nil {
			outcome.Error = outcome.Err.Error()
		}
		outcomes = append(outcomes, outcome)

		if outcome.Matched && rule.StopOnFirstMatch {
			outcomes[len(outcomes)-1].StoppedBatch = true
			d.logger.InfoContext(ctx, "stop on first match",
				slog.String("rule_id", string(rule.ID)),
				slog.String("trigger_type", triggerType))
			break
		}
	}

	d.metrics.recordDispatch(triggerType, outcomes, time.Since(start))
	return outcomes, nil
}

// Simulate evaluates a single rule against sample event data without
// executing actions. The trigger must support simulation.
func (d *Dispatcher) Simulate(ctx context.Context, rule *types.Rule, eventData types.EventRecord) (Outcome, error) {
	def, ok := d.triggers.Get(rule.TriggerType)
	if !ok {
		return Outcome{}, fmt.Errorf("simulate %q: %w", rule.TriggerType, types.ErrUnknownTrigger)
	}
	if !def.SupportsSimulation {
		return Outcome{}, fmt.Errorf("simulate %q: %w", rule.TriggerType, types.ErrSimulationUnsupported)
	}

	outcome := Outcome{RuleID: rule.ID, RuleName: rule.Name}
	outcome.Evaluation = d.evaluator.Evaluate(rule.Conditions, eventData)
	outcome.Matched = outcome.Evaluation.Matched
	return outcome, nil
}

// dispatchRule evaluates one rule and runs its actions on match. Errors and
// panics stay on the outcome; the caller continues the batch.
func (d *Dispatcher) dispatchRule(ctx context.Context, rule *types.Rule, eventData types.EventRecord) (outcome Outcome) {
	outcome = Outcome{RuleID: rule.ID, RuleName: rule.Name}

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("rule %s panicked: %v", rule.ID, r)
			d.logger.ErrorContext(ctx, "rule dispatch panicked",
				slog.String("rule_id", string(rule.ID)),
				slog.Any("panic", r))
		}
	}()

	outcome.Evaluation = d.evaluator.Evaluate(rule.Conditions, eventData)
	outcome.Matched = outcome.Evaluation.Matched
	if !outcome.Matched {
		return outcome
	}

	d.logger.InfoContext(ctx, "rule matched",
		slog.String("rule_id", string(rule.ID)),
		slog.String("rule_name", rule.Name))

	for _, action := range rule.Actions {
		if err := d.executor.Execute(ctx, rule, action, eventData); err != nil {
			outcome.Err = fmt.Errorf("action %q: %w", action.Type, err)
			d.logger.ErrorContext(ctx, "action execution failed",
				slog.String("rule_id", string(rule.ID)),
				slog.String("action_type", action.Type),
				slog.String("error", err.Error()))
			return outcome
		}
		outcome.ActionsExecuted++
	}
	return outcome
}

// sortRules orders candidates deterministically: priority ascending (lower
// evaluates first), then CreatedAt, then ID.
func sortRules(list []*types.Rule) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority < list[j].Priority
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
