package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerd/automations/internal/types"
)

// LogExecutor is an ActionExecutor that records each action as a structured
// log line. The engine owns matching and ordering, not side effects; this
// executor serves deployments where a downstream consumer tails the action
// log, and it backs the serve and simulate commands by default.
type LogExecutor struct {
	logger *slog.Logger
}

// NewLogExecutor returns an executor writing to logger, or slog.Default()
// when nil.
func NewLogExecutor(logger *slog.Logger) *LogExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogExecutor{logger: logger}
}

// Execute implements ActionExecutor.
func (e *LogExecutor) Execute(ctx context.Context, rule *types.Rule, action types.Action, _ types.EventRecord) error {
	if action.Type == "" {
		return fmt.Errorf("action type is empty")
	}
	e.logger.InfoContext(ctx, "Action executed",
		slog.String("rule_id", string(rule.ID)),
		slog.String("rule_name", rule.Name),
		slog.String("action_type", action.Type),
		slog.Any("params", action.Params))
	return nil
}
