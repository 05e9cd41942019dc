package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgerd/automations/internal/engine"
	"github.com/ledgerd/automations/internal/fields"
	"github.com/ledgerd/automations/internal/rules"
	"github.com/ledgerd/automations/internal/store"
	"github.com/ledgerd/automations/internal/triggers"
	"github.com/ledgerd/automations/internal/types"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Evaluate a rule against a sample event and print the condition trace",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("rule", "", "path to rule JSON file")
	simulateCmd.Flags().String("event", "", "path to event JSON file")
	simulateCmd.MarkFlagRequired("rule")
	simulateCmd.MarkFlagRequired("event")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	rulePath, _ := cmd.Flags().GetString("rule")
	eventPath, _ := cmd.Flags().GetString("event")

	ruleData, err := os.ReadFile(rulePath)
	if err != nil {
		return fmt.Errorf("failed to read rule file: %w", err)
	}
	var rule types.Rule
	if err := json.Unmarshal(ruleData, &rule); err != nil {
		return fmt.Errorf("failed to parse rule file: %w", err)
	}

	eventData, err := os.ReadFile(eventPath)
	if err != nil {
		return fmt.Errorf("failed to read event file: %w", err)
	}
	var event types.EventRecord
	if err := json.Unmarshal(eventData, &event); err != nil {
		return fmt.Errorf("failed to parse event file: %w", err)
	}

	fieldRegistry := fields.NewRegistry()
	triggerRegistry := triggers.NewRegistry()

	validator := rules.NewValidator(fieldRegistry, triggerRegistry)
	if err := validator.Validate(&rule); err != nil {
		return fmt.Errorf("rule is invalid: %w", err)
	}

	evaluator := rules.NewEvaluator(fieldRegistry)
	dispatcher, err := engine.NewDispatcher(store.NewMemoryStore(), engine.NewLogExecutor(logger), triggerRegistry, evaluator, logger, nil)
	if err != nil {
		return err
	}

	outcome, err := dispatcher.Simulate(context.Background(), &rule, event)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
