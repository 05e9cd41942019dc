package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerd/automations/internal/api"
	"github.com/ledgerd/automations/internal/core/auth"
	"github.com/ledgerd/automations/internal/core/config"
	"github.com/ledgerd/automations/internal/engine"
	"github.com/ledgerd/automations/internal/fields"
	"github.com/ledgerd/automations/internal/rules"
	"github.com/ledgerd/automations/internal/store"
	"github.com/ledgerd/automations/internal/triggers"
	"github.com/ledgerd/automations/internal/versions"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP event API service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Port = port
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	database, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	sqlStore, err := store.NewSQLStore(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	secrets, err := config.WebhookSecrets()
	if err != nil {
		return fmt.Errorf("failed to load webhook secrets: %w", err)
	}
	verifier := auth.NewVerifier(secrets)

	fieldRegistry := fields.NewRegistry()
	evaluator := rules.NewEvaluator(fieldRegistry)
	triggerRegistry := triggers.NewRegistry()
	metrics := engine.NewMetrics()

	dispatcher, err := engine.NewDispatcher(sqlStore, engine.NewLogExecutor(logger), triggerRegistry, evaluator, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	tracker := versions.NewTracker(sqlStore, logger)

	handler := api.NewHandler(dispatcher, tracker, triggerRegistry, verifier, metrics, logger).
		WithLimits(cfg.RequestTimeout, cfg.MaxEventBytes)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	logger.Info("Starting automations API",
		slog.String("version", Version),
		slog.String("addr", server.Addr))

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info("Shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
