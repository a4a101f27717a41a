package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/OldStager01/throughput-autoscaler/api"
	"github.com/OldStager01/throughput-autoscaler/internal/auth"
	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/internal/orchestrator"
	"github.com/OldStager01/throughput-autoscaler/pkg/database"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one run and print its result as JSON",
	Long: `Samples the trailing window, decides both axes and registers new bounds
when either axis needs them. Exits non-zero when any axis failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the result only
		logger.SetOutput(cmd.ErrOrStderr())

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		runCtx, cancel := context.WithTimeout(ctx, cfg.Schedule.RunTimeout)
		defer cancel()
		runCtx = logger.WithTraceID(runCtx, models.NewUUID())

		result := a.runner.Run(runCtx)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}

		if !result.Succeeded() {
			return errRunFailed
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run on a schedule and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger.Infof("Starting %s in %s mode for %s", cfg.App.Name, cfg.App.Mode, cfg.Resource.ResourceID())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		scheduler := orchestrator.NewScheduler(orchestrator.SchedulerConfig{
			Interval:   cfg.Schedule.Interval,
			RunTimeout: cfg.Schedule.RunTimeout,
			Enabled:    cfg.Schedule.Enabled,
			Run:        a.runner.Run,
		})

		deps := api.Dependencies{
			Runs:   scheduler,
			Checks: a.healthChecks(),
			Bus:    a.bus,
		}
		if a.decisions != nil {
			deps.Decisions = a.decisions
		}
		if cfg.Prometheus.Enabled {
			deps.Metrics = a.metrics
		}

		server := api.NewServer(cfg.API, &cfg.WebSocket, deps)

		errChan := make(chan error, 1)
		go func() {
			logger.Infof("API server listening on port %d", cfg.API.Port)
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		var serveErr error
		select {
		case err := <-errChan:
			serveErr = fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
		}

		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}

		logger.Info("Server stopped gracefully")
		return serveErr
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the decision journal schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Database.MigrationTimeout)
		defer cancel()

		if version, err := db.GetVersion(ctx); err == nil {
			logger.Infof("Connected to %s", version)
		}

		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if err := migrator.Verify(ctx); err != nil {
			return err
		}
		logger.Info("Migrations completed successfully")
		return nil
	},
}

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token for the operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		duration := cfg.API.JWTDuration
		if duration <= 0 {
			duration = 24 * time.Hour
		}
		subject := tokenSubject
		if subject == "" {
			subject = cfg.API.OperatorUser
		}

		token, err := auth.NewService(cfg.API.JWTSecret, duration, cfg.API.JWTIssuer).GenerateToken(subject)
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash to use as api.operator_password_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject (defaults to api.operator_user)")
}
