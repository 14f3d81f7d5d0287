package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/slms/internal/api"
	"github.com/erazemk/slms/internal/clock"
	"github.com/erazemk/slms/internal/config"
	"github.com/erazemk/slms/internal/db"
	"github.com/erazemk/slms/internal/directory"
	"github.com/erazemk/slms/internal/store"
)

type serveFlags struct {
	configPath string
	addr       string
	logPath    string
	journal    string
}

func newServeCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Listen = f.addr
			}
			if cmd.Flags().Changed("log") {
				cfg.LogFile = f.logPath
			}
			if cmd.Flags().Changed("journal") {
				cfg.Journal = f.journal
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML config file (default: $"+config.EnvVar+" or built-in defaults)")
	cmd.Flags().StringVarP(&f.addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().StringVarP(&f.logPath, "log", "l", "", "log file path (default: no file, stdout/stderr only)")
	cmd.Flags().StringVarP(&f.journal, "journal", "j", db.MemoryDSN, "SQLite activity journal path")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	closeLog, err := setupLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	database, err := db.Open(cfg.Journal)
	if err != nil {
		slog.Error("failed to open journal", "error", err)
		return err
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure journal schema", "error", err)
		return err
	}
	slog.Info("journal ready", "path", cfg.Journal)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = store.GetJWTSecret(ctx, database)
		if err != nil {
			slog.Error("failed to get JWT secret", "error", err)
			return err
		}
	}

	clk := clock.Real()
	dir, err := directory.New(directory.Options{
		Scheme:   cfg.StudentID,
		Clock:    clk,
		HashCost: cfg.BcryptCost,
		Recorder: store.NewJournal(database),
	})
	if err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	seed, err := cfg.DirectorySeed()
	if err != nil {
		return fmt.Errorf("preparing seed: %w", err)
	}
	if err := dir.Bootstrap(ctx, seed); err != nil {
		slog.Error("failed to load seed data", "error", err)
		return err
	}
	slog.Info("catalog loaded",
		"items", len(seed.Items), "admins", len(seed.Admins), "sales", len(seed.Sales))

	router := api.NewRouter(dir, database, api.Options{
		JWTSecret:   jwtSecret,
		TokenExpiry: cfg.TokenExpiry,
		Clock:       clk,
	})

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Listen)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return err
	}

	if err := dir.CheckConsistency(); err != nil {
		slog.Error("ledger and accounts diverged", "error", err)
	}
	slog.Info("server stopped, closing journal")
	return nil
}
