package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"tunely/internal/config"
	"tunely/internal/daemon"
	"tunely/internal/logging"
	"tunely/internal/notifications"
	"tunely/internal/pipeline"
	"tunely/internal/queue"
	"tunely/internal/storage"
	"tunely/internal/workflow"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the karaoke daemon and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runServe(commandCtx(cmd), cfg)
		},
	}
}

func runServe(cmdCtx context.Context, cfg *config.Config) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := logging.NewStreamHub(4096)
	logger, err := logging.NewFromConfig(cfg, hub)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, filepath.Join(cfg.Paths.LogDir, "requests"), "*.log", cfg.Logging.RetentionDays)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open request store", logging.Error(err))
		return err
	}
	defer store.Close()

	d, err := buildDaemon(cfg, store, logger, hub)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	logger.Info("listening", logging.String("address", d.Address()))

	<-signalCtx.Done()
	logger.Info("tunely daemon shutting down")
	d.Stop()
	return nil
}

// buildDaemon wires the production pipeline, per-request log files and the
// optional publisher and notifier into a daemon.
func buildDaemon(cfg *config.Config, store *queue.Store, logger *slog.Logger, hub *logging.StreamHub) (*daemon.Daemon, error) {
	p, err := pipeline.NewFromConfig(cfg, logger, workflow.StoreRecorder(store))
	if err != nil {
		return nil, err
	}

	opts := []workflow.ManagerOption{
		workflow.WithRequestLogs(workflow.NewRequestLogger(cfg, hub)),
	}
	publisher, err := storage.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if publisher != nil {
		opts = append(opts, workflow.WithPublisher(publisher))
	}
	if notifier := notifications.NewService(cfg); notifications.Enabled(notifier) {
		opts = append(opts, workflow.WithNotifier(notifier))
	}

	mgr := workflow.NewManager(cfg, store, p, logger, opts...)
	d, err := daemon.New(cfg, store, logger, mgr, hub)
	if err != nil {
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}
