package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sarelsmotors/garage/internal/database"
	"github.com/sarelsmotors/garage/internal/tasks"
	"github.com/sarelsmotors/garage/pkg/config"
	"github.com/sarelsmotors/garage/pkg/queue"
	"github.com/sarelsmotors/garage/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := util.ValidateCronExpr(cfg.Audit.PruneCron); err != nil {
		logger.Error("invalid AUDIT_PRUNE_CRON", "cron", cfg.Audit.PruneCron, "error", err)
		os.Exit(1)
	}

	logger.Info("starting garage worker")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	srv := queue.NewServer(&cfg.Redis, 10)

	handler := tasks.NewHandler(db, logger)
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	scheduler := queue.NewScheduler(&cfg.Redis)
	pruneTask, err := tasks.NewAuditPruneTask(cfg.Audit.RetentionDays)
	if err != nil {
		logger.Error("failed to build audit prune task", "error", err)
		os.Exit(1)
	}
	entryID, err := scheduler.Register(cfg.Audit.PruneCron, pruneTask)
	if err != nil {
		logger.Error("failed to schedule audit prune", "error", err)
		os.Exit(1)
	}
	if next, err := util.NextCronTime(cfg.Audit.PruneCron, time.Now()); err == nil {
		logger.Info("audit prune scheduled", "entry_id", entryID, "next_run", next, "retention_days", cfg.Audit.RetentionDays)
	}

	if err := srv.Start(mux); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("scheduler error", "error", err)
		srv.Shutdown()
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("worker stopped")
}
