package main

import (
	"context"
	"os"
	"time"

	"spendwise/internal/cli"
	applog "spendwise/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentScheduler)
	logger.Info("Starting budget-scheduler")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Events are optional; without a broker digests are still stored.
	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	scheduler := cli.NewScheduler(cfg, repo, amqpClient, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Waiting for a running weekly job to finish...")
		cli.StopScheduler(ctx, scheduler, logger)
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start budget scheduler", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Budget scheduler configured",
		"schedule", cfg.SchedulerCron,
		"timezone", cfg.SchedulerTimezone,
		"monthly_budget", cfg.MonthlyBudget.StringFixed(2),
		"next_run", scheduler.NextRun())

	if cfg.SchedulerRunOnStart {
		logger.Info("Running weekly tasks on startup...")
		if report, err := scheduler.TriggerWeeklyTasks(ctx); err != nil {
			logger.Error("Startup run finished with errors", applog.FieldError, err, "errors", len(report.Errors))
		} else {
			logger.Info("Startup run complete",
				"alerts_created", report.AlertsCreated,
				"digests_created", report.DigestsCreated)
		}
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Budget-scheduler shutdown complete")
}
