package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/cache"
	"spendwise/internal/cli"
	"spendwise/internal/core"
	apphttp "spendwise/internal/http"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
)

const sessionPurgeInterval = time.Hour

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	// The scheduler always exists so the budget figure and the development
	// trigger work; cron only runs when enabled.
	scheduler := cli.NewScheduler(cfg, repo, amqpClient, logger)
	services.SetDefaultScheduler(scheduler)

	authService := auth.NewService(repo, cfg.SessionTTL,
		auth.WithSessionCache(cache.NewLRUCache[core.Session](1000, time.Minute)))

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Repo:               repo,
		Auth:               authService,
		Scheduler:          scheduler,
		Budget:             core.MoneyFromDecimal(cfg.MonthlyBudget),
		Env:                cfg.AppEnv,
		CookieSecure:       cfg.SessionCookieSecure,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		Location:           cfg.Location(),
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cli.StopScheduler(ctx, scheduler, logger)
	})

	if cfg.SchedulerEnabled {
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start budget scheduler", applog.FieldError, err)
			os.Exit(1)
		}
		if cfg.SchedulerRunOnStart {
			go func() {
				if _, err := scheduler.TriggerWeeklyTasks(ctx); err != nil {
					logger.Warn("Startup weekly run finished with errors", applog.FieldError, err)
				}
			}()
		}
	} else {
		logger.Info("In-process scheduler disabled", "env", cfg.AppEnv)
	}

	go purgeSessions(ctx, authService, logger)

	go func() {
		logger.Info("Starting spendwise server",
			"port", cfg.Port,
			"env", cfg.AppEnv,
			"monthly_budget", cfg.MonthlyBudget.StringFixed(2))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func purgeSessions(ctx context.Context, svc *auth.Service, logger *applog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PurgeExpired(ctx); err != nil {
				logger.Warn("Session purge failed", applog.FieldError, err)
			}
		}
	}
}
