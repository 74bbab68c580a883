// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/spendwise, cmd/budget-scheduler, cmd/digest-worker and cmd/spendctl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/config"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/storage"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger for component at the given
// LOG_LEVEL and installs it as the slog default. Unknown levels fall back
// to info; config validation reports them separately.
func SetupLogger(component, level string) *applog.Logger {
	lvl, _ := config.ParseLogLevel(level)
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	cfg.Component = component

	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// Bootstrap loads .env, reads the configuration and sets up logging. It
// exits the process when the configuration is invalid.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(component, cfg.LogLevel)
	return LoadAndValidateConfig(logger, cfg), logger
}

// LoadAndValidateConfig validates cfg, loading it first when nil.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger, cfg *config.Config) *config.Config {
	if cfg == nil {
		cfg = config.Load()
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the SQLite repository, running pending migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitAMQP connects to the broker when AMQP_URL is set. A nil client means
// events are not published; connection failures are logged, not fatal.
func InitAMQP(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - budget events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// NewScheduler builds the budget scheduler from configuration. client may
// be nil.
func NewScheduler(cfg *config.Config, repo services.SchedulerStore, client *amqp.Client, logger *applog.Logger) *services.BudgetScheduler {
	var publisher services.EventPublisher
	if client != nil {
		publisher = client
	}
	return services.NewBudgetScheduler(repo, publisher, SchedulerOptions(cfg, logger))
}

// SchedulerOptions maps the scheduler settings of cfg.
func SchedulerOptions(cfg *config.Config, logger *applog.Logger) services.SchedulerOptions {
	return services.SchedulerOptions{
		Budget:   core.MoneyFromDecimal(cfg.MonthlyBudget),
		Schedule: cfg.SchedulerCron,
		Location: cfg.Location(),
		Logger:   logger,
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when cleanup has finished.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// StopScheduler stops the cron runner and waits for a running weekly job,
// giving up when ctx ends first.
func StopScheduler(ctx context.Context, s *services.BudgetScheduler, logger *applog.Logger) {
	if err := awaitDone(ctx, s.Stop().Done()); err != nil {
		logger.Warn("Scheduler did not stop before the shutdown timeout", applog.FieldError, err)
	}
}

func awaitDone(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
