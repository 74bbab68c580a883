package cli

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"spendwise/internal/config"
	applog "spendwise/internal/log"

	"github.com/shopspring/decimal"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(applog.ComponentScheduler, "debug")
	if logger.Component() != applog.ComponentScheduler {
		t.Errorf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}

	logger = SetupLogger(applog.ComponentApp, "bogus")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}

func TestSchedulerOptions(t *testing.T) {
	cfg := &config.Config{
		MonthlyBudget:     decimal.RequireFromString("750.50"),
		SchedulerCron:     "0 8 * * 1",
		SchedulerTimezone: "Europe/Rome",
	}

	opts := SchedulerOptions(cfg, nil)
	if opts.Budget.Cents != 75050 {
		t.Errorf("budget cents = %d, want 75050", opts.Budget.Cents)
	}
	if opts.Schedule != "0 8 * * 1" {
		t.Errorf("schedule = %q", opts.Schedule)
	}
	if opts.Location.String() != "Europe/Rome" {
		t.Errorf("location = %v", opts.Location)
	}
}

func TestNewScheduler_WithoutBroker(t *testing.T) {
	cfg := &config.Config{
		MonthlyBudget:     decimal.NewFromInt(500),
		SchedulerCron:     "0 9 * * 0",
		SchedulerTimezone: "UTC",
	}
	sched := NewScheduler(cfg, nil, nil, nil)
	if sched.Budget().Cents != 50000 {
		t.Errorf("budget = %v", sched.Budget())
	}
	if !sched.NextRun().IsZero() {
		t.Error("scheduler should not be started")
	}
}

func TestInitAMQP_Disabled(t *testing.T) {
	logger := applog.New(applog.Config{Level: slog.LevelError})
	if c := InitAMQP(logger, &config.Config{}); c != nil {
		t.Fatal("expected nil client without AMQP_URL")
	}
}

func TestAwaitDone(t *testing.T) {
	closed := make(chan struct{})
	close(closed)
	if err := awaitDone(context.Background(), closed); err != nil {
		t.Errorf("closed channel: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := awaitDone(ctx, make(chan struct{}))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("wait did not honor the context deadline")
	}
}

func TestStopScheduler_Idle(t *testing.T) {
	cfg := &config.Config{
		MonthlyBudget:     decimal.NewFromInt(500),
		SchedulerCron:     "0 9 * * 0",
		SchedulerTimezone: "UTC",
	}
	sched := NewScheduler(cfg, nil, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	StopScheduler(ctx, sched, applog.New(applog.Config{Level: slog.LevelError}))
	if ctx.Err() != nil {
		t.Error("stopping an idle scheduler should not wait for the deadline")
	}
}
