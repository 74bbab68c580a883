package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/sheets"
)

// EventStore loads the records referenced by budget events.
type EventStore interface {
	GetUser(ctx context.Context, id string) (core.User, error)
	GetWeeklyDigest(ctx context.Context, id string) (core.WeeklyDigest, error)
	GetBudgetAlert(ctx context.Context, id string) (core.BudgetAlert, error)
}

// DigestWorker exports digests and alerts announced over AMQP to the
// configured exporter.
type DigestWorker struct {
	store    EventStore
	exporter sheets.Exporter

	exported atomic.Int64
	skipped  atomic.Int64
}

func NewDigestWorker(store EventStore, exporter sheets.Exporter) *DigestWorker {
	return &DigestWorker{store: store, exporter: exporter}
}

// HandleEvent exports the record named by msg. A record or user that no
// longer exists is skipped rather than retried, since a requeue would
// never succeed.
func (w *DigestWorker) HandleEvent(ctx context.Context, msg *amqp.BudgetEventMessage) error {
	slog.InfoContext(ctx, "Processing budget event",
		"type", msg.Type,
		"id", msg.ID,
		"user_id", msg.UserID)

	var (
		ref string
		err error
	)
	switch msg.Type {
	case amqp.EventDigestCreated:
		ref, err = w.exportDigest(ctx, msg.ID)
	case amqp.EventAlertCreated:
		ref, err = w.exportAlert(ctx, msg.ID)
	default:
		return fmt.Errorf("unsupported event type %q", msg.Type)
	}

	if errors.Is(err, core.ErrNotFound) {
		w.skipped.Add(1)
		slog.WarnContext(ctx, "Referenced record is gone, skipping event",
			"type", msg.Type,
			"id", msg.ID,
			"error", err)
		return nil
	}
	if err != nil {
		return err
	}

	w.exported.Add(1)
	slog.InfoContext(ctx, "Exported budget event", "type", msg.Type, "id", msg.ID, "ref", ref)
	return nil
}

func (w *DigestWorker) exportDigest(ctx context.Context, id string) (string, error) {
	digest, err := w.store.GetWeeklyDigest(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get digest: %w", err)
	}
	user, err := w.store.GetUser(ctx, digest.UserID)
	if err != nil {
		return "", fmt.Errorf("get digest owner: %w", err)
	}
	ref, err := w.exporter.ExportDigest(ctx, user, digest)
	if err != nil {
		return "", fmt.Errorf("export digest: %w", err)
	}
	return ref, nil
}

func (w *DigestWorker) exportAlert(ctx context.Context, id string) (string, error) {
	alert, err := w.store.GetBudgetAlert(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get alert: %w", err)
	}
	user, err := w.store.GetUser(ctx, alert.UserID)
	if err != nil {
		return "", fmt.Errorf("get alert owner: %w", err)
	}
	ref, err := w.exporter.ExportAlert(ctx, user, alert)
	if err != nil {
		return "", fmt.Errorf("export alert: %w", err)
	}
	return ref, nil
}

// Stats returns how many events were exported and skipped.
func (w *DigestWorker) Stats() (exported, skipped int64) {
	return w.exported.Load(), w.skipped.Load()
}
