package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/sheets"
	"finanzas/internal/storage"
)

// Consumer feeds decoded events to a handler until its context ends.
type Consumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.Handler) error
}

// SyncWorker keeps a TransactionMirror in step with the database: events
// apply single-row changes, and a periodic reconcile repairs any drift left
// by lost messages.
type SyncWorker struct {
	source storage.TransactionSource
	mirror sheets.TransactionMirror
}

func NewSyncWorker(source storage.TransactionSource, mirror sheets.TransactionMirror) *SyncWorker {
	return &SyncWorker{source: source, mirror: mirror}
}

// HandleEvent applies one change event. The database is the source of truth:
// created and updated events re-read the row rather than trusting the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, e amqp.TransactionEvent) error {
	switch e.Kind {
	case amqp.TransactionCreated, amqp.TransactionUpdated:
		t, err := w.source.FindTransaction(ctx, e.TransactionID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted after the event was published.
			slog.InfoContext(ctx, "Transaction gone before sync, removing", "id", e.TransactionID)
			return w.remove(ctx, e.TransactionID)
		}
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", e.TransactionID, err)
		}
		if err := w.mirror.Upsert(ctx, t); err != nil {
			return fmt.Errorf("mirror transaction %d: %w", t.ID, err)
		}
		slog.InfoContext(ctx, "Synced transaction", "id", t.ID, "kind", e.Kind)
		return nil
	case amqp.TransactionDeleted:
		return w.remove(ctx, e.TransactionID)
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

func (w *SyncWorker) remove(ctx context.Context, id int64) error {
	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove transaction %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Removed transaction from mirror", "id", id)
	return nil
}

// Reconcile rewrites the mirror when it differs from the database.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	want, err := w.source.ListAllTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	have, err := w.mirror.List(ctx)
	if err != nil {
		return fmt.Errorf("list mirror: %w", err)
	}
	if sameRows(want, have) {
		slog.DebugContext(ctx, "Mirror in sync", "rows", len(want))
		return nil
	}

	slog.InfoContext(ctx, "Mirror drifted, rewriting", "database_rows", len(want), "mirror_rows", len(have))
	if err := w.mirror.ReplaceAll(ctx, want); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	return nil
}

// RunReconciler reconciles immediately and then every interval until ctx
// ends. Failures are logged and retried on the next tick.
func (w *SyncWorker) RunReconciler(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.Reconcile(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Reconcile failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Run consumes events and reconciles periodically until ctx is cancelled or
// either loop fails. A nil consumer or non-positive interval disables that loop.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeTransactionEvents(gctx, w.HandleEvent)
		})
	}
	if interval > 0 {
		g.Go(func() error {
			return w.RunReconciler(gctx, interval)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// sameRows compares at the sheet's one-second timestamp resolution.
func sameRows(a, b []core.Transaction) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = sortedByID(a), sortedByID(b)
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.UserID != y.UserID || x.Type != y.Type || x.Amount != y.Amount ||
			x.Category != y.Category || x.Description != y.Description ||
			!x.OccurredAt.Truncate(time.Second).Equal(y.OccurredAt.Truncate(time.Second)) {
			return false
		}
	}
	return true
}

func sortedByID(in []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
