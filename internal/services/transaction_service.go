package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// EventPublisher delivers change notifications after a commit.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, e amqp.TransactionEvent) error
}

// TransactionService applies user-scoped mutations, then invalidates the
// owner's cached dashboard and publishes a change event.
type TransactionService struct {
	store      storage.TransactionStore
	publisher  EventPublisher
	dashboards *DashboardService
	now        func() time.Time
}

// NewTransactionService wires the service. publisher and dashboards may be nil.
func NewTransactionService(store storage.TransactionStore, publisher EventPublisher, dashboards *DashboardService) *TransactionService {
	return &TransactionService{
		store:      store,
		publisher:  publisher,
		dashboards: dashboards,
		now:        time.Now,
	}
}

func (s *TransactionService) Create(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.CreateTransaction(ctx, userID, in, s.now())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.afterCommit(ctx, amqp.TransactionCreated, t.ID, userID)
	return t, nil
}

// Update overwrites the editable fields and refreshes the timestamp. Returns
// core.ErrNotFound when id does not exist or belongs to someone else.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.UpdateTransaction(ctx, userID, id, in, s.now())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.afterCommit(ctx, amqp.TransactionUpdated, t.ID, userID)
	return t, nil
}

// Delete removes a transaction owned by userID. Unknown and foreign ids are
// a silent no-op.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	removed, err := s.store.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if !removed {
		slog.DebugContext(ctx, "Delete matched no owned transaction", "id", id, "user_id", userID)
		return nil
	}
	s.afterCommit(ctx, amqp.TransactionDeleted, id, userID)
	return nil
}

func (s *TransactionService) afterCommit(ctx context.Context, kind amqp.EventKind, id, userID int64) {
	if s.dashboards != nil {
		s.dashboards.Invalidate(userID)
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping event", "kind", kind, "id", id)
		return
	}
	// The row is already committed; a publish failure is only logged.
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(kind, id, userID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", kind,
			"id", id,
			"error", err)
	}
}
