package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	sheetsmem "finanzas/internal/sheets/memory"
	"finanzas/internal/storage/memory"
)

type fixture struct {
	store  *memory.Store
	mirror *sheetsmem.Mirror
	worker *SyncWorker
	user   core.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	u, err := store.CreateUser(context.Background(), core.User{Name: "Ana", Email: "ana@x.com"})
	if err != nil {
		t.Fatal(err)
	}
	mirror := sheetsmem.New()
	return &fixture{store: store, mirror: mirror, worker: NewSyncWorker(store, mirror), user: u}
}

func (f *fixture) create(t *testing.T, category string) core.Transaction {
	t.Helper()
	tx, err := f.store.CreateTransaction(context.Background(), f.user.ID,
		core.TransactionInput{Type: core.Expense, Amount: core.Money{Cents: 100}, Category: category}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestHandleEventMirrorsCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.create(t, "food")

	if err := f.worker.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, tx.ID, f.user.ID)); err != nil {
		t.Fatalf("created: %v", err)
	}
	if ids := f.mirror.IDs(); len(ids) != 1 || ids[0] != tx.ID {
		t.Fatalf("expected row mirrored, got %v", ids)
	}

	_, _ = f.store.UpdateTransaction(ctx, f.user.ID, tx.ID,
		core.TransactionInput{Type: core.Income, Amount: core.Money{Cents: 900}, Category: "refund"}, time.Now())
	if err := f.worker.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionUpdated, tx.ID, f.user.ID)); err != nil {
		t.Fatalf("updated: %v", err)
	}
	rows, _ := f.mirror.List(ctx)
	if len(rows) != 1 || rows[0].Category != "refund" || rows[0].Amount.Cents != 900 {
		t.Fatalf("update not mirrored: %+v", rows)
	}

	_, _ = f.store.DeleteTransaction(ctx, f.user.ID, tx.ID)
	if err := f.worker.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionDeleted, tx.ID, f.user.ID)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if ids := f.mirror.IDs(); len(ids) != 0 {
		t.Fatalf("expected row removed, got %v", ids)
	}
}

func TestHandleEventForVanishedRowRemovesIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.create(t, "food")
	_ = f.mirror.Upsert(ctx, tx)
	_, _ = f.store.DeleteTransaction(ctx, f.user.ID, tx.ID)

	if err := f.worker.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionUpdated, tx.ID, f.user.ID)); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if ids := f.mirror.IDs(); len(ids) != 0 {
		t.Fatalf("stale row kept: %v", ids)
	}
}

type failingMirror struct{ *sheetsmem.Mirror }

func (failingMirror) Upsert(context.Context, core.Transaction) error {
	return errors.New("quota exceeded")
}

func TestHandleEventPropagatesMirrorFailure(t *testing.T) {
	f := newFixture(t)
	tx := f.create(t, "food")
	w := NewSyncWorker(f.store, failingMirror{sheetsmem.New()})

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(amqp.TransactionCreated, tx.ID, f.user.ID))
	if err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
}

func TestReconcileRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "a")
	b := f.create(t, "b")

	// Mirror holds a stale row and misses b.
	_ = f.mirror.Upsert(ctx, core.Transaction{ID: 99, Category: "ghost"})
	_ = f.mirror.Upsert(ctx, a)

	if err := f.worker.Reconcile(ctx); err != nil {
		t.Fatal(err)
	}
	if ids := f.mirror.IDs(); len(ids) != 2 || ids[0] != a.ID || ids[1] != b.ID {
		t.Fatalf("unexpected ids after reconcile: %v", ids)
	}
}

type countingMirror struct {
	*sheetsmem.Mirror
	replaced int
}

func (m *countingMirror) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	m.replaced++
	return m.Mirror.ReplaceAll(ctx, txs)
}

func TestReconcileSkipsWhenInSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.create(t, "food")

	mirror := &countingMirror{Mirror: sheetsmem.New()}
	// The sheet stores whole seconds only.
	stored := tx
	stored.OccurredAt = tx.OccurredAt.Truncate(time.Second)
	_ = mirror.Upsert(ctx, stored)

	if err := NewSyncWorker(f.store, mirror).Reconcile(ctx); err != nil {
		t.Fatal(err)
	}
	if mirror.replaced != 0 {
		t.Fatalf("in-sync mirror was rewritten %d times", mirror.replaced)
	}
}

type fakeConsumer struct {
	events []amqp.TransactionEvent
	errs   []error
}

func (c *fakeConsumer) ConsumeTransactionEvents(ctx context.Context, handler amqp.Handler) error {
	for _, e := range c.events {
		c.errs = append(c.errs, handler(ctx, e))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	f := newFixture(t)
	tx := f.create(t, "food")
	consumer := &fakeConsumer{events: []amqp.TransactionEvent{
		amqp.NewTransactionEvent(amqp.TransactionCreated, tx.ID, f.user.ID),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.worker.Run(ctx, consumer, time.Hour) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(f.mirror.IDs()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event never mirrored")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
