package sheets

import (
	"context"

	"finanzas/internal/core"
)

// TransactionMirror is an external, eventually consistent copy of the
// transactions table keyed by transaction id.
type TransactionMirror interface {
	// Upsert writes t, replacing any row with the same id.
	Upsert(ctx context.Context, t core.Transaction) error
	// Remove deletes the row for id. Missing rows are not an error.
	Remove(ctx context.Context, id int64) error
	// ReplaceAll rewrites the mirror to hold exactly txs.
	ReplaceAll(ctx context.Context, txs []core.Transaction) error
	// List returns the mirrored rows in sheet order.
	List(ctx context.Context) ([]core.Transaction, error)
}
