package storage

import (
	"context"
	"time"

	"finanzas/internal/core"
)

// Ports implemented by every storage backend (SQLite and in-memory).
type (
	UserStore interface {
		// CreateUser inserts u and returns it with ID set.
		// Returns core.ErrDuplicateEmail when the email is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByID(ctx context.Context, id int64) (core.User, error)
	}

	// TransactionStore scopes every read and write by the owning user id.
	TransactionStore interface {
		CreateTransaction(ctx context.Context, userID int64, in core.TransactionInput, at time.Time) (core.Transaction, error)
		// ListTransactions returns the user's transactions, newest first.
		ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
		// GetTransaction returns core.ErrNotFound for missing or foreign ids.
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		// UpdateTransaction overwrites all editable fields and the timestamp.
		UpdateTransaction(ctx context.Context, userID, id int64, in core.TransactionInput, at time.Time) (core.Transaction, error)
		// DeleteTransaction reports whether a row owned by userID was removed.
		DeleteTransaction(ctx context.Context, userID, id int64) (bool, error)
	}

	// TransactionSource is the unscoped read side used by the sheets worker.
	TransactionSource interface {
		FindTransaction(ctx context.Context, id int64) (core.Transaction, error)
		ListAllTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	Store interface {
		UserStore
		TransactionStore
		TransactionSource
		Ping(ctx context.Context) error
		Close() error
	}
)
