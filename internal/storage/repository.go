package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finanzas/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

// dsn enables foreign keys, WAL and a busy timeout on every pooled connection.
func dsn(dbPath string) string {
	return "file:" + dbPath +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser implements UserStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	count, err := r.queries.CountUsersByEmail(ctx, u.Email)
	if err != nil {
		return core.User{}, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return core.User{}, core.ErrDuplicateEmail
	}

	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		RegisteredAt: u.RegisteredAt.UTC().UnixNano(),
	})
	if err != nil {
		// A concurrent registration can slip past the pre-check.
		if isUniqueViolation(err) {
			return core.User{}, core.ErrDuplicateEmail
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", row.ID)
	return toCoreUser(row), nil
}

// GetUserByEmail implements UserStore
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return toCoreUser(row), nil
}

// GetUserByID implements UserStore
func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return toCoreUser(row), nil
}

// CreateTransaction implements TransactionStore
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID int64, in core.TransactionInput, at time.Time) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:      userID,
		Type:        in.Type.String(),
		AmountCents: in.Amount.Cents,
		Category:    in.Category,
		Description: in.Description,
		OccurredAt:  at.UTC().UnixNano(),
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"type", row.Type,
		"amount_cents", row.AmountCents,
		"category", row.Category)

	return toCoreTransaction(row), nil
}

// ListTransactions implements TransactionStore
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toCoreTransactions(rows), nil
}

// GetTransaction implements TransactionStore
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransactionForUser(ctx, GetTransactionForUserParams{ID: id, UserID: userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return toCoreTransaction(row), nil
}

// UpdateTransaction implements TransactionStore
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id int64, in core.TransactionInput, at time.Time) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	row, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		Type:        in.Type.String(),
		AmountCents: in.Amount.Cents,
		Category:    in.Category,
		Description: in.Description,
		OccurredAt:  at.UTC().UnixNano(),
		ID:          id,
		UserID:      userID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated in SQLite", "id", row.ID, "user_id", row.UserID)
	return toCoreTransaction(row), nil
}

// DeleteTransaction implements TransactionStore
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) (bool, error) {
	n, err := r.queries.DeleteTransaction(ctx, DeleteTransactionParams{ID: id, UserID: userID})
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id, "user_id", userID)
	}
	return n > 0, nil
}

// FindTransaction implements TransactionSource
func (r *SQLiteRepository) FindTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return toCoreTransaction(row), nil
}

// ListAllTransactions implements TransactionSource
func (r *SQLiteRepository) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListAllTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	return toCoreTransactions(rows), nil
}

func toCoreUser(u User) core.User {
	return core.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		RegisteredAt: time.Unix(0, u.RegisteredAt).UTC(),
	}
}

func toCoreTransaction(t Transaction) core.Transaction {
	return core.Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        core.TransactionType(t.Type),
		Amount:      core.Money{Cents: t.AmountCents},
		Category:    t.Category,
		Description: t.Description,
		OccurredAt:  time.Unix(0, t.OccurredAt).UTC(),
	}
}

func toCoreTransactions(rows []Transaction) []core.Transaction {
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		out[i] = toCoreTransaction(row)
	}
	return out
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}
