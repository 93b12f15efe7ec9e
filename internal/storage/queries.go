package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the raw SQL for both tables. Row types mirror the columns.
type Queries struct {
	db DBTX
}

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	RegisteredAt int64
}

type Transaction struct {
	ID          int64
	UserID      int64
	Type        string
	AmountCents int64
	Category    string
	Description string
	OccurredAt  int64
}

const createUser = `INSERT INTO users (name, email, password_hash, registered_at)
VALUES (?, ?, ?, ?)
RETURNING id, name, email, password_hash, registered_at`

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	RegisteredAt int64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Name, arg.Email, arg.PasswordHash, arg.RegisteredAt)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.PasswordHash, &i.RegisteredAt)
	return i, err
}

const getUserByEmail = `SELECT id, name, email, password_hash, registered_at
FROM users WHERE email = ? LIMIT 1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.PasswordHash, &i.RegisteredAt)
	return i, err
}

const getUserByID = `SELECT id, name, email, password_hash, registered_at
FROM users WHERE id = ? LIMIT 1`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.PasswordHash, &i.RegisteredAt)
	return i, err
}

const countUsersByEmail = `SELECT COUNT(*) FROM users WHERE email = ?`

func (q *Queries) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsersByEmail, email)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createTransaction = `INSERT INTO transactions (user_id, type, amount_cents, category, description, occurred_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, user_id, type, amount_cents, category, description, occurred_at`

type CreateTransactionParams struct {
	UserID      int64
	Type        string
	AmountCents int64
	Category    string
	Description string
	OccurredAt  int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID, arg.Type, arg.AmountCents, arg.Category, arg.Description, arg.OccurredAt)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Type, &i.AmountCents, &i.Category, &i.Description, &i.OccurredAt)
	return i, err
}

const getTransactionForUser = `SELECT id, user_id, type, amount_cents, category, description, occurred_at
FROM transactions WHERE id = ? AND user_id = ? LIMIT 1`

type GetTransactionForUserParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) GetTransactionForUser(ctx context.Context, arg GetTransactionForUserParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransactionForUser, arg.ID, arg.UserID)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Type, &i.AmountCents, &i.Category, &i.Description, &i.OccurredAt)
	return i, err
}

const getTransaction = `SELECT id, user_id, type, amount_cents, category, description, occurred_at
FROM transactions WHERE id = ? LIMIT 1`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Type, &i.AmountCents, &i.Category, &i.Description, &i.OccurredAt)
	return i, err
}

const listTransactionsByUser = `SELECT id, user_id, type, amount_cents, category, description, occurred_at
FROM transactions WHERE user_id = ?
ORDER BY occurred_at DESC, id DESC`

func (q *Queries) ListTransactionsByUser(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByUser, userID)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

const listAllTransactions = `SELECT id, user_id, type, amount_cents, category, description, occurred_at
FROM transactions ORDER BY id ASC`

func (q *Queries) ListAllTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listAllTransactions)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

const updateTransaction = `UPDATE transactions
SET type = ?, amount_cents = ?, category = ?, description = ?, occurred_at = ?
WHERE id = ? AND user_id = ?
RETURNING id, user_id, type, amount_cents, category, description, occurred_at`

type UpdateTransactionParams struct {
	Type        string
	AmountCents int64
	Category    string
	Description string
	OccurredAt  int64
	ID          int64
	UserID      int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.Type, arg.AmountCents, arg.Category, arg.Description, arg.OccurredAt, arg.ID, arg.UserID)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Type, &i.AmountCents, &i.Category, &i.Description, &i.OccurredAt)
	return i, err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

type DeleteTransactionParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) DeleteTransaction(ctx context.Context, arg DeleteTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.UserID, &i.Type, &i.AmountCents, &i.Category, &i.Description, &i.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
