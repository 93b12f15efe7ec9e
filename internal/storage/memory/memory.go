package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and transactions in process memory. Used for local
// development (DATA_BACKEND=memory) and tests; nothing survives a restart.
type Store struct {
	mu     sync.Mutex
	users  []core.User
	txs    map[int64]core.Transaction
	nextTx int64
}

func New() *Store {
	return &Store{txs: make(map[int64]core.Transaction)}
}

// CreateUser implements storage.UserStore
func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, core.ErrDuplicateEmail
		}
	}
	u.ID = int64(len(s.users) + 1)
	u.RegisteredAt = u.RegisteredAt.UTC()
	s.users = append(s.users, u)
	return u, nil
}

// GetUserByEmail implements storage.UserStore
func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

// GetUserByID implements storage.UserStore
func (s *Store) GetUserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > int64(len(s.users)) {
		return core.User{}, core.ErrNotFound
	}
	return s.users[id-1], nil
}

// CreateTransaction implements storage.TransactionStore
func (s *Store) CreateTransaction(_ context.Context, userID int64, in core.TransactionInput, at time.Time) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID < 1 || userID > int64(len(s.users)) {
		return core.Transaction{}, core.ErrNotFound
	}
	s.nextTx++
	t := core.Transaction{
		ID:          s.nextTx,
		UserID:      userID,
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		OccurredAt:  at.UTC(),
	}
	s.txs[t.ID] = t
	return t, nil
}

// ListTransactions implements storage.TransactionStore
func (s *Store) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// GetTransaction implements storage.TransactionStore
func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

// UpdateTransaction implements storage.TransactionStore
func (s *Store) UpdateTransaction(_ context.Context, userID, id int64, in core.TransactionInput, at time.Time) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	t.Type = in.Type
	t.Amount = in.Amount
	t.Category = in.Category
	t.Description = in.Description
	t.OccurredAt = at.UTC()
	s.txs[id] = t
	return t, nil
}

// DeleteTransaction implements storage.TransactionStore
func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(s.txs, id)
	return true, nil
}

// FindTransaction implements storage.TransactionSource
func (s *Store) FindTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

// ListAllTransactions implements storage.TransactionSource
func (s *Store) ListAllTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
