package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// DashboardService builds per-user dashboards, caching them until the next
// mutation for that user or until the TTL lapses.
type DashboardService struct {
	users storage.UserStore
	txs   storage.TransactionStore
	cache *cache.LRUCache[int64, core.Dashboard]

	// generations counts invalidations per user. A load only lands in the
	// cache if no invalidation happened while it was reading.
	mu          sync.Mutex
	generations map[int64]uint64
}

// NewDashboardService caches up to size dashboards for ttl. size <= 0
// disables caching.
func NewDashboardService(users storage.UserStore, txs storage.TransactionStore, size int, ttl time.Duration) *DashboardService {
	s := &DashboardService{users: users, txs: txs, generations: make(map[int64]uint64)}
	if size > 0 && ttl > 0 {
		s.cache = cache.NewLRUCache[int64, core.Dashboard](size, ttl)
	}
	return s
}

// Get returns the dashboard for userID. core.ErrNotFound means the user is gone.
func (s *DashboardService) Get(ctx context.Context, userID int64) (core.Dashboard, error) {
	if s.cache != nil {
		if d, ok := s.cache.Get(userID); ok {
			return d, nil
		}
	}

	gen := s.generation(userID)

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return core.Dashboard{}, err
	}
	txs, err := s.txs.ListTransactions(ctx, userID)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}

	d := core.Summarize(user, txs)
	s.store(userID, gen, d)
	return d, nil
}

func (s *DashboardService) Invalidate(userID int64) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
	s.cache.Delete(userID)
}

func (s *DashboardService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// store caches d unless userID was invalidated after gen was read.
func (s *DashboardService) store(userID int64, gen uint64, d core.Dashboard) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.cache.Set(userID, d)
}

// Cache exposes the underlying cache for cleanup and metrics; nil when disabled.
func (s *DashboardService) Cache() *cache.LRUCache[int64, core.Dashboard] {
	return s.cache
}
