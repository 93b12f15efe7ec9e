package memory

import (
	"context"
	"sort"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/sheets"
)

var _ sheets.TransactionMirror = (*Mirror)(nil)

// Mirror is an in-process TransactionMirror. The worker tests run the sync
// loop against it.
type Mirror struct {
	mu    sync.Mutex
	order []int64
	rows  map[int64]core.Transaction
}

func New() *Mirror {
	return &Mirror{rows: make(map[int64]core.Transaction)}
}

func (m *Mirror) Upsert(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.rows[t.ID] = t
	return nil
}

func (m *Mirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return nil
	}
	delete(m.rows, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Mirror) ReplaceAll(_ context.Context, txs []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[int64]core.Transaction, len(txs))
	m.order = m.order[:0]
	for _, t := range txs {
		if _, ok := m.rows[t.ID]; !ok {
			m.order = append(m.order, t.ID)
		}
		m.rows[t.ID] = t
	}
	return nil
}

func (m *Mirror) List(_ context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.rows[id])
	}
	return out, nil
}

// IDs returns the mirrored ids in ascending order.
func (m *Mirror) IDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := append([]int64(nil), m.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
