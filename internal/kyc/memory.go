package kyc

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps submissions in process memory. Values are copied in
// and out so callers never share state with the store.
type MemoryRepository struct {
	mu    sync.RWMutex
	items []Submission
	index map[string]int
}

// NewMemoryRepository creates an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{index: make(map[string]int)}
}

// List implements Repository.
func (m *MemoryRepository) List(ctx context.Context, f Filter) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Submission{}
	for i := range m.items {
		if f.Match(&m.items[i]) {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

// Append implements Repository.
func (m *MemoryRepository) Append(ctx context.Context, s *Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[s.ID]; ok {
		return ErrDuplicate
	}
	for i := range m.items {
		open := m.items[i].Status == StatusPending || m.items[i].Status == StatusApproved
		if open && (Filter{Address: s.Address}).Match(&m.items[i]) {
			return ErrDuplicate
		}
	}
	m.index[s.ID] = len(m.items)
	m.items = append(m.items, *s)
	return nil
}

// Update implements Repository.
func (m *MemoryRepository) Update(ctx context.Context, id string, status Status, reason string) (*Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	sub := &m.items[i]
	if sub.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	sub.Status = status
	sub.RejectionReason = reason
	sub.ReviewedAt = time.Now().UTC()

	out := *sub
	return &out, nil
}
