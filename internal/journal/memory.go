package journal

import (
	"context"
	"sync"
)

// MemoryRepository keeps entries in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append implements Repository.
func (r *MemoryRepository) Append(_ context.Context, entries ...*Entry) error {
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		c := *e
		c.Args = append([]string(nil), e.Args...)
		r.entries = append(r.entries, &c)
	}
	return nil
}

// List implements Repository.
func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Entry
	for _, e := range r.entries {
		if filter.match(e) {
			c := *e
			out = append(out, &c)
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}
