package outbox

import (
	"sync"
	"time"
)

// Stats is a snapshot of the relay counters, reported by the outbox health check.
type Stats struct {
	IsRunning      bool
	PublishedCount uint64
	FailedCount    uint64
	DeadCount      uint64

	// LagSeconds is the age of the oldest message in the last batch.
	LagSeconds float64

	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

type stats struct {
	mu sync.Mutex
	s  Stats
}

func (st *stats) observe(batch []*Message) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	st.s.LastProcessedAt = &now
	st.s.OldestMessageAt = nil
	st.s.LagSeconds = 0
	for _, m := range batch {
		if st.s.OldestMessageAt == nil || m.CreatedAt.Before(*st.s.OldestMessageAt) {
			created := m.CreatedAt
			st.s.OldestMessageAt = &created
		}
	}
	if st.s.OldestMessageAt != nil {
		st.s.LagSeconds = now.Sub(*st.s.OldestMessageAt).Seconds()
	}
}

func (st *stats) published() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.PublishedCount++
}

func (st *stats) failed(err error, dead bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if dead {
		st.s.DeadCount++
	} else {
		st.s.FailedCount++
	}
	st.setError(err)
}

func (st *stats) errored(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.setError(err)
}

func (st *stats) setError(err error) {
	now := time.Now()
	st.s.LastError = err.Error()
	st.s.LastErrorAt = &now
}

func (st *stats) snapshot(running bool) Stats {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := st.s
	out.IsRunning = running
	return out
}
