package events

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory append-only repository useful for
// tests and single-instance runs without a database.
type MemoryRepo struct {
	mu     sync.Mutex
	events []CallEvent
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e CallEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *MemoryRepo) ListByCase(ctx context.Context, caseID string, from, to time.Time) ([]CallEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallEvent, 0)
	for _, e := range r.events {
		if e.CaseID != caseID {
			continue
		}
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.CreatedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) Events() []CallEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallEvent, len(r.events))
	copy(out, r.events)
	return out
}
