package presence

import (
	"context"
	"sync"
	"time"
)

// Tracker answers "is this principal effectively online": has the
// account shown activity within the presence window. The lifecycle
// controller touches it on every authorized call operation and reads it
// to decide whether a missed-call follower also needs the offline
// notification path.
type Tracker interface {
	Touch(ctx context.Context, principalID string)
	Online(ctx context.Context, principalID string) bool
}

// MemoryTracker is the single-instance tracker.
type MemoryTracker struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	clock  func() time.Time
}

func NewMemoryTracker(window time.Duration) *MemoryTracker {
	if window <= 0 {
		window = 2 * time.Minute
	}
	return &MemoryTracker{
		seen:   map[string]time.Time{},
		window: window,
		clock:  time.Now,
	}
}

func (t *MemoryTracker) Touch(ctx context.Context, principalID string) {
	if principalID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[principalID] = t.clock()
}

func (t *MemoryTracker) Online(ctx context.Context, principalID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.seen[principalID]
	if !ok {
		return false
	}
	return t.clock().Sub(last) <= t.window
}
