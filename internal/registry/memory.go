package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the single-instance registry: a process-wide map with
// per-room locking. Concurrent pollers from both call participants
// mutate the same room, so every mutation runs under that room's lock.
//
// Rooms are never deleted by call operations; eviction happens only via
// EvictExpired, driven by a janitor in the API process.
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]*memRoom
	byCase map[string]map[string]struct{}

	liveness  time.Duration
	retention time.Duration
	clock     func() time.Time
}

type memRoom struct {
	mu   sync.Mutex
	room CallRoom
	log  []SignalEntry
}

type MemoryOptions struct {
	LivenessWindow time.Duration
	RetentionTTL   time.Duration
}

func NewMemoryStore(opts MemoryOptions) *MemoryStore {
	if opts.LivenessWindow <= 0 {
		opts.LivenessWindow = 30 * time.Minute
	}
	if opts.RetentionTTL <= 0 {
		opts.RetentionTTL = 24 * time.Hour
	}
	return &MemoryStore{
		rooms:     map[string]*memRoom{},
		byCase:    map[string]map[string]struct{}{},
		liveness:  opts.LivenessWindow,
		retention: opts.RetentionTTL,
		clock:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, caseID string, kind CallKind, initiatorRole, initiatorID string) (CallRoom, error) {
	room := CallRoom{
		RoomID:        uuid.NewString(),
		CaseID:        caseID,
		CallKind:      kind,
		InitiatorRole: initiatorRole,
		InitiatorID:   initiatorID,
		Status:        StatusRinging,
		CreatedAt:     s.clock().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.RoomID] = &memRoom{room: room}
	idx, ok := s.byCase[caseID]
	if !ok {
		idx = map[string]struct{}{}
		s.byCase[caseID] = idx
	}
	idx[room.RoomID] = struct{}{}
	return room, nil
}

func (s *MemoryStore) find(roomID string) (*memRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) Get(ctx context.Context, roomID string) (CallRoom, error) {
	r, err := s.find(roomID)
	if err != nil {
		return CallRoom{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.room, nil
}

func (s *MemoryStore) ListRinging(ctx context.Context, caseID string) ([]CallRoom, error) {
	now := s.clock().UTC()
	cutoff := now.Add(-s.liveness)

	s.mu.RLock()
	candidates := make([]*memRoom, 0, len(s.byCase[caseID]))
	for id := range s.byCase[caseID] {
		if r, ok := s.rooms[id]; ok {
			candidates = append(candidates, r)
		}
	}
	s.mu.RUnlock()

	out := make([]CallRoom, 0, len(candidates))
	for _, r := range candidates {
		r.mu.Lock()
		room := r.room
		r.mu.Unlock()
		if room.Status != StatusRinging {
			continue
		}
		if room.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, room)
	}
	return out, nil
}

func (s *MemoryStore) Join(ctx context.Context, roomID string) (CallRoom, error) {
	r, err := s.find(roomID)
	if err != nil {
		return CallRoom{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.room.Status != StatusRinging {
		return CallRoom{}, ErrNotJoinable
	}
	r.room.Status = StatusActive
	return r.room, nil
}

func (s *MemoryStore) End(ctx context.Context, roomID string) (Status, error) {
	r, err := s.find(roomID)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.room.Status
	r.room.Status = StatusEnded
	return prev, nil
}

func (s *MemoryStore) AppendSignal(ctx context.Context, roomID string, entry SignalEntry) (int, error) {
	r, err := s.find(roomID)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.room.Status == StatusEnded {
		return 0, ErrRoomEnded
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock().UTC()
	}
	r.log = append(r.log, entry)
	return len(r.log), nil
}

func (s *MemoryStore) SignalsAfter(ctx context.Context, roomID string, cursor int) ([]SignalEntry, int, error) {
	r, err := s.find(roomID)
	if err != nil {
		return nil, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	length := len(r.log)
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= length {
		return []SignalEntry{}, length, nil
	}
	out := make([]SignalEntry, length-cursor)
	copy(out, r.log[cursor:])
	return out, length, nil
}

// EvictExpired removes rooms older than the retention TTL and returns
// how many were dropped. Liveness filtering already hides stale rooms
// from listings; this bounds actual memory growth.
func (s *MemoryStore) EvictExpired(now time.Time) int {
	cutoff := now.UTC().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, r := range s.rooms {
		r.mu.Lock()
		old := r.room.CreatedAt.Before(cutoff)
		caseID := r.room.CaseID
		r.mu.Unlock()
		if !old {
			continue
		}
		delete(s.rooms, id)
		if idx, ok := s.byCase[caseID]; ok {
			delete(idx, id)
			if len(idx) == 0 {
				delete(s.byCase, caseID)
			}
		}
		evicted++
	}
	return evicted
}
