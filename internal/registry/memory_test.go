package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(MemoryOptions{LivenessWindow: 30 * time.Minute, RetentionTTL: 24 * time.Hour})
}

func mustCreate(t *testing.T, s *MemoryStore, caseID string) CallRoom {
	t.Helper()
	room, err := s.Create(context.Background(), caseID, CallKindVideo, "client", "cl-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return room
}

func TestCreate_FreshRoomIsRingingWithEmptyLog(t *testing.T) {
	s := newTestStore()
	room := mustCreate(t, s, "case-1")

	got, err := s.Get(context.Background(), room.RoomID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != StatusRinging {
		t.Fatalf("expected ringing, got %q", got.Status)
	}

	entries, length, err := s.SignalsAfter(context.Background(), room.RoomID, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(entries) != 0 || length != 0 {
		t.Fatalf("expected empty log, got %d entries length %d", len(entries), length)
	}
}

func TestCreate_RoomIDsNeverRepeat(t *testing.T) {
	s := newTestStore()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		room := mustCreate(t, s, "case-1")
		if seen[room.RoomID] {
			t.Fatalf("room id %s reused", room.RoomID)
		}
		seen[room.RoomID] = true
	}
}

func TestGet_UnknownRoom(t *testing.T) {
	s := newTestStore()
	if _, err := s.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJoin_TransitionsRingingToActive(t *testing.T) {
	s := newTestStore()
	room := mustCreate(t, s, "case-1")

	joined, err := s.Join(context.Background(), room.RoomID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if joined.Status != StatusActive {
		t.Fatalf("expected active, got %q", joined.Status)
	}
}

func TestJoin_NonRingingNeverSilentlySucceeds(t *testing.T) {
	s := newTestStore()
	room := mustCreate(t, s, "case-1")

	if _, err := s.Join(context.Background(), room.RoomID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := s.Join(context.Background(), room.RoomID); err != ErrNotJoinable {
		t.Fatalf("expected ErrNotJoinable on active room, got %v", err)
	}

	if _, err := s.End(context.Background(), room.RoomID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := s.Join(context.Background(), room.RoomID); err != ErrNotJoinable {
		t.Fatalf("expected ErrNotJoinable on ended room, got %v", err)
	}

	if _, err := s.Join(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJoin_ConcurrentJoinsExactlyOneWins(t *testing.T) {
	s := newTestStore()
	room := mustCreate(t, s, "case-1")

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Join(context.Background(), room.RoomID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch err {
		case nil:
			wins++
		case ErrNotJoinable:
		default:
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning join, got %d", wins)
	}
}

func TestEnd_IdempotentAndReportsPreviousStatus(t *testing.T) {
	s := newTestStore()
	room := mustCreate(t, s, "case-1")

	prev, err := s.End(context.Background(), room.RoomID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if prev != StatusRinging {
		t.Fatalf("expected previous status ringing, got %q", prev)
	}

	prev, err = s.End(context.Background(), room.RoomID)
	if err != nil {
		t.Fatalf("expected second end to be a no-op, got %v", err)
	}
	if prev != StatusEnded {
		t.Fatalf("expected previous status ended, got %q", prev)
	}

	got, err := s.Get(context.Background(), room.RoomID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("expected ended, got %q", got.Status)
	}
}

func TestAppendSignal_RejectedOnEndedRoom(t *testing.T) {
	s := newTestStore()
	room := mustCreate(t, s, "case-1")
	if _, err := s.End(context.Background(), room.RoomID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, err := s.AppendSignal(context.Background(), room.RoomID, SignalEntry{Kind: SignalOffer, Payload: json.RawMessage(`{}`)})
	if err != ErrRoomEnded {
		t.Fatalf("expected ErrRoomEnded, got %v", err)
	}
}

func TestAppendSignal_ConcurrentAppendsLoseNothing(t *testing.T) {
	s := newTestStore()
	room := mustCreate(t, s, "case-1")

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i))
			if _, err := s.AppendSignal(context.Background(), room.RoomID, SignalEntry{Kind: SignalCandidate, Payload: payload}); err != nil {
				t.Errorf("unexpected err: %v", err)
			}
		}(i)
	}
	wg.Wait()

	entries, length, err := s.SignalsAfter(context.Background(), room.RoomID, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if length != n || len(entries) != n {
		t.Fatalf("expected %d entries, got %d (length %d)", n, len(entries), length)
	}
}

func TestSignalsAfter_MonotonicPrefixSemantics(t *testing.T) {
	s := newTestStore()
	room := mustCreate(t, s, "case-1")

	for i := 0; i < 5; i++ {
		payload := json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i))
		if _, err := s.AppendSignal(context.Background(), room.RoomID, SignalEntry{Kind: SignalCandidate, Payload: payload}); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	all, length, err := s.SignalsAfter(context.Background(), room.RoomID, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if length != 5 {
		t.Fatalf("expected length 5, got %d", length)
	}

	// Entries for a later cursor are a strict suffix of the full read.
	for cursor := 1; cursor <= 5; cursor++ {
		part, partLen, err := s.SignalsAfter(context.Background(), room.RoomID, cursor)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if partLen != 5 {
			t.Fatalf("expected length 5 at cursor %d, got %d", cursor, partLen)
		}
		if len(part) != 5-cursor {
			t.Fatalf("expected %d entries at cursor %d, got %d", 5-cursor, cursor, len(part))
		}
		for i, e := range part {
			if string(e.Payload) != string(all[cursor+i].Payload) {
				t.Fatalf("reordered entry at cursor %d index %d", cursor, i)
			}
		}
	}

	// Cursor past the end: empty result, length still reported so the
	// poller's cursor never stalls.
	part, partLen, err := s.SignalsAfter(context.Background(), room.RoomID, 99)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(part) != 0 || partLen != 5 {
		t.Fatalf("expected empty result with length 5, got %d entries length %d", len(part), partLen)
	}
}

func TestListRinging_FiltersStatusAndLivenessWindow(t *testing.T) {
	s := newTestStore()
	now := time.Now()
	s.clock = func() time.Time { return now }

	stale := mustCreate(t, s, "case-1")
	// Age the stale room past the liveness window without touching status.
	s.clock = func() time.Time { return now.Add(31 * time.Minute) }
	fresh := mustCreate(t, s, "case-1")
	answered := mustCreate(t, s, "case-1")
	otherCase := mustCreate(t, s, "case-2")
	_ = otherCase

	if _, err := s.Join(context.Background(), answered.RoomID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rooms, err := s.ListRinging(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rooms) != 1 || rooms[0].RoomID != fresh.RoomID {
		t.Fatalf("expected only the fresh ringing room, got %+v", rooms)
	}

	// The stale room is hidden from listings but still directly gettable.
	got, err := s.Get(context.Background(), stale.RoomID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != StatusRinging {
		t.Fatalf("expected stale room still ringing, got %q", got.Status)
	}
}

func TestEvictExpired_DropsOnlyRoomsPastRetention(t *testing.T) {
	s := newTestStore()
	now := time.Now()
	s.clock = func() time.Time { return now }

	old := mustCreate(t, s, "case-1")
	s.clock = func() time.Time { return now.Add(25 * time.Hour) }
	recent := mustCreate(t, s, "case-1")

	evicted := s.EvictExpired(now.Add(25 * time.Hour))
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, err := s.Get(context.Background(), old.RoomID); err != ErrNotFound {
		t.Fatalf("expected old room gone, got %v", err)
	}
	if _, err := s.Get(context.Background(), recent.RoomID); err != nil {
		t.Fatalf("expected recent room kept, got %v", err)
	}
}
