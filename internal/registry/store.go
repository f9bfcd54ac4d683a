package registry

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("registry: room not found")

	// ErrNotJoinable: the room exists but is already active or ended.
	// Distinct from ErrNotFound so callers can tell "already answered"
	// from "gone".
	ErrNotJoinable = errors.New("registry: room not joinable")

	// ErrRoomEnded: signal submission on a terminal room.
	ErrRoomEnded = errors.New("registry: room ended")
)

// Store is the authoritative room registry. State is ephemeral by
// design: rooms are signaling sessions, and established media flows
// peer to peer, so a restart after negotiation costs nothing.
//
// All mutating operations are atomic per room. Implementations must not
// perform I/O while holding a room's critical section.
type Store interface {
	// Create allocates a fresh ringing room with an empty signal log.
	// Authorization is the caller's responsibility.
	Create(ctx context.Context, caseID string, kind CallKind, initiatorRole, initiatorID string) (CallRoom, error)

	// Get looks a room up by id, regardless of age or status.
	Get(ctx context.Context, roomID string) (CallRoom, error)

	// ListRinging returns the case's ringing rooms created within the
	// liveness window, so a counterpart's poll sees incoming calls but
	// not stale or finished ones.
	ListRinging(ctx context.Context, caseID string) ([]CallRoom, error)

	// Join transitions ringing -> active. Exactly one of N concurrent
	// joins succeeds; the rest get ErrNotJoinable.
	Join(ctx context.Context, roomID string) (CallRoom, error)

	// End transitions to ended and reports the prior status. Idempotent:
	// ending an ended room is a no-op that reports StatusEnded.
	End(ctx context.Context, roomID string) (Status, error)

	// AppendSignal appends one entry and returns the new log length.
	// Rejected with ErrRoomEnded on terminal rooms.
	AppendSignal(ctx context.Context, roomID string, entry SignalEntry) (int, error)

	// SignalsAfter returns entries past the cursor plus the new log
	// length. The cursor is the count of entries the caller has already
	// consumed; callers advance it to the returned length even when no
	// entries came back, so polling never re-delivers and never stalls.
	SignalsAfter(ctx context.Context, roomID string, cursor int) ([]SignalEntry, int, error)
}
