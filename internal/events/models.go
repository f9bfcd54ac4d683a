package events

import "time"

// CallEvent is an immutable, append-only record of a call lifecycle
// transition.
//
// Invariants:
// - Events are never updated or deleted.
// - case_id is required; reporting is case-scoped.
// - Recording is best-effort; call operations never block on it.
//
// Storage (Postgres): table call_events with an INSERT-only policy,
// plus a case_call_stats projection updated in the same transaction.
type CallEvent struct {
	ID     string `json:"id" db:"id"`
	CaseID string `json:"case_id" db:"case_id"`
	RoomID string `json:"room_id" db:"room_id"`

	Type EventType `json:"type" db:"type"`

	// ActorID/ActorRole identify the resolved principal that caused the
	// transition. For EventTypeMissed the actor is the initiator.
	ActorID   string `json:"actor_id,omitempty" db:"actor_id"`
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`

	CallKind string `json:"call_kind" db:"call_kind"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCreated  EventType = "call_created"
	EventTypeAnswered EventType = "call_answered"
	EventTypeEnded    EventType = "call_ended"
	EventTypeMissed   EventType = "call_missed"
)
