package registry

import (
	"encoding/json"
	"time"
)

// CallRoom is one signaling session for one call attempt on one case.
//
// Invariants:
// - RoomID is assigned at creation and never reused.
// - Status only moves forward: ringing -> active -> ended, or ringing -> ended.
// - The signal log is append-only; entries are never mutated or removed.
type CallRoom struct {
	RoomID        string    `json:"roomId"`
	CaseID        string    `json:"caseId"`
	CallKind      CallKind  `json:"callKind"`
	InitiatorRole string    `json:"initiatorRole"`
	InitiatorID   string    `json:"initiatorId"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type CallKind string

const (
	CallKindAudio CallKind = "audio"
	CallKindVideo CallKind = "video"
)

func ValidCallKind(k CallKind) bool {
	return k == CallKindAudio || k == CallKindVideo
}

type Status string

const (
	StatusRinging Status = "ringing"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// SignalEntry is one opaque negotiation message. The relay never
// interprets Payload; ordering within a room's log is the only
// guarantee the two peers rely on.
type SignalEntry struct {
	Kind       SignalKind      `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	SenderID   string          `json:"senderId"`
	SenderRole string          `json:"senderRole"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "ice-candidate"
)

func ValidSignalKind(k SignalKind) bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalCandidate:
		return true
	default:
		return false
	}
}
