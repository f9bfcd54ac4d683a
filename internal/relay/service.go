package relay

import (
	"context"
	"encoding/json"
	"errors"

	"casecall-platform/internal/access"
	"casecall-platform/internal/directory"
	"casecall-platform/internal/presence"
	"casecall-platform/internal/registry"
)

var ErrInvalidKind = errors.New("relay: invalid signal kind")

// Service carries SDP offer/answer and ICE-candidate payloads between
// the two sides of a room without interpreting them.
//
// Guarantees:
// - One total order per room, across all kinds. ICE candidates are only
//   valid after the offer/answer they belong to, so consumers must
//   process entries strictly in returned order.
// - Delivery is at-least-once from the client's perspective; the
//   poller's own cursor is the only acknowledgment.
//
// The relay does not cap how many offers a room carries; telling a
// fresh call's offer apart from a renegotiation offer is the browsers'
// contract, not enforced here.
type Service struct {
	store    registry.Store
	access   *access.Resolver
	dir      directory.Repository
	presence presence.Tracker
}

func NewService(store registry.Store, resolver *access.Resolver, dir directory.Repository, tracker presence.Tracker) *Service {
	return &Service{store: store, access: resolver, dir: dir, presence: tracker}
}

// authorize loads the room and resolves the credential against the
// room's case. Every relay operation starts here; nothing trusts a
// caller-declared role.
func (s *Service) authorize(ctx context.Context, roomID, credential string) (registry.CallRoom, access.Principal, error) {
	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return registry.CallRoom{}, access.Principal{}, err
	}
	cse, err := s.dir.FindCase(ctx, room.CaseID)
	if err != nil {
		return registry.CallRoom{}, access.Principal{}, err
	}
	p, err := s.access.ResolveForCase(ctx, cse, credential)
	if err != nil {
		return registry.CallRoom{}, access.Principal{}, err
	}
	s.presence.Touch(ctx, p.ID)
	return room, p, nil
}

// Submit appends one opaque negotiation message and returns the new
// log length.
func (s *Service) Submit(ctx context.Context, credential, roomID string, kind registry.SignalKind, payload json.RawMessage) (int, error) {
	if !registry.ValidSignalKind(kind) {
		return 0, ErrInvalidKind
	}
	if len(payload) == 0 {
		return 0, ErrInvalidKind
	}

	_, p, err := s.authorize(ctx, roomID, credential)
	if err != nil {
		return 0, err
	}

	return s.store.AppendSignal(ctx, roomID, registry.SignalEntry{
		Kind:       kind,
		Payload:    payload,
		SenderID:   p.ID,
		SenderRole: p.Role,
	})
}

// PollResult is one poll's view of a room.
type PollResult struct {
	Room          registry.CallRoom      `json:"room"`
	Signals       []registry.SignalEntry `json:"signals"`
	SignalsLength int                    `json:"signalsLength"`
}

// Poll returns the entries past the caller's cursor. Callers advance
// their cursor to SignalsLength even when Signals is empty.
func (s *Service) Poll(ctx context.Context, credential, roomID string, cursor int) (PollResult, error) {
	room, _, err := s.authorize(ctx, roomID, credential)
	if err != nil {
		return PollResult{}, err
	}

	entries, length, err := s.store.SignalsAfter(ctx, roomID, cursor)
	if err != nil {
		return PollResult{}, err
	}
	return PollResult{Room: room, Signals: entries, SignalsLength: length}, nil
}
