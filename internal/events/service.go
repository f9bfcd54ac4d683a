package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for call events.
//
// It MUST be append-only for writes. ListByCase exists for reporting;
// no Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e CallEvent) error
	ListByCase(ctx context.Context, caseID string, from, to time.Time) ([]CallEvent, error)
}

var ErrInvalidEvent = errors.New("events: invalid event")

// Service stamps and records call events. Callers treat it as
// best-effort: a recording failure is logged, never surfaced to the
// participant whose call just happened.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Record(ctx context.Context, e CallEvent) error {
	if s.repo == nil {
		return errors.New("events: repository not configured")
	}
	if e.CaseID == "" || e.RoomID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) ListByCase(ctx context.Context, caseID string, from, to time.Time) ([]CallEvent, error) {
	if s.repo == nil {
		return nil, errors.New("events: repository not configured")
	}
	if caseID == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.ListByCase(ctx, caseID, from, to)
}
