package reporting

import (
	"context"
	"errors"
	"time"

	"casecall-platform/internal/events"
	"casecall-platform/internal/registry"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// EventSource abstracts where the call-event log is read from.
// *events.Service satisfies it.
type EventSource interface {
	ListByCase(ctx context.Context, caseID string, from, to time.Time) ([]events.CallEvent, error)
}

type Service struct {
	source EventSource
}

func NewService(source EventSource) *Service { return &Service{source: source} }

// CaseCallSummaryRequest asks for aggregated call activity on one case.
type CaseCallSummaryRequest struct {
	CaseID string    `json:"caseId"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

type CaseCallSummary struct {
	CaseID string `json:"caseId"`

	TotalCalls    int `json:"totalCalls"`
	AnsweredCalls int `json:"answeredCalls"`
	MissedCalls   int `json:"missedCalls"`
	EndedCalls    int `json:"endedCalls"`

	AudioCalls int `json:"audioCalls"`
	VideoCalls int `json:"videoCalls"`
}

func (s *Service) CaseCallSummary(ctx context.Context, req CaseCallSummaryRequest) (CaseCallSummary, error) {
	if req.CaseID == "" {
		return CaseCallSummary{}, ErrInvalidRequest
	}
	if req.From.IsZero() || req.To.IsZero() || !req.To.After(req.From) {
		return CaseCallSummary{}, ErrInvalidRequest
	}
	if s.source == nil {
		return CaseCallSummary{}, errors.New("reporting: event source not configured")
	}

	evs, err := s.source.ListByCase(ctx, req.CaseID, req.From, req.To)
	if err != nil {
		return CaseCallSummary{}, err
	}

	out := CaseCallSummary{CaseID: req.CaseID}
	for _, e := range evs {
		switch e.Type {
		case events.EventTypeCreated:
			out.TotalCalls++
			switch registry.CallKind(e.CallKind) {
			case registry.CallKindAudio:
				out.AudioCalls++
			case registry.CallKindVideo:
				out.VideoCalls++
			}
		case events.EventTypeAnswered:
			out.AnsweredCalls++
		case events.EventTypeMissed:
			out.MissedCalls++
		case events.EventTypeEnded:
			out.EndedCalls++
		}
	}
	return out, nil
}
