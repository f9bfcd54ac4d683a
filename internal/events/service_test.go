package events

import (
	"context"
	"testing"
	"time"
)

func TestService_RecordRequiresCaseRoomAndType(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Record(context.Background(), CallEvent{RoomID: "r", Type: EventTypeCreated}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := svc.Record(context.Background(), CallEvent{CaseID: "c", Type: EventTypeCreated}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := svc.Record(context.Background(), CallEvent{CaseID: "c", RoomID: "r"}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_RecordStampsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	err := svc.Record(context.Background(), CallEvent{
		CaseID: "c1", RoomID: "r1", Type: EventTypeMissed, ActorID: "cl-1", ActorRole: "client", CallKind: "video",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected stamped id and time, got %+v", evs[0])
	}
}

func TestMemoryRepo_ListByCaseFilters(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	now := time.Now().UTC()
	svc.clock = func() time.Time { return now }

	for _, e := range []CallEvent{
		{CaseID: "c1", RoomID: "r1", Type: EventTypeCreated},
		{CaseID: "c1", RoomID: "r1", Type: EventTypeMissed},
		{CaseID: "c2", RoomID: "r2", Type: EventTypeCreated},
	} {
		if err := svc.Record(context.Background(), e); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	got, err := svc.ListByCase(context.Background(), "c1", now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events for c1, got %d", len(got))
	}
}
