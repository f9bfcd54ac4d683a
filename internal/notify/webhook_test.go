package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"casecall-platform/internal/directory"
	"casecall-platform/internal/registry"
)

func TestWebhookDispatcher_PostsEvent(t *testing.T) {
	var got webhookEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, time.Second)
	err := d.NotifyMissedCall(context.Background(),
		directory.Contact{PrincipalID: "co-1", Email: "co@example.com"},
		registry.CallKindVideo,
		CallInfo{CaseID: "c1", CaseTitle: "Visa renewal", RoomID: "r1"},
	)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Event != "missed_call" {
		t.Fatalf("expected missed_call event, got %q", got.Event)
	}
	if got.Contact != "co-1" || got.CallKind != "video" || got.Call.CaseID != "c1" {
		t.Fatalf("unexpected event body: %+v", got)
	}
}

func TestWebhookDispatcher_ErrorStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, time.Second)
	err := d.NotifyIfOffline(context.Background(), directory.Contact{PrincipalID: "co-1"}, registry.CallKindAudio, CallInfo{})
	if err == nil {
		t.Fatalf("expected error on 502")
	}
}
