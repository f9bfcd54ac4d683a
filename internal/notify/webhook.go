package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"casecall-platform/internal/directory"
	"casecall-platform/internal/registry"
)

// WebhookDispatcher posts notification events to the platform's
// notification service, which owns the actual channels (in-app, email).
type WebhookDispatcher struct {
	url    string
	client *http.Client
}

func NewWebhookDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookEvent struct {
	Event     string   `json:"event"`
	Contact   string   `json:"contact"`
	Email     string   `json:"email,omitempty"`
	Name      string   `json:"name,omitempty"`
	CallKind  string   `json:"callKind"`
	Call      CallInfo `json:"call"`
	Timestamp string   `json:"timestamp"`
}

func (d *WebhookDispatcher) NotifyMissedCall(ctx context.Context, contact directory.Contact, kind registry.CallKind, info CallInfo) error {
	return d.post(ctx, "missed_call", contact, kind, info)
}

func (d *WebhookDispatcher) NotifyIfOffline(ctx context.Context, contact directory.Contact, kind registry.CallKind, info CallInfo) error {
	return d.post(ctx, "missed_call_offline", contact, kind, info)
}

func (d *WebhookDispatcher) post(ctx context.Context, event string, contact directory.Contact, kind registry.CallKind, info CallInfo) error {
	if d.url == "" {
		return fmt.Errorf("notify: webhook url not configured")
	}

	body, err := json.Marshal(webhookEvent{
		Event:     event,
		Contact:   contact.PrincipalID,
		Email:     contact.Email,
		Name:      contact.Name,
		CallKind:  string(kind),
		Call:      info,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook responded %d", resp.StatusCode)
	}
	return nil
}
