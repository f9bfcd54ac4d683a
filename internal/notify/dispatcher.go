package notify

import (
	"context"

	"casecall-platform/internal/directory"
	"casecall-platform/internal/registry"
)

// CallInfo gives the notification channel enough context to render a
// human-readable message.
type CallInfo struct {
	CaseID    string `json:"caseId"`
	CaseTitle string `json:"caseTitle"`
	RoomID    string `json:"roomId"`
}

// Dispatcher is the outbound notification boundary.
//
// Rules:
// - All methods are best-effort. Callers log failures and move on; a
//   missed call has already happened whatever the channel does.
// - No dispatcher call may run inside a registry lock or on a request's
//   critical path.
type Dispatcher interface {
	// NotifyMissedCall tells the case follower a client call went
	// unanswered.
	NotifyMissedCall(ctx context.Context, contact directory.Contact, kind registry.CallKind, info CallInfo) error

	// NotifyIfOffline is the slower channel (e.g. email) used only when
	// the follower is not effectively online.
	NotifyIfOffline(ctx context.Context, contact directory.Contact, kind registry.CallKind, info CallInfo) error
}
