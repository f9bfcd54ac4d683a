package notify

import (
	"context"

	"casecall-platform/internal/directory"
	"casecall-platform/internal/registry"
)

// NopDispatcher drops every notification. Wired when no webhook endpoint
// is configured; missed calls still land in the event log.
type NopDispatcher struct{}

func (NopDispatcher) NotifyMissedCall(context.Context, directory.Contact, registry.CallKind, CallInfo) error {
	return nil
}

func (NopDispatcher) NotifyIfOffline(context.Context, directory.Contact, registry.CallKind, CallInfo) error {
	return nil
}
