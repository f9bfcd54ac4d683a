package notify

import (
	"context"
	"sync"

	"casecall-platform/internal/directory"
	"casecall-platform/internal/registry"
)

// MemoryDispatcher records invocations for tests.
type MemoryDispatcher struct {
	mu sync.Mutex

	// Fail, when set, makes every call return it.
	Fail error

	missed  []Invocation
	offline []Invocation
}

type Invocation struct {
	Contact directory.Contact
	Kind    registry.CallKind
	Info    CallInfo
}

func NewMemoryDispatcher() *MemoryDispatcher { return &MemoryDispatcher{} }

func (d *MemoryDispatcher) NotifyMissedCall(ctx context.Context, contact directory.Contact, kind registry.CallKind, info CallInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Fail != nil {
		return d.Fail
	}
	d.missed = append(d.missed, Invocation{Contact: contact, Kind: kind, Info: info})
	return nil
}

func (d *MemoryDispatcher) NotifyIfOffline(ctx context.Context, contact directory.Contact, kind registry.CallKind, info CallInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Fail != nil {
		return d.Fail
	}
	d.offline = append(d.offline, Invocation{Contact: contact, Kind: kind, Info: info})
	return nil
}

func (d *MemoryDispatcher) Missed() []Invocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Invocation, len(d.missed))
	copy(out, d.missed)
	return out
}

func (d *MemoryDispatcher) Offline() []Invocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Invocation, len(d.offline))
	copy(out, d.offline)
	return out
}
