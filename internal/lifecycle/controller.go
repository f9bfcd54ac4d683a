package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"casecall-platform/internal/access"
	"casecall-platform/internal/directory"
	"casecall-platform/internal/events"
	"casecall-platform/internal/notify"
	"casecall-platform/internal/presence"
	"casecall-platform/internal/registry"
)

var ErrInvalidCallKind = errors.New("lifecycle: invalid call kind")

// Controller owns the room state machine: ringing -> active on a
// counterpart join, ringing/active -> ended on either side's end.
// Ended is terminal and end() is idempotent.
//
// The one side effect lives here too: a room ended while still ringing
// by a client-initiated call is a missed call, and the case follower
// gets notified on a detached goroutine. Dispatch failure is logged and
// never propagated; the call has legitimately ended regardless.
type Controller struct {
	store    registry.Store
	access   *access.Resolver
	dir      directory.Repository
	presence presence.Tracker
	notify   notify.Dispatcher
	events   *events.Service
	log      *slog.Logger

	notifyTimeout time.Duration
	wg            sync.WaitGroup
}

func NewController(
	store registry.Store,
	resolver *access.Resolver,
	dir directory.Repository,
	tracker presence.Tracker,
	dispatcher notify.Dispatcher,
	eventLog *events.Service,
	log *slog.Logger,
	notifyTimeout time.Duration,
) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &Controller{
		store:         store,
		access:        resolver,
		dir:           dir,
		presence:      tracker,
		notify:        dispatcher,
		events:        eventLog,
		log:           log,
		notifyTimeout: notifyTimeout,
	}
}

// Create opens a ringing room for a case on behalf of the resolved
// principal. Any participant role may originate a call.
func (c *Controller) Create(ctx context.Context, credential, caseID string, kind registry.CallKind) (registry.CallRoom, access.Principal, error) {
	if !registry.ValidCallKind(kind) {
		return registry.CallRoom{}, access.Principal{}, ErrInvalidCallKind
	}

	p, err := c.access.Resolve(ctx, caseID, credential)
	if err != nil {
		return registry.CallRoom{}, access.Principal{}, err
	}
	c.presence.Touch(ctx, p.ID)

	room, err := c.store.Create(ctx, caseID, kind, p.Role, p.ID)
	if err != nil {
		return registry.CallRoom{}, access.Principal{}, err
	}

	c.record(ctx, events.CallEvent{
		CaseID: caseID, RoomID: room.RoomID, Type: events.EventTypeCreated,
		ActorID: p.ID, ActorRole: p.Role, CallKind: string(kind),
	})
	return room, p, nil
}

// Join answers a ringing room. Only consultants and delegates may join;
// a client cannot answer their own outgoing call. A non-ringing room
// yields registry.ErrNotJoinable, distinct from registry.ErrNotFound,
// so the UI can tell "already answered" from "gone".
func (c *Controller) Join(ctx context.Context, credential, roomID string) (registry.CallRoom, access.Principal, error) {
	room, _, p, err := c.authorize(ctx, credential, roomID)
	if err != nil {
		return registry.CallRoom{}, access.Principal{}, err
	}

	if !access.CanJoin(p.Role) {
		return registry.CallRoom{}, access.Principal{}, access.ErrForbidden
	}

	joined, err := c.store.Join(ctx, roomID)
	if err != nil {
		return registry.CallRoom{}, access.Principal{}, err
	}

	c.record(ctx, events.CallEvent{
		CaseID: room.CaseID, RoomID: roomID, Type: events.EventTypeAnswered,
		ActorID: p.ID, ActorRole: p.Role, CallKind: string(room.CallKind),
	})
	return joined, p, nil
}

// End terminates a room. Idempotent: ending an ended room is a no-op.
// A client-initiated room ended while still ringing is classified as a
// missed call and triggers follower notification off the request path.
func (c *Controller) End(ctx context.Context, credential, roomID string) error {
	room, cse, p, err := c.authorize(ctx, credential, roomID)
	if err != nil {
		return err
	}

	prev, err := c.store.End(ctx, roomID)
	if err != nil {
		return err
	}
	if prev == registry.StatusEnded {
		// Second end; nothing new happened.
		return nil
	}

	c.record(ctx, events.CallEvent{
		CaseID: room.CaseID, RoomID: roomID, Type: events.EventTypeEnded,
		ActorID: p.ID, ActorRole: p.Role, CallKind: string(room.CallKind),
	})

	if prev == registry.StatusRinging && room.InitiatorRole == access.RoleClient {
		c.record(ctx, events.CallEvent{
			CaseID: room.CaseID, RoomID: roomID, Type: events.EventTypeMissed,
			ActorID: room.InitiatorID, ActorRole: room.InitiatorRole, CallKind: string(room.CallKind),
		})
		c.dispatchMissed(room, cse)
	}
	return nil
}

// ListRinging returns the case's discoverable incoming calls for any
// resolved participant.
func (c *Controller) ListRinging(ctx context.Context, credential, caseID string) ([]registry.CallRoom, access.Principal, error) {
	p, err := c.access.Resolve(ctx, caseID, credential)
	if err != nil {
		return nil, access.Principal{}, err
	}
	c.presence.Touch(ctx, p.ID)

	rooms, err := c.store.ListRinging(ctx, caseID)
	if err != nil {
		return nil, access.Principal{}, err
	}
	return rooms, p, nil
}

func (c *Controller) authorize(ctx context.Context, credential, roomID string) (registry.CallRoom, directory.Case, access.Principal, error) {
	room, err := c.store.Get(ctx, roomID)
	if err != nil {
		return registry.CallRoom{}, directory.Case{}, access.Principal{}, err
	}
	cse, err := c.dir.FindCase(ctx, room.CaseID)
	if err != nil {
		return registry.CallRoom{}, directory.Case{}, access.Principal{}, err
	}
	p, err := c.access.ResolveForCase(ctx, cse, credential)
	if err != nil {
		return registry.CallRoom{}, directory.Case{}, access.Principal{}, err
	}
	c.presence.Touch(ctx, p.ID)
	return room, cse, p, nil
}

// dispatchMissed runs follower notification on its own goroutine with
// its own deadline, detached from the request context. It must never
// run inside a registry lock.
func (c *Controller) dispatchMissed(room registry.CallRoom, cse directory.Case) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.notifyTimeout)
		defer cancel()

		followerID := cse.FollowerID()
		contact, err := c.dir.ContactFor(ctx, followerID)
		if err != nil {
			c.log.Error("missed call: follower contact lookup failed",
				"room_id", room.RoomID, "case_id", cse.CaseID, "follower_id", followerID, "err", err)
			return
		}

		info := notify.CallInfo{CaseID: cse.CaseID, CaseTitle: cse.Title, RoomID: room.RoomID}
		if err := c.notify.NotifyMissedCall(ctx, contact, room.CallKind, info); err != nil {
			c.log.Error("missed call: notification dispatch failed",
				"room_id", room.RoomID, "case_id", cse.CaseID, "err", err)
		}

		if !c.presence.Online(ctx, followerID) {
			if err := c.notify.NotifyIfOffline(ctx, contact, room.CallKind, info); err != nil {
				c.log.Error("missed call: offline notification failed",
					"room_id", room.RoomID, "case_id", cse.CaseID, "err", err)
			}
		}
	}()
}

// Drain waits for in-flight notification dispatches. The API process
// calls it during shutdown; tests use it for determinism.
func (c *Controller) Drain() {
	c.wg.Wait()
}

func (c *Controller) record(ctx context.Context, e events.CallEvent) {
	if c.events == nil {
		return
	}
	if err := c.events.Record(ctx, e); err != nil {
		c.log.Warn("call event record failed", "room_id", e.RoomID, "type", string(e.Type), "err", err)
	}
}
