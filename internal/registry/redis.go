package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore backs the registry with Redis so multiple API instances
// share one room space. Status transitions and log appends use Lua so
// the compare-and-set and the append are atomic on the server side.
// Every key carries the retention TTL, which is the eviction policy for
// this store.
type RedisStore struct {
	rdb *redis.Client

	liveness  time.Duration
	retention time.Duration
	clock     func() time.Time
}

type RedisOptions struct {
	LivenessWindow time.Duration
	RetentionTTL   time.Duration
}

func NewRedisStore(rdb *redis.Client, opts RedisOptions) *RedisStore {
	if opts.LivenessWindow <= 0 {
		opts.LivenessWindow = 30 * time.Minute
	}
	if opts.RetentionTTL <= 0 {
		opts.RetentionTTL = 24 * time.Hour
	}
	return &RedisStore{
		rdb:       rdb,
		liveness:  opts.LivenessWindow,
		retention: opts.RetentionTTL,
		clock:     time.Now,
	}
}

func roomKey(roomID string) string    { return "call:room:" + roomID }
func signalsKey(roomID string) string { return "call:room:" + roomID + ":signals" }
func ringingKey(caseID string) string { return "call:case:" + caseID + ":ringing" }

// joinScript: CAS ringing -> active. Returns "missing", "ok", or the
// current non-ringing status.
var joinScript = redis.NewScript(`
local s = redis.call('HGET', KEYS[1], 'status')
if not s then return 'missing' end
if s == 'ringing' then
  redis.call('HSET', KEYS[1], 'status', 'active')
  return 'ok'
end
return s
`)

// endScript: unconditional terminal transition, idempotent. Returns the
// previous status or "missing".
var endScript = redis.NewScript(`
local s = redis.call('HGET', KEYS[1], 'status')
if not s then return 'missing' end
if s ~= 'ended' then
  redis.call('HSET', KEYS[1], 'status', 'ended')
end
return s
`)

// appendScript: status check and append under one server-side step.
// Returns -1 (missing), -2 (ended), or the new log length.
var appendScript = redis.NewScript(`
local s = redis.call('HGET', KEYS[1], 'status')
if not s then return -1 end
if s == 'ended' then return -2 end
redis.call('RPUSH', KEYS[2], ARGV[1])
redis.call('PEXPIRE', KEYS[2], ARGV[2])
return redis.call('LLEN', KEYS[2])
`)

// signalsAfterScript: consistent length + slice in one step. Returns
// {-1} when the room is gone, else {length, entries...}.
var signalsAfterScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return {-1} end
local len = redis.call('LLEN', KEYS[2])
local out = {len}
local entries = redis.call('LRANGE', KEYS[2], tonumber(ARGV[1]), -1)
for i = 1, #entries do out[i + 1] = entries[i] end
return out
`)

func (s *RedisStore) Create(ctx context.Context, caseID string, kind CallKind, initiatorRole, initiatorID string) (CallRoom, error) {
	room := CallRoom{
		RoomID:        uuid.NewString(),
		CaseID:        caseID,
		CallKind:      kind,
		InitiatorRole: initiatorRole,
		InitiatorID:   initiatorID,
		Status:        StatusRinging,
		CreatedAt:     s.clock().UTC(),
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, roomKey(room.RoomID), map[string]any{
		"case_id":        room.CaseID,
		"call_kind":      string(room.CallKind),
		"initiator_role": room.InitiatorRole,
		"initiator_id":   room.InitiatorID,
		"status":         string(room.Status),
		"created_at":     room.CreatedAt.Format(time.RFC3339Nano),
	})
	pipe.PExpire(ctx, roomKey(room.RoomID), s.retention)
	pipe.SAdd(ctx, ringingKey(caseID), room.RoomID)
	pipe.PExpire(ctx, ringingKey(caseID), s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return CallRoom{}, fmt.Errorf("registry: create room: %w", err)
	}
	return room, nil
}

func (s *RedisStore) Get(ctx context.Context, roomID string) (CallRoom, error) {
	fields, err := s.rdb.HGetAll(ctx, roomKey(roomID)).Result()
	if err != nil {
		return CallRoom{}, fmt.Errorf("registry: get room: %w", err)
	}
	if len(fields) == 0 {
		return CallRoom{}, ErrNotFound
	}
	return roomFromFields(roomID, fields)
}

func roomFromFields(roomID string, fields map[string]string) (CallRoom, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return CallRoom{}, fmt.Errorf("registry: bad created_at for room %s: %w", roomID, err)
	}
	return CallRoom{
		RoomID:        roomID,
		CaseID:        fields["case_id"],
		CallKind:      CallKind(fields["call_kind"]),
		InitiatorRole: fields["initiator_role"],
		InitiatorID:   fields["initiator_id"],
		Status:        Status(fields["status"]),
		CreatedAt:     createdAt,
	}, nil
}

func (s *RedisStore) ListRinging(ctx context.Context, caseID string) ([]CallRoom, error) {
	ids, err := s.rdb.SMembers(ctx, ringingKey(caseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("registry: list ringing: %w", err)
	}

	now := s.clock().UTC()
	cutoff := now.Add(-s.liveness)
	out := make([]CallRoom, 0, len(ids))
	var stale []any
	for _, id := range ids {
		room, err := s.Get(ctx, id)
		if err == ErrNotFound {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if room.Status != StatusRinging {
			stale = append(stale, id)
			continue
		}
		if room.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, room)
	}
	// Opportunistic index cleanup; failures here are harmless.
	if len(stale) > 0 {
		_ = s.rdb.SRem(ctx, ringingKey(caseID), stale...).Err()
	}
	return out, nil
}

func (s *RedisStore) Join(ctx context.Context, roomID string) (CallRoom, error) {
	res, err := joinScript.Run(ctx, s.rdb, []string{roomKey(roomID)}).Text()
	if err != nil {
		return CallRoom{}, fmt.Errorf("registry: join room: %w", err)
	}
	switch res {
	case "missing":
		return CallRoom{}, ErrNotFound
	case "ok":
		return s.Get(ctx, roomID)
	default:
		return CallRoom{}, ErrNotJoinable
	}
}

func (s *RedisStore) End(ctx context.Context, roomID string) (Status, error) {
	res, err := endScript.Run(ctx, s.rdb, []string{roomKey(roomID)}).Text()
	if err != nil {
		return "", fmt.Errorf("registry: end room: %w", err)
	}
	if res == "missing" {
		return "", ErrNotFound
	}
	return Status(res), nil
}

func (s *RedisStore) AppendSignal(ctx context.Context, roomID string, entry SignalEntry) (int, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock().UTC()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return 0, fmt.Errorf("registry: marshal signal: %w", err)
	}

	n, err := appendScript.Run(ctx, s.rdb,
		[]string{roomKey(roomID), signalsKey(roomID)},
		raw, s.retention.Milliseconds(),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("registry: append signal: %w", err)
	}
	switch n {
	case -1:
		return 0, ErrNotFound
	case -2:
		return 0, ErrRoomEnded
	default:
		return n, nil
	}
}

func (s *RedisStore) SignalsAfter(ctx context.Context, roomID string, cursor int) ([]SignalEntry, int, error) {
	if cursor < 0 {
		cursor = 0
	}
	res, err := signalsAfterScript.Run(ctx, s.rdb,
		[]string{roomKey(roomID), signalsKey(roomID)},
		cursor,
	).Slice()
	if err != nil {
		return nil, 0, fmt.Errorf("registry: signals after: %w", err)
	}
	if len(res) == 0 {
		return nil, 0, fmt.Errorf("registry: empty script reply")
	}

	length, ok := res[0].(int64)
	if !ok {
		return nil, 0, fmt.Errorf("registry: unexpected script reply %T", res[0])
	}
	if length < 0 {
		return nil, 0, ErrNotFound
	}

	entries := make([]SignalEntry, 0, len(res)-1)
	for _, item := range res[1:] {
		raw, ok := item.(string)
		if !ok {
			return nil, 0, fmt.Errorf("registry: unexpected entry type %T", item)
		}
		var e SignalEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, 0, fmt.Errorf("registry: decode signal: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, int(length), nil
}
