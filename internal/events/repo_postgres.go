package events

import (
	"context"
	"database/sql"
	"time"

	"casecall-platform/pkg/utils"
)

// PostgresRepo persists call events and keeps a per-case stats
// projection current. The insert and the projection update share one
// transaction so the projection can never drift from the event log.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e CallEvent) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const insertEvent = `
INSERT INTO call_events (id, case_id, room_id, type, actor_id, actor_role, call_kind, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err := tx.ExecContext(ctx, insertEvent,
			e.ID, e.CaseID, e.RoomID, e.Type, e.ActorID, e.ActorRole, e.CallKind, e.CreatedAt,
		); err != nil {
			return err
		}

		col, ok := statsColumn(e.Type)
		if !ok {
			return nil
		}
		upsert := `
INSERT INTO case_call_stats (case_id, ` + col + `, updated_at)
VALUES ($1, 1, $2)
ON CONFLICT (case_id)
DO UPDATE SET ` + col + ` = case_call_stats.` + col + ` + 1, updated_at = $2`
		_, err := tx.ExecContext(ctx, upsert, e.CaseID, e.CreatedAt)
		return err
	})
}

// statsColumn maps event types onto projection counters. Column names
// are fixed strings, never derived from input.
func statsColumn(t EventType) (string, bool) {
	switch t {
	case EventTypeCreated:
		return "total_calls", true
	case EventTypeAnswered:
		return "answered_calls", true
	case EventTypeMissed:
		return "missed_calls", true
	default:
		return "", false
	}
}

func (r *PostgresRepo) ListByCase(ctx context.Context, caseID string, from, to time.Time) ([]CallEvent, error) {
	const q = `
SELECT id, case_id, room_id, type, actor_id, actor_role, call_kind, created_at
FROM call_events
WHERE case_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, q, caseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallEvent, 0)
	for rows.Next() {
		var e CallEvent
		if err := rows.Scan(&e.ID, &e.CaseID, &e.RoomID, &e.Type, &e.ActorID, &e.ActorRole, &e.CallKind, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
