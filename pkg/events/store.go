package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store durably appends events and serves history to the log-reader
// endpoint that replays completed sessions (explicitly out of this
// module's core per §1, but the append/query primitives it needs live
// here since they're also how a reconnecting SSE client catches up).
type Store interface {
	Append(ctx context.Context, evt Event) error
	Since(ctx context.Context, logID string, since time.Time) ([]Event, error)
}

// PostgresStore persists events to the `events` relation described in §6.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append inserts one event row. The caller (Coordinator.Emit) has already
// assigned ID and Timestamp so persistence failure never blocks or
// reorders live delivery.
func (s *PostgresStore) Append(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO events (id, log_id, "timestamp", event_type, plan_id, phase_id, step_id, data)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)`,
		evt.ID, evt.LogID, evt.Timestamp, evt.EventType, evt.PlanID, evt.PhaseID, evt.StepID, data,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Since returns every event for logID with timestamp >= since, ordered by
// timestamp, ties broken by event id. Coordinator.Emit hands out strictly
// increasing timestamps per logID, so its events never tie.
func (s *PostgresStore) Since(ctx context.Context, logID string, since time.Time) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, log_id, "timestamp", event_type, COALESCE(plan_id, ''), COALESCE(phase_id, ''), COALESCE(step_id, ''), data
		FROM events
		WHERE log_id = $1 AND "timestamp" >= $2
		ORDER BY "timestamp" ASC, id ASC`,
		logID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		var data []byte
		if err := rows.Scan(&evt.ID, &evt.LogID, &evt.Timestamp, &evt.EventType, &evt.PlanID, &evt.PhaseID, &evt.StepID, &data); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var payload any
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal event data: %w", err)
		}
		evt.Data = payload
		out = append(out, evt)
	}
	return out, rows.Err()
}
