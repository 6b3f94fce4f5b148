package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SessionRecord is the durable metadata for one analysis session. The
// snapshot itself lives in the session store; this table only supports
// auditing and analytics.
type SessionRecord struct {
	SessionID     string    `db:"session_id"`
	Filename      string    `db:"filename"`
	TotalProducts int       `db:"total_products"`
	CreatedAt     time.Time `db:"created_at"`
	ExpiresAt     time.Time `db:"expires_at"`
}

// AnalyticsEvent is one logged usage event with a free-form JSON payload.
type AnalyticsEvent struct {
	ID        int64           `db:"id"`
	EventType string          `db:"event_type"`
	SessionID string          `db:"session_id"`
	Payload   json.RawMessage `db:"payload"`
	CreatedAt time.Time       `db:"created_at"`
}

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSession upserts the session metadata row.
func (r *SessionRepository) SaveSession(ctx context.Context, rec SessionRecord) error {
	query := `
		INSERT INTO sessions (session_id, filename, total_products, created_at, expires_at)
		VALUES (:session_id, :filename, :total_products, :created_at, :expires_at)
		ON CONFLICT (session_id) DO UPDATE SET
			filename = EXCLUDED.filename,
			total_products = EXCLUDED.total_products,
			expires_at = EXCLUDED.expires_at`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("could not save session %s: %w", rec.SessionID, err)
	}
	return nil
}

// GetSession loads one session metadata row.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	var rec SessionRecord
	query := `SELECT session_id, filename, total_products, created_at, expires_at
		FROM sessions WHERE session_id = $1`
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, fmt.Errorf("could not load session %s: %w", id, err)
	}
	return &rec, nil
}

// DeleteExpired removes sessions whose TTL has lapsed and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("could not delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// LogEvent records a usage event. Payload may be nil.
func (r *SessionRepository) LogEvent(ctx context.Context, eventType, sessionID string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("could not encode analytics payload: %w", err)
		}
		raw = encoded
	}

	query := `INSERT INTO analytics (event_type, session_id, payload) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, eventType, sessionID, raw); err != nil {
		return fmt.Errorf("could not log %s event: %w", eventType, err)
	}
	return nil
}

// EventCounts aggregates analytics events by type since the given time.
func (r *SessionRepository) EventCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT event_type, COUNT(*) AS n FROM analytics WHERE created_at >= $1 GROUP BY event_type`, since)
	if err != nil {
		return nil, fmt.Errorf("could not count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var n int
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("could not scan event count: %w", err)
		}
		counts[eventType] = n
	}
	return counts, rows.Err()
}
