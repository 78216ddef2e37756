package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS relay_audit (
		id         BIGSERIAL PRIMARY KEY,
		at         TIMESTAMPTZ NOT NULL,
		request_id TEXT NOT NULL DEFAULT '',
		actor      TEXT NOT NULL,
		action     TEXT NOT NULL,
		target     TEXT NOT NULL DEFAULT '',
		outcome    TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT ''
	)`

// PostgresRecorder stores events in the relay_audit table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to databaseURL, verifies the connection and
// creates the relay_audit table if needed.
func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating relay_audit table: %w", err)
	}

	return &PostgresRecorder{pool: pool}, nil
}

// Record implements Recorder.
func (r *PostgresRecorder) Record(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	query := `
		INSERT INTO relay_audit (at, request_id, actor, action, target, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.pool.Exec(ctx, query, e.At, e.RequestID, e.Actor, e.Action, e.Target, e.Outcome, e.Detail); err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT at, request_id, actor, action, target, outcome, detail
		FROM relay_audit
		ORDER BY id DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.At, &e.RequestID, &e.Actor, &e.Action, &e.Target, &e.Outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// Ping verifies the database connection is alive.
func (r *PostgresRecorder) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
