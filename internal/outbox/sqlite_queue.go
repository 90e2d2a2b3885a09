package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const queueSchemaSQL = `
CREATE TABLE IF NOT EXISTS outbox (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    kind       TEXT    NOT NULL,
    trip_id    INTEGER NOT NULL DEFAULT 0,
    payload    TEXT    NOT NULL DEFAULT '',
    attempts   INTEGER NOT NULL DEFAULT 0,
    last_error TEXT    NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
`

// SQLiteQueue is a Queue persisted in a SQLite table
type SQLiteQueue struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteQueue creates the outbox table if needed and returns a queue on it
func NewSQLiteQueue(ctx context.Context, db *sql.DB) (*SQLiteQueue, error) {
	if _, err := db.ExecContext(ctx, queueSchemaSQL); err != nil {
		return nil, fmt.Errorf("creating outbox table: %w", err)
	}
	return &SQLiteQueue{db: db, now: time.Now}, nil
}

// Enqueue appends ops in one transaction
func (q *SQLiteQueue) Enqueue(ctx context.Context, ops ...Op) error {
	if len(ops) == 0 {
		return nil
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := q.EnqueueTx(ctx, tx, ops...); err != nil {
		return err
	}
	return tx.Commit()
}

// EnqueueTx appends ops inside the caller's transaction, so a state change
// and the writes that mirror it commit together
func (q *SQLiteQueue) EnqueueTx(ctx context.Context, tx *sql.Tx, ops ...Op) error {
	if len(ops) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outbox (kind, trip_id, payload, attempts, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing outbox insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, op := range ops {
		createdAt := op.CreatedAt
		if createdAt.IsZero() {
			createdAt = q.now()
		}
		if _, err := stmt.ExecContext(ctx, string(op.Kind), op.TripID, string(op.Payload),
			op.Attempts, op.LastError, createdAt.UnixMilli()); err != nil {
			return fmt.Errorf("inserting %s op: %w", op.Kind, err)
		}
	}
	return nil
}

// Pending returns queued ops, oldest first
func (q *SQLiteQueue) Pending(ctx context.Context) ([]Op, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, kind, trip_id, payload, attempts, last_error, created_at
		FROM outbox ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ops []Op
	for rows.Next() {
		var (
			op        Op
			kind      string
			payload   string
			createdAt int64
		)
		if err := rows.Scan(&op.ID, &kind, &op.TripID, &payload, &op.Attempts, &op.LastError, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning outbox row: %w", err)
		}
		op.Kind = Kind(kind)
		if payload != "" {
			op.Payload = []byte(payload)
		}
		op.CreatedAt = time.UnixMilli(createdAt).UTC()
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// Remove deletes the op with the given id
func (q *SQLiteQueue) Remove(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id); err != nil {
		return fmt.Errorf("removing op %d: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed attempt on the op
func (q *SQLiteQueue) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`, reason, id)
	if err != nil {
		return fmt.Errorf("marking op %d failed: %w", id, err)
	}
	return nil
}

// Len returns the number of queued ops
func (q *SQLiteQueue) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting outbox: %w", err)
	}
	return n, nil
}

// Clear drops every queued op
func (q *SQLiteQueue) Clear(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM outbox`); err != nil {
		return fmt.Errorf("clearing outbox: %w", err)
	}
	return nil
}
