// Package localstore persists the CLI's planner state and its outbox in one
// SQLite file.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/config"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/outbox"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/planner"

	_ "modernc.org/sqlite" // register sqlite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS planner_state (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    data       TEXT    NOT NULL,
    updated_at INTEGER NOT NULL,
    synced_at  INTEGER NOT NULL DEFAULT 0
);
`

// Store holds the local state database
type Store struct {
	db    *sql.DB
	queue *outbox.SQLiteQueue
	now   func() time.Time
}

// DefaultPath returns the state database location under the XDG data dir
func DefaultPath() string {
	return filepath.Join(config.ClientDataDir(), "state.db")
}

// Open opens or creates the state database at path
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	queue, err := outbox.NewSQLiteQueue(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, queue: queue, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Queue returns the outbox stored alongside the state
func (s *Store) Queue() *outbox.SQLiteQueue {
	return s.queue
}

// Load returns the saved state, or the signed-out state when none was saved
func (s *Store) Load(ctx context.Context) (planner.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM planner_state WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.NewState(), nil
	}
	if err != nil {
		return planner.State{}, fmt.Errorf("loading state: %w", err)
	}

	state := planner.NewState()
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return planner.State{}, fmt.Errorf("decoding state: %w", err)
	}
	return state, nil
}

// Save stores state without touching the outbox
func (s *Store) Save(ctx context.Context, state planner.State) error {
	return s.Commit(ctx, state, nil)
}

// Commit stores state and enqueues the ops that mirror it atomically
func (s *Store) Commit(ctx context.Context, state planner.State, ops []outbox.Op) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO planner_state (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}

	if err := s.queue.EnqueueTx(ctx, tx, ops...); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkSynced records when the state last matched the store
func (s *Store) MarkSynced(ctx context.Context, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE planner_state SET synced_at = ? WHERE id = 1`, at.UnixMilli()); err != nil {
		return fmt.Errorf("marking synced: %w", err)
	}
	return nil
}

// LastSynced returns when the state last matched the store. ok is false if never.
func (s *Store) LastSynced(ctx context.Context) (at time.Time, ok bool, err error) {
	var ms int64
	err = s.db.QueryRowContext(ctx, `SELECT synced_at FROM planner_state WHERE id = 1`).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && ms == 0) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("loading sync time: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}

// Reset forgets the state and drops pending ops
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM planner_state`); err != nil {
		return fmt.Errorf("clearing state: %w", err)
	}
	return s.queue.Clear(ctx)
}
