// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kadirpekel/mnemo/event"
	"github.com/kadirpekel/mnemo/session"

	// SQL drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore persists sessions in a SQL database. Session metadata,
// statistics and compaction config live on the sessions row; events are
// normalized into an append-only session_events table keyed by sequence
// number. Concurrency is handled by database transactions.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

const createSessionsSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id VARCHAR(255) PRIMARY KEY,
    agent_id VARCHAR(255),
    statistics_json TEXT NOT NULL,
    compaction_json TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

const createEventsSQL = `
CREATE TABLE IF NOT EXISTS session_events (
    session_id VARCHAR(255) NOT NULL,
    id VARCHAR(255) NOT NULL,
    action VARCHAR(50) NOT NULL,
    payload_json TEXT NOT NULL,
    sequence_num INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (session_id, id)
)`

const createEventsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_session_events_seq
ON session_events(session_id, sequence_num)`

// NewSQLStore creates a SQL-backed store and initializes the schema.
// Supported dialects: sqlite, postgres, mysql.
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "sqlite3":
		dialect = "sqlite"
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: sqlite, postgres, mysql)", dialect)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	// Statements run one at a time for SQLite compatibility.
	for _, stmt := range []string{createSessionsSQL, createEventsSQL, createEventsIndexSQL} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Save upserts the session row and appends any events not yet stored.
// Events are append-only, so only the suffix past the stored sequence
// count is inserted.
func (s *SQLStore) Save(ctx context.Context, sess *session.Session) error {
	snap := sess.Snapshot()

	statsJSON, err := json.Marshal(snap.Statistics)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	compactionJSON, err := json.Marshal(snap.CompactionConfig)
	if err != nil {
		return fmt.Errorf("marshal compaction config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.upsertSessionQuery(),
		snap.Metadata.SessionID, snap.Metadata.AgentID,
		string(statsJSON), string(compactionJSON),
		snap.Metadata.CreatedAt, snap.Metadata.UpdatedAt); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	var stored int
	countQuery := s.placeholders(`SELECT COUNT(*) FROM session_events WHERE session_id = ?`)
	if err := tx.QueryRowContext(ctx, countQuery, snap.Metadata.SessionID).Scan(&stored); err != nil {
		return fmt.Errorf("count stored events: %w", err)
	}
	if stored > len(snap.Events) {
		return fmt.Errorf("store holds %d events for session %s but snapshot has %d",
			stored, snap.Metadata.SessionID, len(snap.Events))
	}

	insertQuery := s.placeholders(`INSERT INTO session_events
        (session_id, id, action, payload_json, sequence_num, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`)
	for i := stored; i < len(snap.Events); i++ {
		e := snap.Events[i]
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery,
			snap.Metadata.SessionID, e.ID, string(e.Action),
			string(payload), i, e.Timestamp); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reconstructs a session from its row and ordered events.
func (s *SQLStore) Load(ctx context.Context, sessionID string) (*session.Session, error) {
	var snap session.Snapshot
	var statsJSON, compactionJSON string

	query := s.placeholders(`SELECT id, agent_id, statistics_json, compaction_json, created_at, updated_at
        FROM sessions WHERE id = ?`)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&snap.Metadata.SessionID, &snap.Metadata.AgentID,
		&statsJSON, &compactionJSON,
		&snap.Metadata.CreatedAt, &snap.Metadata.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	if err := json.Unmarshal([]byte(statsJSON), &snap.Statistics); err != nil {
		return nil, fmt.Errorf("unmarshal statistics: %w", err)
	}
	if err := json.Unmarshal([]byte(compactionJSON), &snap.CompactionConfig); err != nil {
		return nil, fmt.Errorf("unmarshal compaction config: %w", err)
	}

	eventsQuery := s.placeholders(`SELECT payload_json FROM session_events
        WHERE session_id = ? ORDER BY sequence_num ASC`)
	rows, err := s.db.QueryContext(ctx, eventsQuery, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var e event.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		snap.Events = append(snap.Events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return session.FromSnapshot(snap)
}

// List returns all stored session ids.
func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a session and its events.
func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.placeholders(`DELETE FROM session_events WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}

	res, err := tx.ExecContext(ctx, s.placeholders(`DELETE FROM sessions WHERE id = ?`), sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrSessionNotFound
	}

	return tx.Commit()
}

func (s *SQLStore) upsertSessionQuery() string {
	switch s.dialect {
	case "postgres":
		return `INSERT INTO sessions (id, agent_id, statistics_json, compaction_json, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (id) DO UPDATE SET
                statistics_json = $3, compaction_json = $4, updated_at = $6`
	case "mysql":
		return `INSERT INTO sessions (id, agent_id, statistics_json, compaction_json, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?)
            ON DUPLICATE KEY UPDATE
                statistics_json = VALUES(statistics_json),
                compaction_json = VALUES(compaction_json),
                updated_at = VALUES(updated_at)`
	default: // sqlite
		return `INSERT INTO sessions (id, agent_id, statistics_json, compaction_json, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT (id) DO UPDATE SET
                statistics_json = excluded.statistics_json,
                compaction_json = excluded.compaction_json,
                updated_at = excluded.updated_at`
	}
}

// placeholders converts ? placeholders to $n for postgres.
func (s *SQLStore) placeholders(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 1
	for _, c := range query {
		if c == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}
