package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id                      TEXT PRIMARY KEY,
    owner                   TEXT NOT NULL,
    summary                 TEXT,
    interactions            TEXT NOT NULL DEFAULT '[]',
    location_query_executed INTEGER NOT NULL DEFAULT 0,
    updated_at              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner);
`

// SQLiteStore implements Store backed by a SQLite database. The
// interaction log is a JSON array column mutated with json_insert, so
// appends are additive single-statement writes rather than
// read-modify-write cycles in the caller.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, owner, initialQuery string) (*Session, error) {
	sess := &Session{
		ID:           NewID(),
		Owner:        owner,
		Interactions: []Interaction{{Query: initialQuery, Response: ""}},
		LastUpdated:  time.Now().UTC(),
	}

	interactions, err := json.Marshal(sess.Interactions)
	if err != nil {
		return nil, fmt.Errorf("marshal interactions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, owner, interactions, location_query_executed, updated_at)
		VALUES (?, ?, ?, 0, ?)`,
		sess.ID, sess.Owner, string(interactions), sess.LastUpdated.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, summary, interactions, location_query_executed, updated_at
		FROM sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	return sess, true, nil
}

func (s *SQLiteStore) AppendInteraction(ctx context.Context, id, query, response string) error {
	entry, err := json.Marshal(Interaction{Query: query, Response: response})
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET interactions = json_insert(interactions, '$[#]', json(?)), updated_at = ?
		WHERE id = ?`,
		string(entry), time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SetInitialResponse(ctx context.Context, id, response string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET interactions = json_replace(interactions, '$[0].response', ?), updated_at = ?
		WHERE id = ?`,
		response, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("set initial response: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, owner string) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, summary, interactions, location_query_executed, updated_at
		FROM sessions WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) MarkLocationExecuted(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET location_query_executed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark location executed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveSummary(ctx context.Context, id string, summary Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET summary = ? WHERE id = ?", string(data), id)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context, id string) (*Summary, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT summary FROM sessions WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	if !raw.Valid {
		return nil, nil
	}

	var summary Summary
	if err := json.Unmarshal([]byte(raw.String), &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &summary, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanSession reads one session row. Works for both QueryRow and Rows.
func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var sess Session
	var summaryRaw sql.NullString
	var interactionsRaw, updatedAt string
	var executed int

	err := row.Scan(&sess.ID, &sess.Owner, &summaryRaw, &interactionsRaw, &executed, &updatedAt)
	if err != nil {
		return nil, err
	}

	sess.LocationQueryExecuted = executed != 0
	sess.LastUpdated, _ = time.Parse(time.RFC3339Nano, updatedAt)

	if err := json.Unmarshal([]byte(interactionsRaw), &sess.Interactions); err != nil {
		return nil, fmt.Errorf("unmarshal interactions: %w", err)
	}
	if summaryRaw.Valid {
		var summary Summary
		if err := json.Unmarshal([]byte(summaryRaw.String), &summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
		sess.Summary = &summary
	}
	return &sess, nil
}
