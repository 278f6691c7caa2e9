// # internal/data/factstore/store.go
//
// SQLite-backed fact persistence. The engine works entirely in memory;
// this store is an optional sink so long-running sessions can restore
// facts after a restart instead of cold-parsing the whole document.
package factstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"stratum/internal/engine/facts"
	"stratum/internal/engine/source"
)

const driverName = "sqlite"

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// NewSessionID returns a fresh session identifier for a store lifetime.
func NewSessionID() string {
	return uuid.NewString()
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("fact store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("fact store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create fact store directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when background workers
	// persist while the interactive path reads.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite fact store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite fact store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveFacts upserts the facts for one boundary snapshot. Repeated saves
// for the same identities replace the previous row, so callers can save
// after every reparse without bookkeeping.
func (s *Store) SaveFacts(ctx context.Context, session string, generation uint64, fs []facts.Fact) error {
	if len(fs) == 0 {
		return nil
	}
	session = strings.TrimSpace(session)
	if session == "" {
		return fmt.Errorf("session must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions(id) VALUES (?)`, session); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("ensure session %q: %w", session, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO facts (session_id, boundary_start, boundary_end, rule, position, generation, span_start, span_end, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, boundary_start, boundary_end, rule, position) DO UPDATE SET
  generation = excluded.generation,
  span_start = excluded.span_start,
  span_end = excluded.span_end,
  payload = excluded.payload,
  saved_at_utc = CURRENT_TIMESTAMP
`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare fact upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range fs {
		if _, err := stmt.ExecContext(ctx,
			session,
			f.Identity.Boundary.Start, f.Identity.Boundary.End,
			f.Identity.Rule, f.Identity.Position,
			generation,
			f.Span.Start, f.Span.End,
			f.Payload,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save fact %s: %w", f.Identity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// LoadFacts returns the stored facts whose boundary matches the given span,
// ordered by rule then position.
func (s *Store) LoadFacts(ctx context.Context, session string, boundary source.Span) ([]facts.Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
SELECT rule, position, generation, span_start, span_end, payload
FROM facts
WHERE session_id = ? AND boundary_start = ? AND boundary_end = ?
ORDER BY rule, position
`, session, boundary.Start, boundary.End)
	if err != nil {
		return nil, fmt.Errorf("load facts for %s: %w", boundary, err)
	}
	defer rows.Close()

	var out []facts.Fact
	for rows.Next() {
		var f facts.Fact
		f.Identity.Boundary = boundary
		if err := rows.Scan(
			&f.Identity.Rule, &f.Identity.Position,
			&f.Generation,
			&f.Span.Start, &f.Span.End,
			&f.Payload,
		); err != nil {
			return nil, fmt.Errorf("scan fact row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// PruneGenerations deletes facts older than keepFrom for the session.
func (s *Store) PruneGenerations(ctx context.Context, session string, keepFrom uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM facts WHERE session_id = ? AND generation < ?`, session, keepFrom); err != nil {
		return fmt.Errorf("prune generations before %d: %w", keepFrom, err)
	}
	return nil
}
