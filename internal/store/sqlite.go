package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lox/pokervals/poker"

	_ "modernc.org/sqlite"
)

// Mode selects how a sqlite store is opened.
type Mode int

const (
	ReadWrite Mode = iota
	ReadOnly
)

const counterKey = "num_computed"

// SQLite is the resumable store. Values and the progress counter are
// written in the same transaction so the counter never runs ahead of the
// stored entries.
type SQLite struct {
	db     *sql.DB
	path   string
	lookup *sql.Stmt
}

// OpenSQLite opens the store at path. ReadWrite creates the file and schema
// when missing; ReadOnly requires an existing file.
func OpenSQLite(path string, mode Mode) (*SQLite, error) {
	if mode == ReadOnly {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return nil, err
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pragmas := []string{`PRAGMA busy_timeout = 5000;`}
	if mode == ReadOnly {
		pragmas = append(pragmas, `PRAGMA query_only = ON;`)
	} else {
		pragmas = append(pragmas, `PRAGMA journal_mode = WAL;`, `PRAGMA synchronous = NORMAL;`)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if mode == ReadWrite {
		if err := ensureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	lookup, err := db.Prepare(`SELECT val FROM pokervals WHERE idx = ?`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare lookup: %w", err)
	}
	return &SQLite{db: db, path: path, lookup: lookup}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS pokervals (
    idx BLOB PRIMARY KEY,
    val INTEGER NOT NULL
) WITHOUT ROWID`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL
)`)
	return err
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Close releases the database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.lookup != nil {
		_ = s.lookup.Close()
	}
	return s.db.Close()
}

// Lookup returns the stored value for ix.
func (s *SQLite) Lookup(ix poker.Index) (poker.HandValue, bool, error) {
	var v int64
	err := s.lookup.QueryRow([]byte(ix)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup %s: %w", ix, err)
	}
	return poker.HandValue(v), true, nil
}

// Counter returns the number of raw combinations recorded as processed.
func (s *SQLite) Counter(ctx context.Context) (uint64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, counterKey).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return uint64(n), nil
}

// Count returns the number of stored entries, excluding the counter.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pokervals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Checkpoint inserts entries and sets the progress counter in one
// transaction, returning how many entries were new. Existing indices are
// left untouched, so replaying a batch is harmless.
func (s *SQLite) Checkpoint(ctx context.Context, entries []Entry, processed uint64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted := 0
	if len(entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO pokervals (idx, val) VALUES (?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			res, err := stmt.ExecContext(ctx, []byte(e.Index), int64(e.Value))
			if err != nil {
				return 0, fmt.Errorf("insert %s: %w", e.Index, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO meta (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, counterKey, int64(processed)); err != nil {
		return 0, fmt.Errorf("update counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// Each calls fn for every stored entry in index order.
func (s *SQLite) Each(ctx context.Context, fn func(Entry) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT idx, val FROM pokervals ORDER BY idx`)
	if err != nil {
		return fmt.Errorf("scan entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var idx []byte
		var v int64
		if err := rows.Scan(&idx, &v); err != nil {
			return err
		}
		if err := fn(Entry{Index: poker.Index(idx), Value: poker.HandValue(v)}); err != nil {
			return err
		}
	}
	return rows.Err()
}
