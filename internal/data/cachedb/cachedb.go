// Package cachedb persists extraction results between runs in a local sqlite
// file. Entries are keyed by relative path and content hash; a payload that
// fails to decode is treated as a miss and overwritten on the next Put.
package cachedb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS extractions (
  rel_path TEXT NOT NULL,
  content_hash TEXT NOT NULL,
  payload TEXT NOT NULL,
  updated_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP),
  PRIMARY KEY (rel_path, content_hash)
);
CREATE INDEX IF NOT EXISTS idx_extractions_path ON extractions(rel_path);
`

// Store is a sqlite-backed extract.Store. Safe for concurrent use; sqlite
// access is serialized through a single connection plus a mutex.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when watch mode re-audits
	// while a previous run is still writing.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Get returns the cached record for (relPath, hash). Decode failures count as
// a miss so a corrupted row never poisons a run.
func (s *Store) Get(relPath, hash string) (*extract.SourceFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	err := s.withRetry("load extraction", func() error {
		return s.db.QueryRow(
			`SELECT payload FROM extractions WHERE rel_path = ? AND content_hash = ?`,
			relPath, hash,
		).Scan(&payload)
	})
	if err != nil {
		return nil, false
	}

	var sf extract.SourceFile
	if err := json.Unmarshal([]byte(payload), &sf); err != nil {
		return nil, false
	}
	if sf.RelPath != relPath || sf.Hash != hash {
		return nil, false
	}
	return &sf, true
}

func (s *Store) Put(sf *extract.SourceFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(sf)
	if err != nil {
		return fmt.Errorf("encode extraction %q: %w", sf.RelPath, err)
	}

	return s.withRetry("save extraction", func() error {
		_, err := s.db.Exec(`
INSERT INTO extractions (rel_path, content_hash, payload, updated_at_utc)
VALUES (?, ?, ?, ?)
ON CONFLICT(rel_path, content_hash) DO UPDATE SET
  payload=excluded.payload,
  updated_at_utc=excluded.updated_at_utc
`, sf.RelPath, sf.Hash, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
		return err
	})
}

// Prune drops stale rows for a path, keeping only the given hash. Run after a
// successful audit so edited files do not accumulate dead entries.
func (s *Store) Prune(relPath, keepHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("prune extractions", func() error {
		_, err := s.db.Exec(
			`DELETE FROM extractions WHERE rel_path = ? AND content_hash != ?`,
			relPath, keepHash,
		)
		return err
	})
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
