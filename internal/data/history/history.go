// Package history records one row per audit run so health-score trends can be
// compared across runs of the same codebase.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  project_key TEXT NOT NULL DEFAULT 'default',
  ts_utc TEXT NOT NULL,
  file_count INTEGER NOT NULL,
  function_count INTEGER NOT NULL,
  issue_count INTEGER NOT NULL,
  critical_count INTEGER NOT NULL,
  high_count INTEGER NOT NULL,
  medium_count INTEGER NOT NULL,
  low_count INTEGER NOT NULL,
  info_count INTEGER NOT NULL,
  health_score INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_project_ts ON runs(project_key, ts_utc);
`

// RunRecord is one persisted audit run.
type RunRecord struct {
	RunID      string
	ProjectKey string
	Timestamp  time.Time

	FileCount     int
	FunctionCount int

	IssueCount    int
	CriticalCount int
	HighCount     int
	MediumCount   int
	LowCount      int
	InfoCount     int

	HealthScore int
	Duration    time.Duration
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema %q: %w", cleanPath, err)
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

// SaveRun persists one run. A missing RunID or Timestamp is filled in; the
// assigned RunID is returned.
func (s *Store) SaveRun(rec RunRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(rec.RunID) == "" {
		rec.RunID = uuid.NewString()
	}
	if strings.TrimSpace(rec.ProjectKey) == "" {
		rec.ProjectKey = "default"
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	err := s.withRetry("save run", func() error {
		_, err := s.db.Exec(`
INSERT INTO runs (
  run_id, project_key, ts_utc, file_count, function_count, issue_count,
  critical_count, high_count, medium_count, low_count, info_count,
  health_score, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			rec.RunID,
			rec.ProjectKey,
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
			rec.FileCount,
			rec.FunctionCount,
			rec.IssueCount,
			rec.CriticalCount,
			rec.HighCount,
			rec.MediumCount,
			rec.LowCount,
			rec.InfoCount,
			rec.HealthScore,
			rec.Duration.Milliseconds(),
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return rec.RunID, nil
}

// LoadRuns returns runs for a project ordered oldest first, optionally
// bounded by a start time.
func (s *Store) LoadRuns(projectKey string, since time.Time) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(projectKey) == "" {
		projectKey = "default"
	}

	query := `
SELECT run_id, project_key, ts_utc, file_count, function_count, issue_count,
  critical_count, high_count, medium_count, low_count, info_count,
  health_score, duration_ms
FROM runs WHERE project_key = ?`
	args := []any{projectKey}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, run_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RunRecord, 0)
	for rows.Next() {
		var (
			rec        RunRecord
			tsRaw      string
			durationMS int64
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.ProjectKey,
			&tsRaw,
			&rec.FileCount,
			&rec.FunctionCount,
			&rec.IssueCount,
			&rec.CriticalCount,
			&rec.HighCount,
			&rec.MediumCount,
			&rec.LowCount,
			&rec.InfoCount,
			&rec.HealthScore,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		rec.Timestamp = ts.UTC()
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return out, nil
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
