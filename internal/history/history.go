// Package history persists finished replay summaries in a local sqlite
// database so past runs can be listed and inspected.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/droidloop/droidloop/internal/logger"
	"github.com/droidloop/droidloop/pkg/report"
)

const driverName = "sqlite"

// Record is one stored replay outcome.
type Record struct {
	ID              string
	SessionName     string
	DeviceID        string
	Success         bool
	TotalActions    int
	FailedActions   int
	DurationSeconds float64
	CreatedAt       time.Time
	Summary         json.RawMessage
}

// Store persists replay records.
type Store interface {
	Save(ctx context.Context, id string, summary *report.Summary) error
	List(ctx context.Context, limit int) ([]*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Close() error
}

type sqliteStore struct {
	db  *sql.DB
	log logger.Logger
}

// Open creates (or opens) the history database at path.
func Open(path string, log logger.Logger) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve history path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.ToSlash(absPath))
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(4)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %s: %w", stmt, err)
		}
	}

	s := &sqliteStore{db: db, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS replays (
    id TEXT PRIMARY KEY,
    session_name TEXT NOT NULL,
    device_id TEXT,
    success INTEGER NOT NULL,
    total_actions INTEGER NOT NULL,
    failed_actions INTEGER NOT NULL,
    duration_seconds REAL NOT NULL,
    created_at INTEGER NOT NULL,
    summary TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_replays_created_at ON replays(created_at DESC);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

func (s *sqliteStore) Save(ctx context.Context, id string, summary *report.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO replays (id, session_name, device_id, success, total_actions,
    failed_actions, duration_seconds, created_at, summary)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		summary.Scenario.SessionName,
		summary.Scenario.DeviceID,
		boolToInt(summary.Success),
		summary.Execution.TotalActions,
		summary.Execution.FailedActions,
		summary.Execution.DurationSeconds,
		time.Now().UnixNano(),
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("save replay record: %w", err)
	}
	return nil
}

func (s *sqliteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_name, device_id, success, total_actions, failed_actions,
    duration_seconds, created_at, summary
FROM replays ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list replays: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, session_name, device_id, success, total_actions, failed_actions,
    duration_seconds, created_at, summary
FROM replays WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("replay %q not found", id)
	}
	return rec, err
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var success int
	var createdAt int64
	var summary string
	if err := row.Scan(&rec.ID, &rec.SessionName, &rec.DeviceID, &success,
		&rec.TotalActions, &rec.FailedActions, &rec.DurationSeconds,
		&createdAt, &summary); err != nil {
		return nil, err
	}
	rec.Success = success != 0
	rec.CreatedAt = time.Unix(0, createdAt)
	rec.Summary = json.RawMessage(summary)
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
