package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/mbasic/foundation/core/error"
)

// Origin names the front-end a run came from
type Origin string

const (
	OriginWeb       Origin = "web"
	OriginFile      Origin = "file"
	OriginWebSocket Origin = "ws"
	OriginRPC       Origin = "rpc"
	OriginCLI       Origin = "cli"
)

// Run is one recorded execution of the front-end
type Run struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Origin     Origin    `json:"origin"`
	Filename   string    `json:"filename"`
	Code       string    `json:"code"`
	Success    bool      `json:"success"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	Tokens     int       `json:"tokens"`
	DurationMs float64   `json:"duration_ms"`
	RequestID  string    `json:"request_id,omitempty"`
}

// RunFilter defines criteria for listing runs
type RunFilter struct {
	Origin Origin
	// Success filters by outcome when set
	Success *bool
	Since   time.Time
	Limit   int
	Offset  int
}

// RunStore defines the interface for run history persistence
type RunStore interface {
	Record(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, filter RunFilter) ([]*Run, error)
	Stats(ctx context.Context) (*Stats, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Stats summarizes the stored history
type Stats struct {
	Total    int64            `json:"total"`
	Failed   int64            `json:"failed"`
	ByOrigin map[string]int64 `json:"by_origin"`
	LastRun  time.Time        `json:"last_run,omitempty"`
}

// SQLiteRunStore implements RunStore using SQLite
type SQLiteRunStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	retention int
}

// SQLiteRunConfig holds configuration for the SQLite store
type SQLiteRunConfig struct {
	Path string
	// Retention is the number of runs kept after each insert. 0 keeps all.
	Retention int
}

// DefaultRunConfig returns default configuration
func DefaultRunConfig() SQLiteRunConfig {
	return SQLiteRunConfig{
		Path:      "./data/history.db",
		Retention: 1000,
	}
}

// NewSQLiteRunStore creates a new SQLite-based run store
func NewSQLiteRunStore(cfg SQLiteRunConfig) (*SQLiteRunStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, mdwerror.Wrap(err, "failed to create directory").
			WithCode(mdwerror.CodeIOError).
			WithDetail("path", dir)
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to open database").WithCode(mdwerror.CodeDatabaseError)
	}

	store := &SQLiteRunStore{db: db, retention: cfg.Retention}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, mdwerror.Wrap(err, "failed to initialize schema").WithCode(mdwerror.CodeDatabaseError)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteRunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		origin TEXT NOT NULL,
		filename TEXT NOT NULL,
		code TEXT NOT NULL,
		success INTEGER NOT NULL,
		result TEXT,
		error TEXT,
		tokens INTEGER NOT NULL,
		duration_ms REAL NOT NULL,
		request_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seq ON runs(seq DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_origin ON runs(origin);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores a run and applies the retention limit. ID and Timestamp
// are filled in when empty.
func (s *SQLiteRunStore) Record(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}
	// timestamps are compared as text, so they must share one offset
	run.Timestamp = run.Timestamp.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, timestamp, origin, filename, code, success, result, error, tokens, duration_ms, request_id)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Timestamp, run.Origin, run.Filename, run.Code, run.Success,
		nullString(run.Result), nullString(run.Error), run.Tokens, run.DurationMs, nullString(run.RequestID))
	if err != nil {
		return mdwerror.Wrap(err, "failed to insert run").
			WithCode(mdwerror.CodeDatabaseError).
			WithDetail("id", run.ID)
	}

	if s.retention > 0 {
		if _, err := s.prune(ctx, s.retention); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a single run
func (s *SQLiteRunStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, origin, filename, code, success, result, error, tokens, duration_ms, request_id
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mdwerror.Newf("run not found: %s", id).WithCode(mdwerror.CodeNotFound)
	}
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to load run").WithCode(mdwerror.CodeDatabaseError)
	}
	return run, nil
}

// List retrieves runs, newest first
func (s *SQLiteRunStore) List(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, origin, filename, code, success, result, error, tokens, duration_ms, request_id
		FROM runs WHERE 1=1`
	var args []interface{}

	if filter.Origin != "" {
		query += " AND origin = ?"
		args = append(args, filter.Origin)
	}
	if filter.Success != nil {
		query += " AND success = ?"
		args = append(args, *filter.Success)
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY seq DESC"

	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT; -1 means no limit
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to query runs").WithCode(mdwerror.CodeDatabaseError)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, mdwerror.Wrap(err, "failed to scan run").WithCode(mdwerror.CodeDatabaseError)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, mdwerror.Wrap(err, "failed to read runs").WithCode(mdwerror.CodeDatabaseError)
	}

	return runs, nil
}

// Stats returns aggregate counts
func (s *SQLiteRunStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByOrigin: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) FROM runs`).
		Scan(&stats.Total, &stats.Failed)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to count runs").WithCode(mdwerror.CodeDatabaseError)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT origin, COUNT(*) FROM runs GROUP BY origin`)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to group runs").WithCode(mdwerror.CodeDatabaseError)
	}
	defer rows.Close()
	for rows.Next() {
		var origin string
		var count int64
		if err := rows.Scan(&origin, &count); err != nil {
			return nil, mdwerror.Wrap(err, "failed to scan origin count").WithCode(mdwerror.CodeDatabaseError)
		}
		stats.ByOrigin[origin] = count
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT timestamp FROM runs ORDER BY seq DESC LIMIT 1`).Scan(&last); err == nil && last.Valid {
		stats.LastRun = last.Time
	}

	return stats, nil
}

// Prune keeps the newest keep runs and deletes the rest
func (s *SQLiteRunStore) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prune(ctx, keep)
}

func (s *SQLiteRunStore) prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE seq NOT IN (SELECT seq FROM runs ORDER BY seq DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, mdwerror.Wrap(err, "failed to prune runs").WithCode(mdwerror.CodeDatabaseError)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// Ping verifies the database is reachable
func (s *SQLiteRunStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return mdwerror.Wrap(err, "history database unreachable").WithCode(mdwerror.CodeDatabaseError)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var result, errText, requestID sql.NullString
	var origin string

	if err := row.Scan(&run.ID, &run.Timestamp, &origin, &run.Filename, &run.Code, &run.Success,
		&result, &errText, &run.Tokens, &run.DurationMs, &requestID); err != nil {
		return nil, err
	}

	run.Origin = Origin(origin)
	run.Result = result.String
	run.Error = errText.String
	run.RequestID = requestID.String
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
