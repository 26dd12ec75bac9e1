package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists export runs.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	defaultListLimit = 20
	runColumns       = "id, project_path, output_path, status, clip_count, error_kind, error_message, size_bytes, duration_seconds, started_at, finished_at"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("history run not found")

// Open creates or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Start inserts a running row and returns it with a fresh ID. A non-empty
// run.ID is kept so the history row matches the run's log correlation ID.
func (s *Store) Start(ctx context.Context, run Run) (Run, error) {
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	run.Status = StatusRunning
	run.StartedAt = s.now().UTC()
	err := s.execWithRetry(ctx, `INSERT INTO export_runs (
            id, project_path, output_path, status, clip_count, started_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProjectPath, run.OutputPath, string(run.Status), run.ClipCount,
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish records the outcome of a run started with Start.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	if outcome.Status == "" || outcome.Status == StatusRunning {
		return fmt.Errorf("finish run %s: invalid status %q", id, outcome.Status)
	}
	finishedAt := s.now().UTC().Format(time.RFC3339Nano)
	var affected int64
	err := retryOnBusy(ensureContext(ctx), func() error {
		res, execErr := s.db.ExecContext(ensureContext(ctx), `UPDATE export_runs SET
                status = ?, error_kind = ?, error_message = ?, size_bytes = ?,
                duration_seconds = ?, finished_at = ?
            WHERE id = ?`,
			string(outcome.Status), nullableString(outcome.ErrorKind), nullableString(outcome.ErrorMessage),
			outcome.SizeBytes, outcome.DurationSeconds, finishedAt, id,
		)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrNotFound)
	}
	return nil
}

// Get fetches one run by ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM export_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// List returns the most recent runs, newest first. limit <= 0 uses a default.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM export_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Prune deletes finished runs that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ensureContext(ctx), func() error {
		res, execErr := s.db.ExecContext(ensureContext(ctx),
			`DELETE FROM export_runs WHERE status != ? AND started_at < ?`,
			string(StatusRunning), cutoff.UTC().Format(time.RFC3339Nano))
		if execErr != nil {
			return execErr
		}
		removed, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                   Run
		status                string
		errorKind, errorMsg   sql.NullString
		startedAt, finishedAt sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.ProjectPath, &run.OutputPath, &status, &run.ClipCount,
		&errorKind, &errorMsg, &run.SizeBytes, &run.DurationSeconds,
		&startedAt, &finishedAt,
	); err != nil {
		return Run{}, err
	}
	run.Status = Status(status)
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMsg.String
	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finishedAt)
	return run, nil
}

func parseTimestamp(value sql.NullString) time.Time {
	if !value.Valid || value.String == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
