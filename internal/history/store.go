package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"reel/internal/config"
	"reel/internal/services"
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Begin records a running session. An empty ID is replaced with a new UUID.
func (s *Store) Begin(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("begin session: nil session")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Mode == "" {
		session.Mode = ModeExport
	}
	session.Status = StatusRunning
	session.StartedAt = time.Now().UTC()

	_, err := s.execWithRetry(ctx,
		`INSERT INTO sessions (
            id, composition, composition_path, mode, status, requested_duration_us,
            manifest_path, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Composition,
		nullableString(session.CompositionPath),
		session.Mode,
		session.Status,
		session.RequestedDurationUs,
		nullableString(session.ManifestPath),
		formatTime(session.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Finish stores the outcome of a session. A nil runErr marks it completed;
// otherwise the status comes from FailureStatus.
func (s *Store) Finish(ctx context.Context, session *Session, runErr error) error {
	if session == nil || session.ID == "" {
		return errors.New("finish session: missing id")
	}
	ctx = ensureContext(ctx)
	session.Status = FailureStatus(runErr)
	session.ErrorMessage = ""
	if runErr != nil {
		session.ErrorMessage = runErr.Error()
	}
	session.FinishedAt = time.Now().UTC()

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin finish tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET
                status = ?, error_message = ?, frame_count = ?, duration_ms = ?,
                requested_duration_us = ?, dropped_frames = ?, forced_frames = ?,
                output_width = ?, output_height = ?, finished_at = ?
            WHERE id = ?`,
			session.Status,
			nullableString(session.ErrorMessage),
			session.FrameCount,
			session.DurationMs,
			session.RequestedDurationUs,
			session.DroppedFrames,
			session.ForcedFrames,
			session.OutputWidth,
			session.OutputHeight,
			formatTime(session.FinishedAt),
			session.ID,
		)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return services.Wrap(services.ErrNotFound, "history", "finish", "session "+session.ID, nil)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM session_entries WHERE session_id = ?", session.ID); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}
		for _, entry := range session.Entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_entries (
                    session_id, entry_index, source, kind, start_us, duration_us, frame_count
                ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				session.ID, entry.Index, entry.Source, entry.Kind, entry.StartUs, entry.DurationUs, entry.FrameCount,
			); err != nil {
				return fmt.Errorf("insert entry %d: %w", entry.Index, err)
			}
		}
		return tx.Commit()
	})
}

const sessionColumns = `id, composition, composition_path, mode, status, error_message,
    frame_count, duration_ms, requested_duration_us, dropped_frames, forced_frames,
    output_width, output_height, manifest_path, started_at, finished_at`

// Get returns the session whose ID equals or uniquely starts with id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "history", "get", "empty session id", nil)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY id LIMIT 2",
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	var matches []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		if session.ID == id {
			matches = []*Session{session}
			break
		}
		matches = append(matches, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "history", "get", "session "+id, nil)
	case 1:
	default:
		return nil, services.Wrap(services.ErrValidation, "history", "get", "ambiguous session id "+id, nil)
	}

	session := matches[0]
	entries, err := s.entries(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	session.Entries = entries
	return session, nil
}

// List returns the most recent sessions, newest first. limit <= 0 lists all.
func (s *Store) List(ctx context.Context, limit int) ([]*Session, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + sessionColumns + " FROM sessions ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Remove deletes a session and its entries.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) entries(ctx context.Context, id string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_index, source, kind, start_us, duration_us, frame_count
         FROM session_entries WHERE session_id = ? ORDER BY entry_index`, id)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Index, &e.Source, &e.Kind, &e.StartUs, &e.DurationUs, &e.FrameCount); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		session         Session
		compositionPath sql.NullString
		errorMessage    sql.NullString
		manifestPath    sql.NullString
		startedAt       string
		finishedAt      sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.Composition,
		&compositionPath,
		&session.Mode,
		&session.Status,
		&errorMessage,
		&session.FrameCount,
		&session.DurationMs,
		&session.RequestedDurationUs,
		&session.DroppedFrames,
		&session.ForcedFrames,
		&session.OutputWidth,
		&session.OutputHeight,
		&manifestPath,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.CompositionPath = compositionPath.String
	session.ErrorMessage = errorMessage.String
	session.ManifestPath = manifestPath.String
	session.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		session.FinishedAt = parseTime(finishedAt.String)
	}
	return &session, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// timeLayout keeps a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
