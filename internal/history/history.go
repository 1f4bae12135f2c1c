// Package history stores the outcome of every chapter download in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/handiism/comic-downloader/internal/download"

	_ "modernc.org/sqlite"
)

// Entry is one finished download task.
type Entry struct {
	ID            int64          `json:"id"`
	RunID         string         `json:"run_id"`
	ChapterUUID   string         `json:"chapter_uuid"`
	ChapterTitle  string         `json:"chapter_title"`
	ComicPathWord string         `json:"comic_path_word"`
	ComicTitle    string         `json:"comic_title"`
	State         download.State `json:"state"`
	Downloaded    int64          `json:"downloaded"`
	Total         int64          `json:"total"`
	Err           string         `json:"error,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}

// Duration returns how long the task ran.
func (e *Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Store wraps the SQLite connection. It implements download.Recorder.
type Store struct {
	conn *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	connString := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
		connString = path + "?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// SQLite doesn't handle concurrent writers
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chapter_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		chapter_uuid TEXT NOT NULL,
		chapter_title TEXT NOT NULL,
		comic_path_word TEXT NOT NULL,
		comic_title TEXT NOT NULL,
		state TEXT NOT NULL,
		downloaded INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chapter_runs_chapter_uuid ON chapter_runs(chapter_uuid);
	CREATE INDEX IF NOT EXISTS idx_chapter_runs_finished_at ON chapter_runs(finished_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Record stores a task outcome.
func (s *Store) Record(ctx context.Context, o download.Outcome) error {
	query := `
	INSERT INTO chapter_runs (
		run_id, chapter_uuid, chapter_title, comic_path_word, comic_title,
		state, downloaded, total, error_message, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query,
		o.RunID, o.ChapterUUID, o.ChapterTitle, o.ComicPathWord, o.ComicTitle,
		o.State.String(), o.Downloaded, o.Total, o.Err,
		o.StartedAt.UTC(), o.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", o.RunID, err)
	}
	return nil
}

const selectColumns = `
	SELECT id, run_id, chapter_uuid, chapter_title, comic_path_word, comic_title,
		   state, downloaded, total, error_message, started_at, finished_at
	FROM chapter_runs
`

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	return s.query(ctx, selectColumns+`ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
}

// ByChapter returns every run of a chapter, newest first.
func (s *Store) ByChapter(ctx context.Context, chapterUUID string) ([]*Entry, error) {
	return s.query(ctx, selectColumns+`WHERE chapter_uuid = ? ORDER BY finished_at DESC, id DESC`, chapterUUID)
}

// Stats counts entries by final state.
func (s *Store) Stats(ctx context.Context) (map[download.State]int, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT state, COUNT(*) FROM chapter_runs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	stats := make(map[download.State]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		var state download.State
		if err := state.UnmarshalText([]byte(name)); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

// Prune deletes entries that finished more than olderThan ago.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	result, err := s.conn.ExecContext(ctx, `DELETE FROM chapter_runs WHERE finished_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var state string
		err := rows.Scan(
			&e.ID, &e.RunID, &e.ChapterUUID, &e.ChapterTitle, &e.ComicPathWord, &e.ComicTitle,
			&state, &e.Downloaded, &e.Total, &e.Err, &e.StartedAt, &e.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := e.State.UnmarshalText([]byte(state)); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
