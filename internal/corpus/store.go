package corpus

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// Store persists extraction runs to SQLite. Each run gets a UUID so
// several extractions can share one corpus database and still be
// queried apart.
type Store struct {
	db     *sql.DB
	dbPath string
}

// RunSummary aggregates one stored run.
type RunSummary struct {
	RunID     string
	CreatedAt string
	Examples  int
	Files     int
}

// OpenStore opens (creating if needed) the corpus database at path.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// initialize creates the schema.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		requested INTEGER NOT NULL,
		collected INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS examples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		file_path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		prefix TEXT NOT NULL,
		middle TEXT NOT NULL,
		suffix TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_examples_run ON examples(run_id);
	CREATE INDEX IF NOT EXISTS idx_examples_file ON examples(file_path);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_examples_span
		ON examples(run_id, file_path, start_line, end_line);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun stores one extraction run and returns its run ID. Examples
// duplicating an already-stored middle range within the run are
// silently skipped (the unique span index enforces this).
func (s *Store) SaveRun(examples []Example, requested int) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, created_at, requested, collected) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC(), requested, len(examples),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO examples
			(run_id, file_path, start_line, end_line, prefix, middle, suffix)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ex := range examples {
		if _, err := stmt.Exec(runID, ex.FilePath, ex.StartLine, ex.EndLine,
			ex.Prefix, ex.Middle, ex.Suffix); err != nil {
			return "", fmt.Errorf("failed to insert example for %s: %w", ex.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// Examples returns the stored examples for a run, insertion-ordered.
func (s *Store) Examples(runID string) ([]Example, error) {
	rows, err := s.db.Query(`
		SELECT file_path, start_line, end_line, prefix, middle, suffix
		FROM examples WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query examples: %w", err)
	}
	defer rows.Close()

	var examples []Example
	for rows.Next() {
		var ex Example
		if err := rows.Scan(&ex.FilePath, &ex.StartLine, &ex.EndLine,
			&ex.Prefix, &ex.Middle, &ex.Suffix); err != nil {
			return nil, fmt.Errorf("failed to scan example: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

// Summaries lists all stored runs, newest first.
func (s *Store) Summaries() ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.run_id, r.created_at, COUNT(e.id), COUNT(DISTINCT e.file_path)
		FROM runs r LEFT JOIN examples e ON e.run_id = r.run_id
		GROUP BY r.run_id, r.created_at
		ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		if err := rows.Scan(&sum.RunID, &sum.CreatedAt, &sum.Examples, &sum.Files); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
