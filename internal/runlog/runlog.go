// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog persists publish run history in a local SQLite database so
// operators can inspect what was exported, when, and with what result.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded job execution.
type Run struct {
	ID          int64
	Dataset     string
	Mode        string
	Environment string
	Started     time.Time
	Finished    time.Time
	Published   bool
	Error       string
	Artifacts   []ArtifactRow
}

// ArtifactRow is one format outcome within a recorded run.
type ArtifactRow struct {
	Format string
	Path   string
	Size   *int64
	Error  string
}

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the run history database at path, creating the
// schema if it does not exist.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating run log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening run log database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dataset TEXT NOT NULL,
			mode TEXT NOT NULL,
			environment TEXT,
			started TEXT NOT NULL,
			finished TEXT NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			format TEXT NOT NULL,
			path TEXT,
			size INTEGER,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record persists one run and its artifact rows in a single transaction.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	published := 0
	if run.Published {
		published = 1
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (dataset, mode, environment, started, finished, published, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Dataset, run.Mode, run.Environment,
		run.Started.UTC().Format(time.RFC3339Nano),
		run.Finished.UTC().Format(time.RFC3339Nano),
		published, run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO artifacts (run_id, format, path, size, error) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing artifact insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range run.Artifacts {
		if _, err := stmt.ExecContext(ctx, id, a.Format, a.Path, a.Size, a.Error); err != nil {
			return 0, fmt.Errorf("inserting artifact %s: %w", a.Format, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Recent returns the most recent runs, newest first, with their artifacts.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, mode, environment, started, finished, published, error
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		var published int
		if err := rows.Scan(&run.ID, &run.Dataset, &run.Mode, &run.Environment,
			&started, &finished, &published, &run.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Started, _ = time.Parse(time.RFC3339Nano, started)
		run.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		run.Published = published != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		artifacts, err := s.artifactsFor(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Artifacts = artifacts
	}
	return runs, nil
}

func (s *Store) artifactsFor(ctx context.Context, runID int64) ([]ArtifactRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT format, path, size, error FROM artifacts WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []ArtifactRow
	for rows.Next() {
		var a ArtifactRow
		if err := rows.Scan(&a.Format, &a.Path, &a.Size, &a.Error); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
