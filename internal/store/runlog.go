package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// PipelineRun is one recorded refresh run for a role.
type PipelineRun struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	Extracted  int       `json:"extracted"`
	Analyzed   bool      `json:"analyzed"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

var (
	runlogDB   *sql.DB
	runlogOnce sync.Once
	runlogErr  error
	runlogDir  string
)

// SetRunlogDir sets the directory for the run-history database. Must be
// called before the first RecordRun/RecentRuns.
func SetRunlogDir(dir string) { runlogDir = dir }

// openRunlogDB opens (or creates) the SQLite run-history database.
func openRunlogDB() (*sql.DB, error) {
	runlogOnce.Do(func() {
		dir := runlogDir
		if dir == "" {
			dir = filepath.Join(os.Getenv("HOME"), ".jobmarket")
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			runlogErr = fmt.Errorf("runlog: mkdir %s: %w", dir, err)
			return
		}
		dbPath := filepath.Join(dir, "runs.db")
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			runlogErr = fmt.Errorf("runlog: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		if err := initRunlogSchema(db); err != nil {
			runlogErr = fmt.Errorf("runlog: init schema: %w", err)
			return
		}
		runlogDB = db
	})
	return runlogDB, runlogErr
}

func initRunlogSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		role        TEXT NOT NULL,
		fetched     INTEGER NOT NULL DEFAULT 0,
		inserted    INTEGER NOT NULL DEFAULT 0,
		extracted   INTEGER NOT NULL DEFAULT 0,
		analyzed    INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL
	)`)
	return err
}

// RecordRun appends a finished pipeline run to the local history. The run id
// is generated here and returned.
func RecordRun(ctx context.Context, run PipelineRun) (string, error) {
	db, err := openRunlogDB()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	analyzed := 0
	if run.Analyzed {
		analyzed = 1
	}
	_, err = db.ExecContext(ctx, `INSERT INTO runs
		(id, role, fetched, inserted, extracted, analyzed, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Role, run.Fetched, run.Inserted, run.Extracted, analyzed, run.Error,
		run.StartedAt.UTC().Format(time.RFC3339), run.FinishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("runlog: insert: %w", err)
	}
	return id, nil
}

// RecentRuns returns the most recent runs, newest first.
func RecentRuns(ctx context.Context, limit int) ([]PipelineRun, error) {
	db, err := openRunlogDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, `SELECT
		id, role, fetched, inserted, extracted, analyzed, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog: query: %w", err)
	}
	defer rows.Close()

	var runs []PipelineRun
	for rows.Next() {
		var (
			r                  PipelineRun
			analyzed           int
			started, finished  string
		)
		if err := rows.Scan(&r.ID, &r.Role, &r.Fetched, &r.Inserted, &r.Extracted,
			&analyzed, &r.Error, &started, &finished); err != nil {
			return nil, err
		}
		r.Analyzed = analyzed != 0
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
