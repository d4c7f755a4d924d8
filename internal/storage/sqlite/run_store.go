// Package sqlite persists viewer load-run history: one row per ingested
// file, recording what was loaded and how the pipeline performed.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// LoadRun is one completed ingestion recorded for later comparison.
type LoadRun struct {
	RunID            string
	FilePath         string
	Encoding         string
	PointCount       int64
	StreamChunks     int
	LODChunks        int
	DroppedCells     int
	Warnings         int
	DurationMillis   int64
	CreatedUnixNanos int64
}

// LoadRunStore manages persistence for load runs.
type LoadRunStore struct {
	db *sql.DB
}

// Open opens (or creates) the run history database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*LoadRunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run store %q: %w", path, err)
	}
	store, err := NewLoadRunStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewLoadRunStore wraps an existing database handle and ensures the schema
// exists.
func NewLoadRunStore(db *sql.DB) (*LoadRunStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS load_runs (
			run_id TEXT PRIMARY KEY,
			file_path TEXT NOT NULL,
			encoding TEXT NOT NULL,
			point_count INTEGER NOT NULL,
			stream_chunks INTEGER NOT NULL,
			lod_chunks INTEGER NOT NULL,
			dropped_cells INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			duration_millis INTEGER NOT NULL,
			created_unix_nanos INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_load_runs_created ON load_runs(created_unix_nanos);
	`)
	if err != nil {
		return nil, fmt.Errorf("create load_runs schema: %w", err)
	}
	return &LoadRunStore{db: db}, nil
}

// InsertLoadRun records one completed run.
func (s *LoadRunStore) InsertLoadRun(run *LoadRun) error {
	_, err := s.db.Exec(`
		INSERT INTO load_runs (
			run_id, file_path, encoding, point_count, stream_chunks,
			lod_chunks, dropped_cells, warnings, duration_millis, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.FilePath,
		run.Encoding,
		run.PointCount,
		run.StreamChunks,
		run.LODChunks,
		run.DroppedCells,
		run.Warnings,
		run.DurationMillis,
		run.CreatedUnixNanos,
	)
	if err != nil {
		return fmt.Errorf("insert load run %s: %w", run.RunID, err)
	}
	return nil
}

// RecentLoadRuns returns up to limit runs, newest first.
func (s *LoadRunStore) RecentLoadRuns(limit int) ([]*LoadRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT run_id, file_path, encoding, point_count, stream_chunks,
		       lod_chunks, dropped_cells, warnings, duration_millis, created_unix_nanos
		FROM load_runs
		ORDER BY created_unix_nanos DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query load runs: %w", err)
	}
	defer rows.Close()

	var runs []*LoadRun
	for rows.Next() {
		run := &LoadRun{}
		if err := rows.Scan(
			&run.RunID,
			&run.FilePath,
			&run.Encoding,
			&run.PointCount,
			&run.StreamChunks,
			&run.LODChunks,
			&run.DroppedCells,
			&run.Warnings,
			&run.DurationMillis,
			&run.CreatedUnixNanos,
		); err != nil {
			return nil, fmt.Errorf("scan load run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close releases the underlying database handle.
func (s *LoadRunStore) Close() error {
	return s.db.Close()
}
