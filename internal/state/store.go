// Package state persists pipeline run history to SQLite: one record per
// run plus per-wave statistics, including the exclusion tallies the engine
// is required to report rather than absorb.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one pipeline execution.
type Run struct {
	ID           string
	Status       string
	StartedAt    time.Time
	CompletedAt  *time.Time
	Waves        int
	RowsOut      int
	RowsExcluded int
	Error        string
}

// WaveStats records one wave's row accounting within a run.
type WaveStats struct {
	Wave        int
	Individuals int
	FamilyRows  int
	Matched     int
	Excluded    int
}

// Store is the SQLite-backed run store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates an unopened store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the SQLite database at path. Use ":memory:" for an in-memory
// store.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping state database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s.db = db
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun inserts a new running run.
func (s *Store) CreateRun() (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}

	run := &Run{
		ID:        uuid.New().String(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("creating run", "run_id", run.ID)

	_, err := s.db.Exec(
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun finalizes a run with its status and totals.
func (s *Store) CompleteRun(id, status, errMsg string, waves, rowsOut, rowsExcluded int) error {
	if s.db == nil {
		return fmt.Errorf("state database not opened")
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, waves = ?, rows_out = ?, rows_excluded = ?, error = ? WHERE id = ?`,
		status, now, waves, rowsOut, rowsExcluded, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}

	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString
	err := s.db.QueryRow(
		`SELECT id, status, started_at, completed_at, waves, rows_out, rows_excluded, error FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Status, &run.StartedAt, &completedAt, &run.Waves, &run.RowsOut, &run.RowsExcluded, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.Error = errMsg.String
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, status, started_at, completed_at, waves, rows_out, rows_excluded, error FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.Status, &run.StartedAt, &completedAt, &run.Waves, &run.RowsOut, &run.RowsExcluded, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordWaveStats inserts one wave's statistics for a run.
func (s *Store) RecordWaveStats(runID string, ws WaveStats) error {
	if s.db == nil {
		return fmt.Errorf("state database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO wave_stats (run_id, wave, individuals, family_rows, matched, excluded) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, ws.Wave, ws.Individuals, ws.FamilyRows, ws.Matched, ws.Excluded,
	)
	if err != nil {
		return fmt.Errorf("failed to record wave stats: %w", err)
	}
	return nil
}

// GetWaveStats returns a run's wave statistics in wave order.
func (s *Store) GetWaveStats(runID string) ([]WaveStats, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}

	rows, err := s.db.Query(
		`SELECT wave, individuals, family_rows, matched, excluded FROM wave_stats WHERE run_id = ? ORDER BY wave`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get wave stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []WaveStats
	for rows.Next() {
		var ws WaveStats
		if err := rows.Scan(&ws.Wave, &ws.Individuals, &ws.FamilyRows, &ws.Matched, &ws.Excluded); err != nil {
			return nil, fmt.Errorf("failed to scan wave stats: %w", err)
		}
		stats = append(stats, ws)
	}
	return stats, rows.Err()
}
