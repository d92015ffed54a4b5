// Package sqlite persists batch runs and per-station results, and answers
// the resume query for interrupted batches.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hydrograph/watershed/pkg/types"
)

// Store errors.
var (
	ErrNotOpen     = errors.New("store is not open")
	ErrAlreadyOpen = errors.New("store is already open")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	finished_at    TEXT,
	stations_total INTEGER NOT NULL DEFAULT 0,
	accepted       INTEGER NOT NULL DEFAULT 0,
	rejected       INTEGER NOT NULL DEFAULT 0,
	failed         INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS results (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	station_code   TEXT NOT NULL,
	verdict        TEXT NOT NULL,
	outlet_comid   INTEGER NOT NULL,
	snap_dist_m    REAL NOT NULL,
	upstream_count INTEGER NOT NULL,
	fragments      INTEGER NOT NULL,
	area_m2        REAL NOT NULL,
	ref_area_m2    REAL NOT NULL,
	relative_error REAL,
	failure_reason TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	PRIMARY KEY (run_id, station_code)
);
CREATE INDEX IF NOT EXISTS idx_results_station ON results (station_code);
`

// Store is a SQLite-backed record of runs and results. Open before use;
// methods on a closed store return ErrNotOpen.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	open bool
}

// Open connects to the database file at path, creating it and the schema on
// first use.
func (s *Store) Open(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return ErrAlreadyOpen
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}
	s.db = db
	s.open = true
	return nil
}

// Close releases the database. Closing a closed store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	return s.db.Close()
}

// BeginRun records a new run and returns its ID.
func (s *Store) BeginRun(stationsTotal int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return "", ErrNotOpen
	}
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, stations_total) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), stationsTotal)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's end time and verdict counts.
func (s *Store) FinishRun(runID string, accepted, rejected, failed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, accepted = ?, rejected = ?, failed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), accepted, rejected, failed, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// SaveResult records one station outcome for the run. A NaN relative error
// is stored as NULL.
func (s *Store) SaveResult(runID string, r types.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	var relErr any
	if !math.IsNaN(r.RelativeError) {
		relErr = r.RelativeError
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO results
		 (run_id, station_code, verdict, outlet_comid, snap_dist_m,
		  upstream_count, fragments, area_m2, ref_area_m2, relative_error,
		  failure_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.StationCode, r.Verdict, r.OutletID, r.SnapDistanceM,
		r.UpstreamCount, r.Fragments, r.ComputedAreaM2, r.ReferenceAreaM2,
		relErr, r.FailureReason, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.StationCode, err)
	}
	return nil
}

// CompletedStations returns the codes of every station accepted in any
// earlier run. Rejected and failed stations are not listed, so a rerun
// retries them.
func (s *Store) CompletedStations() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil, ErrNotOpen
	}
	rows, err := s.db.Query(
		`SELECT DISTINCT station_code FROM results WHERE verdict = ?`,
		types.VerdictAccepted)
	if err != nil {
		return nil, fmt.Errorf("query completed stations: %w", err)
	}
	defer rows.Close()
	done := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan completed stations: %w", err)
		}
		done[code] = true
	}
	return done, rows.Err()
}
