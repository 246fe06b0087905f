// Package beacondb persists registration runs in SQLite: one row per run,
// the resolved pose of every scanner, and the deduplicated beacon map.
package beacondb

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/beacon.report/internal/beacon"
	"github.com/banshee-data/beacon.report/internal/monitoring"
	"github.com/banshee-data/beacon.report/internal/timeutil"
)

type BeaconDB struct {
	*sql.DB
	clock timeutil.Clock
}

// NewBeaconDB opens (or creates) the database at path and applies the
// embedded migrations.
func NewBeaconDB(path string) (*BeaconDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	bdb := &BeaconDB{DB: db, clock: timeutil.RealClock{}}
	if err := bdb.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	monitoring.Logf("initialized beacon database schema at %s", path)
	return bdb, nil
}

// SetClock replaces the clock used to stamp new runs.
func (bdb *BeaconDB) SetClock(c timeutil.Clock) {
	bdb.clock = c
}

// Run is a stored registration run.
type Run struct {
	RunID        string `json:"run_id"`
	Source       string `json:"source"`
	OriginID     int    `json:"origin_id"`
	ScannerCount int    `json:"scanner_count"`
	BeaconCount  int    `json:"beacon_count"`
	MaxManhattan int    `json:"max_manhattan"`
	Rounds       int    `json:"rounds"`
	Comparisons  int    `json:"comparisons"`
	CreatedAtNs  int64  `json:"created_at_ns"`
}

// RunScanner is the stored pose of one scanner within a run.
type RunScanner struct {
	ScannerID   int          `json:"scanner_id"`
	Position    beacon.Point `json:"position"`
	Rotation    int          `json:"rotation"`
	ReferenceID int          `json:"reference_id"`
	Relative    beacon.Point `json:"relative"`
	PointCount  int          `json:"point_count"`
}

// SaveRun stores a registration result and returns the generated run id.
func (bdb *BeaconDB) SaveRun(res *beacon.Result, source string) (string, error) {
	run := Run{
		RunID:        uuid.New().String(),
		Source:       source,
		OriginID:     int(res.Origin),
		ScannerCount: len(res.Scanners),
		BeaconCount:  res.Beacons.Count(),
		MaxManhattan: res.MaxManhattan(),
		Rounds:       res.Rounds,
		Comparisons:  res.Comparisons,
		CreatedAtNs:  bdb.clock.Now().UnixNano(),
	}

	tx, err := bdb.Begin()
	if err != nil {
		return "", fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO registration_runs (
			run_id, source, origin_id, scanner_count, beacon_count,
			max_manhattan, rounds, comparisons, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.Source, run.OriginID, run.ScannerCount, run.BeaconCount,
		run.MaxManhattan, run.Rounds, run.Comparisons, run.CreatedAtNs)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	scannerStmt, err := tx.Prepare(`
		INSERT INTO run_scanners (
			run_id, scanner_id, x, y, z, rotation,
			reference_id, rel_x, rel_y, rel_z, point_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare scanner insert: %w", err)
	}
	defer scannerStmt.Close()

	for _, s := range res.Scanners {
		pos, ok := s.Position()
		if !ok {
			return "", fmt.Errorf("scanner %d is not registered", s.ID)
		}
		ref, rel := s.Reference()
		if _, err := scannerStmt.Exec(run.RunID, int(s.ID), pos.X, pos.Y, pos.Z, int(s.Rotation()),
			int(ref), rel.X, rel.Y, rel.Z, len(s.Local)); err != nil {
			return "", fmt.Errorf("insert scanner %d: %w", s.ID, err)
		}
	}

	beaconStmt, err := tx.Prepare(`INSERT INTO run_beacons (run_id, x, y, z) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare beacon insert: %w", err)
	}
	defer beaconStmt.Close()

	for _, p := range res.Beacons.Points() {
		if _, err := beaconStmt.Exec(run.RunID, p.X, p.Y, p.Z); err != nil {
			return "", fmt.Errorf("insert beacon %v: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return run.RunID, nil
}

const runColumns = `run_id, source, origin_id, scanner_count, beacon_count,
	max_manhattan, rounds, comparisons, created_at_ns`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	err := row.Scan(&r.RunID, &r.Source, &r.OriginID, &r.ScannerCount, &r.BeaconCount,
		&r.MaxManhattan, &r.Rounds, &r.Comparisons, &r.CreatedAtNs)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRun retrieves a run by id.
func (bdb *BeaconDB) GetRun(runID string) (*Run, error) {
	row := bdb.QueryRow(`SELECT `+runColumns+` FROM registration_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (bdb *BeaconDB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := bdb.Query(`SELECT `+runColumns+` FROM registration_runs ORDER BY created_at_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListScanners returns the scanner poses of a run ordered by scanner id.
func (bdb *BeaconDB) ListScanners(runID string) ([]RunScanner, error) {
	rows, err := bdb.Query(`
		SELECT scanner_id, x, y, z, rotation, reference_id, rel_x, rel_y, rel_z, point_count
		FROM run_scanners
		WHERE run_id = ?
		ORDER BY scanner_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list scanners: %w", err)
	}
	defer rows.Close()

	var out []RunScanner
	for rows.Next() {
		var s RunScanner
		if err := rows.Scan(&s.ScannerID, &s.Position.X, &s.Position.Y, &s.Position.Z, &s.Rotation,
			&s.ReferenceID, &s.Relative.X, &s.Relative.Y, &s.Relative.Z, &s.PointCount); err != nil {
			return nil, fmt.Errorf("scan scanner: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListBeacons returns the beacon map of a run sorted by X, Y, Z.
func (bdb *BeaconDB) ListBeacons(runID string) ([]beacon.Point, error) {
	rows, err := bdb.Query(`SELECT x, y, z FROM run_beacons WHERE run_id = ? ORDER BY x, y, z`, runID)
	if err != nil {
		return nil, fmt.Errorf("list beacons: %w", err)
	}
	defer rows.Close()

	var out []beacon.Point
	for rows.Next() {
		var p beacon.Point
		if err := rows.Scan(&p.X, &p.Y, &p.Z); err != nil {
			return nil, fmt.Errorf("scan beacon: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and everything stored under it.
func (bdb *BeaconDB) DeleteRun(runID string) error {
	tx, err := bdb.Begin()
	if err != nil {
		return fmt.Errorf("begin delete run: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM run_beacons WHERE run_id = ?`,
		`DELETE FROM run_scanners WHERE run_id = ?`,
		`DELETE FROM registration_runs WHERE run_id = ?`,
	} {
		if _, err := tx.Exec(q, runID); err != nil {
			return fmt.Errorf("delete run %s: %w", runID, err)
		}
	}
	return tx.Commit()
}
