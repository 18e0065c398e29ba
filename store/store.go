// Package store persists benchmark runs and their per-genome measurements
// in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kmerbench/kmerbench/dataset"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is a stored benchmark run.
type Run struct {
	ID        string
	Label     string
	K         int
	CreatedAt time.Time
	Dataset   dataset.Dataset
}

// RunInfo summarizes a run without its measurements.
type RunInfo struct {
	ID        string
	Label     string
	K         int
	CreatedAt time.Time
	Genomes   int
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  label TEXT NOT NULL DEFAULT '',
  k INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS measurements (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  genome TEXT NOT NULL DEFAULT '',
  label TEXT NOT NULL,
  size_bp REAL NOT NULL,
  real_seconds REAL NOT NULL,
  peak_memory_mb REAL NOT NULL,
  map_reads_seconds REAL NOT NULL,
  index_genome_seconds REAL NOT NULL,
  search_kmer_seconds REAL NOT NULL,
  PRIMARY KEY (run_id, position)
);
`)
	return err
}

// SaveRun stores the run and its measurements in one transaction and
// returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if len(run.Dataset) == 0 {
		return "", errors.New("save run: empty dataset")
	}

	id := uuid.NewString()
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs(run_id, label, k, created_at) VALUES(?, ?, ?, ?);
`, id, run.Label, run.K, createdAt); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, m := range run.Dataset {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO measurements(run_id, position, genome, label, size_bp, real_seconds,
  peak_memory_mb, map_reads_seconds, index_genome_seconds, search_kmer_seconds)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, id, i, m.Genome, m.Label, m.SizeBP, m.RealSeconds, m.PeakMemoryMB,
			m.MapReadsSeconds, m.IndexGenomeSeconds, m.SearchKmerSeconds); err != nil {
			return "", fmt.Errorf("insert measurement %s: %w", m.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}

	return id, nil
}

// LoadRun returns the run with its measurements in their original order.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, error) {
	run := Run{ID: id}

	err := s.db.QueryRowContext(ctx, `
SELECT label, k, created_at FROM runs WHERE run_id=?;
`, id).Scan(&run.Label, &run.K, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT genome, label, size_bp, real_seconds, peak_memory_mb,
  map_reads_seconds, index_genome_seconds, search_kmer_seconds
FROM measurements WHERE run_id=? ORDER BY position;
`, id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var m dataset.Measurement
		if err := rows.Scan(&m.Genome, &m.Label, &m.SizeBP, &m.RealSeconds,
			&m.PeakMemoryMB, &m.MapReadsSeconds, &m.IndexGenomeSeconds,
			&m.SearchKmerSeconds); err != nil {
			return Run{}, err
		}
		run.Dataset = append(run.Dataset, m)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.run_id, r.label, r.k, r.created_at, COUNT(m.position)
FROM runs r LEFT JOIN measurements m ON m.run_id = r.run_id
GROUP BY r.run_id
ORDER BY r.created_at DESC, r.rowid DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.ID, &r.Label, &r.K, &r.CreatedAt, &r.Genomes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its measurements.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM measurements WHERE run_id=?;", id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id=?;", id)
	if err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return tx.Commit()
}
