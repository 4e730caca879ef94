// package repositories provides the SQLite persistence for the artwork index.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/msrv/internal/models"
	"github.com/desertthunder/msrv/internal/shared"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ScanRunRepository records library indexer runs.
type ScanRunRepository struct {
	db *sql.DB
}

// NewScanRunRepository creates a new [ScanRunRepository] with the given database connection
func NewScanRunRepository(db *sql.DB) *ScanRunRepository {
	return &ScanRunRepository{db: db}
}

// Start records the beginning of a run over root.
func (r *ScanRunRepository) Start(root string) (*models.ScanRun, error) {
	run := &models.ScanRun{ID: shared.GenerateID(), Root: root, StartedAt: time.Now().UTC()}

	_, err := r.db.Exec(`INSERT INTO scan_runs (id, root, indexed, started_at) VALUES (?, ?, 0, ?)`, run.ID, run.Root, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scan run: %w", err)
	}
	return run, nil
}

// Finish stores the indexed count and completion time of run.
func (r *ScanRunRepository) Finish(run *models.ScanRun, indexed int) error {
	now := time.Now().UTC()

	result, err := r.db.Exec(`UPDATE scan_runs SET indexed = ?, finished_at = ? WHERE id = ?`, indexed, now, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update scan run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: scan run %s", shared.ErrNotFound, run.ID)
	}

	run.Indexed = indexed
	run.FinishedAt = &now
	return nil
}

// Latest returns the most recent run for root.
func (r *ScanRunRepository) Latest(root string) (*models.ScanRun, error) {
	var (
		run        models.ScanRun
		finishedAt sql.NullTime
	)

	query := `SELECT id, root, indexed, started_at, finished_at FROM scan_runs WHERE root = ? ORDER BY started_at DESC LIMIT 1`
	err := r.db.QueryRow(query, root).Scan(&run.ID, &run.Root, &run.Indexed, &run.StartedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no scan run for %s", shared.ErrNotFound, root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan run: %w", err)
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}
