package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// RunRepository records migration runs in the target store.
//
// A run is inserted when the pipeline starts and updated with the final report when it finishes,
// so an interrupted run remains visible with no completion time.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start inserts a new run with a generated ID.
func (r *RunRepository) Start(ctx context.Context, run *models.MigrationRun) error {
	run.ID = shared.GenerateID()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Report == nil {
		run.Report = models.NewMigrationReport()
	}

	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := `
		INSERT INTO migration_runs (id, started_at, backup_path, report)
		VALUES (?, ?, ?, ?)
	`

	var backupPath any = run.BackupPath
	if run.BackupPath == "" {
		backupPath = nil
	}

	if _, err := r.db.ExecContext(ctx, query, run.ID, run.StartedAt, backupPath, string(report)); err != nil {
		return fmt.Errorf("failed to insert migration run: %w", err)
	}

	return nil
}

// Finish stores the final report and completion time of a run.
func (r *RunRepository) Finish(ctx context.Context, run *models.MigrationRun) error {
	if run.Report == nil {
		run.Report = models.NewMigrationReport()
	}

	now := time.Now().UTC()
	run.CompletedAt = &now

	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := `
		UPDATE migration_runs
		SET completed_at = ?, backup_path = ?, categories_migrated = ?, blogs_migrated = ?,
			warnings = ?, errors = ?, report = ?
		WHERE id = ?
	`

	var backupPath any = run.BackupPath
	if run.BackupPath == "" {
		backupPath = nil
	}

	result, err := r.db.ExecContext(ctx, query,
		now,
		backupPath,
		run.Report.CategoriesMigrated,
		run.Report.BlogsMigrated,
		len(run.Report.Warnings),
		len(run.Report.Errors),
		string(report),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update migration run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: migration run %s", shared.ErrNotFound, run.ID)
	}

	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.MigrationRun, error) {
	query := `
		SELECT id, started_at, completed_at, backup_path, report
		FROM migration_runs
		WHERE id = ?
	`

	run, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: migration run %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query migration run: %w", err)
	}

	return run, nil
}

// List returns the most recent runs first, up to limit (0 for all).
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.MigrationRun, error) {
	query := `
		SELECT id, started_at, completed_at, backup_path, report
		FROM migration_runs
		ORDER BY started_at DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query migration runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.MigrationRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) scan(row scanner) (*models.MigrationRun, error) {
	var (
		run         models.MigrationRun
		completedAt sql.NullTime
		backupPath  sql.NullString
		report      string
	)

	if err := row.Scan(&run.ID, &run.StartedAt, &completedAt, &backupPath, &report); err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if backupPath.Valid {
		run.BackupPath = backupPath.String
	}

	run.Report = models.NewMigrationReport()
	if err := json.Unmarshal([]byte(report), run.Report); err != nil {
		return nil, fmt.Errorf("failed to decode report of run %s: %w", run.ID, err)
	}

	return &run, nil
}
