package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// RunRecorder persists an audit record for each pipeline run.
type RunRecorder interface {
	Start(ctx context.Context, run *models.MigrationRun) error
	Finish(ctx context.Context, run *models.MigrationRun) error
}

// EngineOpts configures a [MigrationEngine].
type EngineOpts struct {
	Source    models.Store     // Store records are read from
	Target    models.Store     // Store records are written to
	Logger    *log.Logger      // Defaults to a discarding logger
	BackupDir string           // Directory for backup artifacts, defaults to "."
	WriteRate float64          // Target creates per second, 0 disables throttling
	Runs      RunRecorder      // Optional run history
	Now       func() time.Time // Clock used for backup timestamps, defaults to time.Now
}

// RunOpts selects the phases executed by [MigrationEngine.Run].
type RunOpts struct {
	SkipBackup bool
}

// RunResult contains everything produced by a full pipeline run.
type RunResult struct {
	RunID      string                   // Run history id, empty without a [RunRecorder]
	BackupPath string                   // Path of the backup written, empty when skipped
	Report     *models.MigrationReport  // Merged report of both migration phases
	Mapping    models.CategoryIDMapping // Source to target category ids
	Validation *models.ValidationResult // Post-migration reconciliation
}

// MigrationEngine moves categories and blog posts from a source store into a target store.
type MigrationEngine struct {
	source    models.Store
	target    models.Store
	logger    *log.Logger
	backupDir string
	limiter   *rate.Limiter
	runs      RunRecorder
	now       func() time.Time
}

// NewMigrationEngine creates a new MigrationEngine with the provided stores.
func NewMigrationEngine(opts EngineOpts) *MigrationEngine {
	e := &MigrationEngine{
		source:    opts.Source,
		target:    opts.Target,
		logger:    opts.Logger,
		backupDir: opts.BackupDir,
		runs:      opts.Runs,
		now:       opts.Now,
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(io.Discard)
	}
	if e.backupDir == "" {
		e.backupDir = "."
	}
	if e.now == nil {
		e.now = time.Now
	}
	if opts.WriteRate > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.WriteRate), 1)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MigrationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// waitWrite blocks until the limiter allows another create on the target store.
func (e *MigrationEngine) waitWrite(ctx context.Context) error {
	if e.limiter == nil {
		return ctx.Err()
	}
	return e.limiter.Wait(ctx)
}

func (e *MigrationEngine) checkStores() error {
	if e.source.Categories == nil || e.source.Blogs == nil {
		return fmt.Errorf("%w: source store not initialized", shared.ErrStoreUnavailable)
	}
	if e.target.Categories == nil || e.target.Blogs == nil {
		return fmt.Errorf("%w: target store not initialized", shared.ErrStoreUnavailable)
	}
	return nil
}

// Run executes the full pipeline: backup, categories, blogs, validation.
//
// The backup just written is re-read with [ValidateBackup] and a structural problem aborts the run
// before anything is written to the target. Per-record failures are reported, not returned.
func (e *MigrationEngine) Run(ctx context.Context, opts RunOpts, progress chan<- ProgressUpdate) (*RunResult, error) {
	if err := e.checkStores(); err != nil {
		return nil, err
	}

	report := models.NewMigrationReport()
	result := &RunResult{Report: report}

	if !opts.SkipBackup {
		_, path, err := e.CreateBackup(ctx, progress)
		if err != nil {
			return nil, err
		}
		if _, err := ValidateBackup(path, report); err != nil {
			return nil, err
		}
		result.BackupPath = path
	}

	run := &models.MigrationRun{StartedAt: e.now().UTC(), BackupPath: result.BackupPath, Report: report}
	if e.runs != nil {
		if err := e.runs.Start(ctx, run); err != nil {
			e.logger.Warn("failed to record migration run", "error", err)
		} else {
			result.RunID = run.ID
		}
	}

	mapping, err := e.MigrateCategories(ctx, report, progress)
	if err != nil {
		e.finishRun(ctx, run)
		return result, err
	}
	result.Mapping = mapping

	if err := e.MigrateBlogPosts(ctx, mapping, report, progress); err != nil {
		e.finishRun(ctx, run)
		return result, err
	}

	result.Validation = e.ValidateMigration(ctx, progress)
	e.finishRun(ctx, run)

	e.logger.Info("migration finished",
		"categories", report.CategoriesMigrated,
		"blogs", report.BlogsMigrated,
		"warnings", len(report.Warnings),
		"errors", len(report.Errors),
		"valid", result.Validation.IsValid,
	)
	return result, nil
}

// finishRun stores the final report even when ctx has been cancelled.
func (e *MigrationEngine) finishRun(ctx context.Context, run *models.MigrationRun) {
	if e.runs == nil || run.ID == "" {
		return
	}
	if err := e.runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Warn("failed to finish migration run", "id", run.ID, "error", err)
	}
}
