package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/repositories"
	"github.com/desertthunder/blogx/internal/shared"
	"github.com/desertthunder/blogx/internal/tasks"
	"github.com/desertthunder/blogx/internal/ui"
	"github.com/urfave/cli/v3"
)

// BackupCreate snapshots the source store into the backup directory.
func (r *Runner) BackupCreate(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if dir := cmd.String("dir"); dir != "" {
		config.Backup.Dir = dir
	}
	if config.Source.URI == "" {
		return fmt.Errorf("%w: source store URI is empty (set %s)", shared.ErrMissingConfig, shared.EnvSourceURI)
	}

	db, err := shared.OpenStore(config.Source.URI, config.Database)
	if err != nil {
		return fmt.Errorf("failed to open source store: %w", err)
	}
	defer db.Close()

	engine := tasks.NewMigrationEngine(tasks.EngineOpts{
		Source:    repositories.NewStore(db),
		Logger:    r.logger,
		BackupDir: config.Backup.Dir,
	})

	artifact, path, err := engine.CreateBackup(ctx, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"path":      path,
			"timestamp": artifact.Timestamp,
			"counts":    artifact.Counts,
		}, true)
	}

	r.writePlain("%s\n", ui.Success("✓ Backup created"))
	r.writePlain("Path: %s\n", path)
	r.writePlain("Categories: %d\n", artifact.Counts.Categories)
	r.writePlain("Blogs: %d\n", artifact.Counts.Blogs)
	return nil
}

// BackupValidate checks a backup file's structure.
func (r *Runner) BackupValidate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: backup path is required", shared.ErrMissingArgument)
	}

	report := models.NewMigrationReport()
	valid, err := tasks.ValidateBackup(path, report)
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"path":     path,
			"valid":    valid,
			"warnings": report.Warnings,
		}, true)
	}

	r.writePlain("%s %s\n", ui.Success("✓ Backup is valid:"), path)
	for _, w := range report.Warnings {
		r.writePlain("  %s\n", ui.Warning("! "+w))
	}
	return nil
}
