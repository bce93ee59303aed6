package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/blogx/internal/formatter"
	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
	"github.com/desertthunder/blogx/internal/tasks"
	"github.com/desertthunder/blogx/internal/ui"
	"github.com/urfave/cli/v3"
)

// MigrateCategories copies source categories into the target store.
func (r *Runner) MigrateCategories(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := r.openStores(config)
	if err != nil {
		return err
	}
	defer s.Close()

	engine := r.newEngine(config, s)
	report := models.NewMigrationReport()
	quiet := cmd.Bool("json")

	var mapping models.CategoryIDMapping
	r.withProgress(quiet, func(progress chan<- tasks.ProgressUpdate) {
		mapping, err = engine.MigrateCategories(ctx, report, progress)
	})
	if err != nil {
		return err
	}

	if quiet {
		return r.writeJSON(map[string]any{"report": report, "mapping": mapping}, true)
	}
	return r.printReport(formatter.Summary{Report: report})
}

// MigrateBlogs copies source blog posts into the target store.
//
// Categories are resolved first so every post can be remapped; already migrated categories are reused.
func (r *Runner) MigrateBlogs(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := r.openStores(config)
	if err != nil {
		return err
	}
	defer s.Close()

	engine := r.newEngine(config, s)
	report := models.NewMigrationReport()
	quiet := cmd.Bool("json")

	r.withProgress(quiet, func(progress chan<- tasks.ProgressUpdate) {
		var mapping models.CategoryIDMapping
		if mapping, err = engine.MigrateCategories(ctx, report, progress); err != nil {
			return
		}
		err = engine.MigrateBlogPosts(ctx, mapping, report, progress)
	})
	if err != nil {
		return err
	}

	if quiet {
		return r.writeJSON(report, true)
	}
	return r.printReport(formatter.Summary{Report: report})
}

// MigrateAll runs the full pipeline: backup, categories, blog posts, validation.
func (r *Runner) MigrateAll(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := r.openStores(config)
	if err != nil {
		return err
	}
	defer s.Close()

	engine := r.newEngine(config, s)
	quiet := cmd.Bool("json")

	r.logger.Info("starting migration", "source", config.Source.URI, "target", config.Target.URI)

	var result *tasks.RunResult
	r.withProgress(quiet, func(progress chan<- tasks.ProgressUpdate) {
		result, err = engine.Run(ctx, tasks.RunOpts{SkipBackup: cmd.Bool("skip-backup")}, progress)
	})
	if err != nil {
		return err
	}

	summary := formatter.Summary{
		BackupPath: result.BackupPath,
		Report:     result.Report,
		Validation: result.Validation,
	}

	if path := cmd.String("report"); path != "" {
		written, err := formatter.WriteReport(summary, path)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", written)
	}

	if quiet {
		if err := r.writeJSON(summary, true); err != nil {
			return err
		}
	} else if err := r.printReport(summary); err != nil {
		return err
	}

	if cmd.Bool("strict") {
		if result.Report.HasErrors() {
			return fmt.Errorf("%w: %d record(s) failed to migrate", shared.ErrValidation, len(result.Report.Errors))
		}
		if !result.Validation.IsValid {
			return fmt.Errorf("%w: %d validation issue(s)", shared.ErrValidation, len(result.Validation.Issues))
		}
	}
	return nil
}

func (r *Runner) printReport(summary formatter.Summary) error {
	text, err := formatter.ReportToText(summary)
	if err != nil {
		return err
	}

	title := ui.Success("Migration Complete!")
	if summary.Report != nil && summary.Report.HasErrors() {
		title = ui.Warning("Migration Complete (with errors)")
	}

	r.writePlain("\n")
	r.writePlainHeader(title)
	return r.writePlain("%s", text)
}
