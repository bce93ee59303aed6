package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/blogx/internal/formatter"
	"github.com/desertthunder/blogx/internal/repositories"
	"github.com/desertthunder/blogx/internal/shared"
	"github.com/desertthunder/blogx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Validate compares both stores and checks category references in the target.
func (r *Runner) Validate(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := r.openStores(config)
	if err != nil {
		return err
	}
	defer s.Close()

	result := r.newEngine(config, s).ValidateMigration(ctx, nil)

	if cmd.Bool("json") {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
	} else {
		r.writePlainHeader("Validation")
		r.writePlain("%s", formatter.ValidationToText(result))
		if result.IsValid {
			r.writePlain("%s\n", ui.Success("✓ No invalid category references"))
		}
	}

	if cmd.Bool("strict") && !result.IsValid {
		return fmt.Errorf("%w: %d validation issue(s)", shared.ErrValidation, len(result.Issues))
	}
	return nil
}

// History lists recorded pipeline runs from the target store.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if config.Target.URI == "" {
		return fmt.Errorf("%w: target store URI is empty (set %s)", shared.ErrMissingConfig, shared.EnvTargetURI)
	}

	db, err := shared.OpenStore(config.Target.URI, config.Database)
	if err != nil {
		return fmt.Errorf("failed to open target store: %w", err)
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		r.writePlain("No migration runs recorded\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Migration runs (%d)", len(runs)))
	for _, run := range runs {
		status := ui.Warning("incomplete")
		if run.Completed() {
			status = ui.Success("completed")
		}
		r.writePlain("%s  %s  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"), run.ID, status)
		if run.Report != nil {
			r.writePlain("   categories: %d  blogs: %d  warnings: %d  errors: %d\n",
				run.Report.CategoriesMigrated, run.Report.BlogsMigrated, len(run.Report.Warnings), len(run.Report.Errors))
		}
		if run.BackupPath != "" {
			r.writePlain("   backup: %s\n", run.BackupPath)
		}
	}
	return nil
}
