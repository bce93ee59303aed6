package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/blogx/internal/shared"
	"github.com/desertthunder/blogx/internal/tasks"
	"github.com/desertthunder/blogx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for a full migration.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	s, err := r.openStores(config)
	if err != nil {
		return err
	}
	defer s.Close()

	model := ui.NewModel(ctx, ui.ModelOpts{
		Engine: r.newEngine(config, s),
		Run:    tasks.RunOpts{SkipBackup: cmd.Bool("skip-backup")},
		Source: config.Source.URI,
		Target: config.Target.URI,
	})
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
