package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/blogx/internal/shared"
	"github.com/urfave/cli/v3"
)

type namedStore struct {
	name string
	uri  string
}

// selectStores resolves the --store flag into the store URIs to operate on.
func selectStores(config *shared.Config, which string) ([]namedStore, error) {
	var selected []namedStore
	switch which {
	case "source":
		selected = []namedStore{{"source", config.Source.URI}}
	case "target":
		selected = []namedStore{{"target", config.Target.URI}}
	case "", "both":
		selected = []namedStore{{"source", config.Source.URI}, {"target", config.Target.URI}}
	default:
		return nil, fmt.Errorf("%w: --store must be source, target or both, got %q", shared.ErrInvalidArgument, which)
	}

	for _, s := range selected {
		if s.uri == "" {
			return nil, fmt.Errorf("%w: %s store URI is empty", shared.ErrMissingConfig, s.name)
		}
	}
	return selected, nil
}

// SetupConfig writes config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	return nil
}

// SetupDatabase creates the schema in the selected stores.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	selected, err := selectStores(config, cmd.String("store"))
	if err != nil {
		return err
	}

	for _, s := range selected {
		r.logger.Info("initializing database", "store", s.name, "uri", s.uri)
		db, err := shared.OpenStore(s.uri, config.Database)
		if err != nil {
			return fmt.Errorf("failed to set up %s store: %w", s.name, err)
		}
		version, err := shared.SchemaVersion(db)
		db.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s schema version: %w", s.name, err)
		}
		r.writePlain("✓ %s store ready: %s (schema v%d)\n", s.name, s.uri, version)
	}
	return nil
}

// SetupRollback rolls back the latest schema migration in the selected stores.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	selected, err := selectStores(config, cmd.String("store"))
	if err != nil {
		return err
	}

	for _, s := range selected {
		db, err := shared.NewDatabase(s.uri)
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", s.name, err)
		}

		r.logger.Info("rolling back migration", "store", s.name)
		reverted, err := shared.RollbackMigration(db)
		db.Close()
		if err != nil {
			return fmt.Errorf("failed to roll back %s store: %w", s.name, err)
		}
		r.writePlain("✓ %s store rolled back %04d_%s\n", s.name, reverted.Version, reverted.Name)
	}
	return nil
}
