// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// commonFlags are accepted by every command that touches a store.
func commonFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
	return append(flags, extra...)
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func storeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "store",
		Usage: "Store to operate on (source, target or both)",
		Value: "both",
	}
}

// setupCommand handles configuration and schema setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml from the built-in template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the schema in the source and target stores",
				Flags:  commonFlags(storeFlag()),
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent schema migration",
				Flags:  commonFlags(storeFlag()),
				Action: r.SetupRollback,
			},
		},
	}
}

// backupCommand handles backup artifacts.
func backupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Create and check backups of the source store",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Snapshot every source category and blog post to a JSON file",
				Flags: commonFlags(
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Backup directory (overrides backup.dir)",
					},
					jsonFlag(),
				),
				Action: r.BackupCreate,
			},
			{
				Name:  "validate",
				Usage: "Check a backup file's structure and counts",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags:  commonFlags(jsonFlag()),
				Action: r.BackupValidate,
			},
		},
	}
}

// migrateCommand handles the migration phases.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Copy categories and blog posts into the target store",
		Commands: []*cli.Command{
			{
				Name:   "categories",
				Usage:  "Migrate categories only",
				Flags:  commonFlags(jsonFlag()),
				Action: r.MigrateCategories,
			},
			{
				Name:   "blogs",
				Usage:  "Migrate blog posts, resolving categories first",
				Flags:  commonFlags(jsonFlag()),
				Action: r.MigrateBlogs,
			},
			{
				Name:  "all",
				Usage: "Back up, migrate categories and blog posts, then validate",
				Flags: commonFlags(
					&cli.BoolFlag{
						Name:  "skip-backup",
						Usage: "Do not write a backup before migrating",
					},
					&cli.StringFlag{
						Name:    "report",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file (.json, .md, .csv or .txt)",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Exit with an error when any record fails or validation finds issues",
					},
					jsonFlag(),
				),
				Action: r.MigrateAll,
			},
		},
	}
}

// validateCommand checks the target store against the source.
func validateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Compare counts and check category references in the target store",
		Flags: commonFlags(
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit with an error when validation finds issues",
			},
			jsonFlag(),
		),
		Action: r.Validate,
	}
}

// historyCommand lists recorded pipeline runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List previous migration runs recorded in the target store",
		Flags: commonFlags(
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show (0 for all)",
				Value: 10,
			},
			jsonFlag(),
		),
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command for an interactive migration.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for a full migration",
		Flags: commonFlags(
			&cli.BoolFlag{
				Name:  "skip-backup",
				Usage: "Do not write a backup before migrating",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file used while the TUI owns the terminal",
				Value: "./tmp/blogx-tui.log",
			},
		),
		Action: r.TUI,
	}
}
