package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/repositories"
	"github.com/desertthunder/blogx/internal/shared"
	"github.com/desertthunder/blogx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, backupCommand, migrateCommand, validateCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command: the --config file when it exists, otherwise the
// runner's config, then environment overrides.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	config := *r.config
	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := shared.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = *loaded
		}
	}
	config.ApplyEnv()

	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return &config, nil
}

// stores holds both open databases for the length of one command.
type stores struct {
	sourceDB *sql.DB
	targetDB *sql.DB
	source   models.Store
	target   models.Store
}

func (s *stores) Close() {
	if s.sourceDB != nil {
		s.sourceDB.Close()
	}
	if s.targetDB != nil {
		s.targetDB.Close()
	}
}

// openStores validates config and opens both stores, applying schema migrations.
func (r *Runner) openStores(config *shared.Config) (*stores, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r.logger.Debug("opening source store", "uri", config.Source.URI)
	sourceDB, err := shared.OpenStore(config.Source.URI, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open source store: %w", err)
	}

	r.logger.Debug("opening target store", "uri", config.Target.URI)
	targetDB, err := shared.OpenStore(config.Target.URI, config.Database)
	if err != nil {
		sourceDB.Close()
		return nil, fmt.Errorf("failed to open target store: %w", err)
	}

	return &stores{
		sourceDB: sourceDB,
		targetDB: targetDB,
		source:   repositories.NewStore(sourceDB),
		target:   repositories.NewStore(targetDB),
	}, nil
}

// newEngine builds a MigrationEngine over s; run history is kept in the target store.
func (r *Runner) newEngine(config *shared.Config, s *stores) *tasks.MigrationEngine {
	return tasks.NewMigrationEngine(tasks.EngineOpts{
		Source:    s.source,
		Target:    s.target,
		Logger:    r.logger,
		BackupDir: config.Backup.Dir,
		WriteRate: config.Migration.WriteRate,
		Runs:      repositories.NewRunRepository(s.targetDB),
	})
}

// withProgress prints progress updates while fn runs and waits for the printer to drain before returning.
func (r *Runner) withProgress(quiet bool, fn func(chan<- tasks.ProgressUpdate)) {
	if quiet {
		fn(nil)
		return
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			if update.Step == 0 {
				r.writePlain("\n%s\n", update.Message)
			} else {
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	fn(progressCh)
	close(progressCh)
	wg.Wait()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
