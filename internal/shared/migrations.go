package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// Migration is one versioned schema change for a blog store.
//
// Files are named NNNN_<name>_up.sql and NNNN_<name>_down.sql.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// parseMigrationName splits "0001_create_migration_runs_up.sql" into (1, "create_migration_runs", "up").
func parseMigrationName(file string) (int, string, string, bool) {
	base, ok := strings.CutSuffix(file, ".sql")
	if !ok {
		return 0, "", "", false
	}

	var direction string
	switch {
	case strings.HasSuffix(base, "_up"):
		direction = "up"
	case strings.HasSuffix(base, "_down"):
		direction = "down"
	default:
		return 0, "", "", false
	}
	base = strings.TrimSuffix(base, "_"+direction)

	prefix, name, ok := strings.Cut(base, "_")
	if !ok {
		return 0, "", "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", "", false
	}
	return version, name, direction, true
}

// loadMigrations reads the embedded schema files ordered by version.
func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(schemaFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		version, name, direction, ok := parseMigrationName(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}

		content, err := schemaFiles.ReadFile(path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", entry.Name(), err)
		}

		m, found := byVersion[version]
		if !found {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if direction == "up" {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("schema version %d (%s) needs both up and down files", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// RunMigrations brings a store's schema up to the latest embedded version.
// Applied versions are tracked in schema_migrations, so calling it again is a no-op.
func RunMigrations(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	if err := ensureSchemaTable(db); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := execScript(db, m.Up, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to apply schema version %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// RollbackMigration reverts the newest applied schema version and returns it.
func RollbackMigration(db *sql.DB) (Migration, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return Migration{}, err
	}
	if err := ensureSchemaTable(db); err != nil {
		return Migration{}, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return Migration{}, err
	}
	if current < 0 {
		return Migration{}, ErrNoSchema
	}

	for _, m := range migrations {
		if m.Version != current {
			continue
		}
		if err := execScript(db, m.Down, "DELETE FROM schema_migrations WHERE version = ?", m.Version); err != nil {
			return Migration{}, fmt.Errorf("failed to revert schema version %d (%s): %w", m.Version, m.Name, err)
		}
		return m, nil
	}
	return Migration{}, fmt.Errorf("schema version %d is applied but not embedded in this build", current)
}

// SchemaVersion returns the highest applied schema version, or -1 when none is applied.
func SchemaVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), -1) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func ensureSchemaTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// execScript runs every statement in script plus the bookkeeping statement in one transaction.
func execScript(db *sql.DB, script, record string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%w\nstatement: %s", err, stmt)
		}
	}
	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements drops "--" comments and blank lines and splits on ';'.
func splitStatements(script string) []string {
	var kept []string
	for line := range strings.SplitSeq(script, "\n") {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}

	var statements []string
	for stmt := range strings.SplitSeq(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
