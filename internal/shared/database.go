package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database, in which case the pool is pinned
// to a single connection so every query sees the same database.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if isMemoryPath(path) {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrStoreUnavailable, err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Zero values leave the driver defaults untouched.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// OpenStore opens the database behind uri and applies pending schema migrations.
func OpenStore(uri string, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(uri)
	if err != nil {
		return nil, err
	}

	if !isMemoryPath(uri) {
		ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
