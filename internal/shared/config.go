package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values loaded from config.toml.
const (
	EnvSourceURI = "SOURCE_DB_URI"
	EnvTargetURI = "TARGET_DB_URI"
	EnvBackupDir = "BLOGX_BACKUP_DIR"
	EnvWriteRate = "BLOGX_WRITE_RATE"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source    StoreConfig     `toml:"source"`
	Target    StoreConfig     `toml:"target"`
	Database  DatabaseConfig  `toml:"database"`
	Backup    BackupConfig    `toml:"backup"`
	Migration MigrationConfig `toml:"migration"`
	Log       LogConfig       `toml:"log"`
}

// StoreConfig points at one of the two datastores.
type StoreConfig struct {
	URI string `toml:"uri"`
}

// DatabaseConfig contains connection pool settings shared by both stores.
type DatabaseConfig struct {
	MaxOpenConns int `toml:"max_open_conns"`
	MaxIdleConns int `toml:"max_idle_conns"`
}

// BackupConfig controls where backup artifacts are written.
type BackupConfig struct {
	Dir string `toml:"dir"`
}

// MigrationConfig tunes how the migrators write to the target store.
type MigrationConfig struct {
	WriteRate float64 `toml:"write_rate"` // creates per second, 0 disables throttling
}

// LogConfig sets the default log level (debug, info, warn, error).
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values with any non-empty environment variables.
//
// The source and target URIs are expected to come from the environment in deployed runs.
func (c *Config) ApplyEnv() *Config {
	if v := os.Getenv(EnvSourceURI); v != "" {
		c.Source.URI = v
	}
	if v := os.Getenv(EnvTargetURI); v != "" {
		c.Target.URI = v
	}
	if v := os.Getenv(EnvBackupDir); v != "" {
		c.Backup.Dir = v
	}
	if v := os.Getenv(EnvWriteRate); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate >= 0 {
			c.Migration.WriteRate = rate
		}
	}
	return c
}

// Validate checks that both store URIs are set.
func (c *Config) Validate() error {
	if c.Source.URI == "" {
		return fmt.Errorf("%w: source store URI is empty (set %s)", ErrMissingConfig, EnvSourceURI)
	}
	if c.Target.URI == "" {
		return fmt.Errorf("%w: target store URI is empty (set %s)", ErrMissingConfig, EnvTargetURI)
	}
	if c.Source.URI == c.Target.URI {
		return fmt.Errorf("%w: source and target store URIs must differ", ErrInvalidConfig)
	}
	return nil
}
