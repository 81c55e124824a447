package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/mickamy/ormtouch/orm"
)

const defaultSQLiteDSN = "file:ormtouch.db"

// Config is the demo's YAML configuration.
type Config struct {
	Dialect  string `yaml:"dialect"` // sqlite, mysql, postgres
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"` // defaults to the name inferred from the demo model
	Column   string `yaml:"column"`
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Dialect:  "sqlite",
		Table:    defaultTable(),
		Column:   "updated_at",
		LogLevel: "info",
	}
}

// LoadConfig reads path over DefaultConfig. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Override replaces fields with the non-empty flag values.
func (c Config) Override(dialect, dsn, column string) Config {
	if dialect != "" {
		c.Dialect = dialect
	}
	if dsn != "" {
		c.DSN = dsn
	}
	if column != "" {
		c.Column = column
	}
	return c
}

// Validate fills the SQLite DSN and table defaults and checks required
// fields.
func (c *Config) Validate() error {
	if _, _, err := c.driver(); err != nil {
		return err
	}
	if c.DSN == "" {
		if c.Dialect != "sqlite" {
			return fmt.Errorf("dsn is required for %s", c.Dialect)
		}
		c.DSN = defaultSQLiteDSN
	}
	if c.Table == "" {
		c.Table = defaultTable()
	}
	if c.Column == "" {
		return errors.New("column is required")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

func defaultTable() string {
	return orm.ResolveTableName[user]("")
}

// driver returns the database/sql driver name and orm.Dialect for
// c.Dialect.
func (c Config) driver() (string, orm.Dialect, error) {
	switch c.Dialect {
	case "sqlite":
		return "sqlite", orm.SQLite, nil
	case "mysql":
		return "mysql", orm.MySQL, nil
	case "postgres":
		return "pgx", orm.PostgreSQL, nil
	default:
		return "", nil, fmt.Errorf("unknown dialect %q", c.Dialect)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build() //nolint:wrapcheck // zap error
}
