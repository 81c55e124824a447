// Command ormtouch runs each bulk update form against a table with and
// without updated_at stamping, printing the row after every step.
//
//	ormtouch -dialect sqlite -dsn file:demo.db
//	ormtouch -config ormtouch.yaml -column modified_at
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mickamy/ormtouch/orm"
	"github.com/mickamy/ormtouch/updatedat"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	dialect := flag.String("dialect", "", "sqlite, mysql or postgres (overrides config)")
	dsn := flag.String("dsn", "", "data source name; MySQL needs parseTime=true (overrides config)")
	column := flag.String("column", "", "column to stamp (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("ormtouch", version)
		return
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg = cfg.Override(*dialect, *dsn, *column)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger, os.Stdout); err != nil {
		logger.Error("ormtouch failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run opens the configured database, creates the demo table if needed and
// walks through every update step. Validate must have been called on cfg.
func run(ctx context.Context, cfg Config, logger *zap.Logger, w io.Writer) error {
	driverName, d, err := cfg.driver()
	if err != nil {
		return err
	}
	sqlDB, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Dialect, err)
	}
	defer func() { _ = sqlDB.Close() }()

	if _, err := sqlDB.ExecContext(ctx, createTable(cfg, d)); err != nil {
		return fmt.Errorf("create table %s: %w", cfg.Table, err)
	}

	db := orm.New(sqlDB, d).
		Debug(orm.NewZapLogger(logger.Named("sql"))).
		Use(updatedat.Middleware(
			updatedat.WithColumn(cfg.Column),
			updatedat.WithLogger(logger.Named("updatedat")),
		))

	return demo(ctx, db, cfg, w)
}

func createTable(cfg Config, d orm.Dialect) string {
	table, column := d.QuoteIdent(cfg.Table), d.QuoteIdent(cfg.Column)
	switch d {
	case orm.MySQL:
		return "CREATE TABLE IF NOT EXISTS " + table + " (id BIGINT AUTO_INCREMENT PRIMARY KEY, " +
			"name VARCHAR(255) NOT NULL, " + column + " DATETIME(6) NOT NULL)"
	case orm.PostgreSQL:
		return "CREATE TABLE IF NOT EXISTS " + table + " (id BIGSERIAL PRIMARY KEY, " +
			"name VARCHAR(255) NOT NULL, " + column + " TIMESTAMPTZ NOT NULL)"
	default:
		return "CREATE TABLE IF NOT EXISTS " + table + " (id INTEGER PRIMARY KEY AUTOINCREMENT, " +
			"name TEXT NOT NULL, " + column + " DATETIME NOT NULL)"
	}
}

type step struct {
	name string
	fn   func(ctx context.Context, q *orm.Query[user], r *user) error
}

func updateAll(p orm.Payload) func(ctx context.Context, q *orm.Query[user], r *user) error {
	return func(ctx context.Context, q *orm.Query[user], r *user) error {
		_, err := q.Where("id = ?", r.ID).UpdateAll(ctx, p)
		return err
	}
}

var steps = []step{
	{"update_all values", updateAll(orm.Values(map[string]any{"name": "values"}))},
	{"update_all expr", updateAll(orm.Expr("name = ?", "expr"))},
	{"update_all raw", updateAll(orm.Raw("name = 'raw'"))},
	{"update_column", func(ctx context.Context, q *orm.Query[user], r *user) error {
		return q.UpdateColumn(ctx, r, "name", "column")
	}},
	{"update_columns", func(ctx context.Context, q *orm.Query[user], r *user) error {
		return q.UpdateColumns(ctx, r, map[string]any{"name": "columns"})
	}},
}

// demo creates one row, then runs every step twice: once stamped and once
// inside updatedat.Disable. Each step sleeps briefly so stamped times move.
func demo(ctx context.Context, db *orm.DB, cfg Config, w io.Writer) error {
	q := users(db, cfg)
	r := user{Name: "demo"}
	if err := q.Create(ctx, &r); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := printRow(ctx, w, q, cfg.Column, "create", "", r.ID); err != nil {
		return err
	}

	for _, s := range steps {
		time.Sleep(10 * time.Millisecond)
		if err := s.fn(ctx, q, &r); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		if err := printRow(ctx, w, q, cfg.Column, s.name, "enabled", r.ID); err != nil {
			return err
		}

		time.Sleep(10 * time.Millisecond)
		_, err := updatedat.Disable(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.fn(ctx, q, &r)
		})
		if err != nil {
			return fmt.Errorf("%s (disabled): %w", s.name, err)
		}
		if err := printRow(ctx, w, q, cfg.Column, s.name, "disabled", r.ID); err != nil {
			return err
		}
	}
	return nil
}

func printRow(ctx context.Context, w io.Writer, q *orm.Query[user], column, name, mode string, id int64) error {
	r, err := q.Where("id = ?", id).First(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	_, err = fmt.Fprintf(w, "%-16s %-9s name=%-8s %s=%s\n",
		name, mode, r.Name, column, r.UpdatedAt.UTC().Format(time.RFC3339Nano))
	return err //nolint:wrapcheck // writer error
}
