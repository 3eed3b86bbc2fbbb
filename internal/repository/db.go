package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect is the SQL flavour behind a DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is an open archive database.
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// DialectFor reports which driver a DSN selects: postgres:// and
// postgresql:// URLs use pgx, everything else is a SQLite path.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to the archive. Postgres goes through a pgx pool wrapped as
// *sql.DB; SQLite uses the pure Go modernc driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dialect := DialectFor(cfg.DSN)
	logger.Info("connecting to archive database", "dialect", dialect)

	if dialect == DialectSQLite {
		path := strings.TrimPrefix(cfg.DSN, "sqlite://")
		db, err := sql.Open("sqlite", path)
		if err != nil {
			logger.Error("failed to open archive database", "error", err)
			return nil, err
		}
		// one writer at a time
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
		logger.Info("successfully connected to archive database")
		return &DB{SQL: db, Dialect: dialect, logger: logger}, nil
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to archive database", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "route-settlement"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to archive database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to archive database")
	return &DB{SQL: stdlib.OpenDBFromPool(pool), Dialect: dialect, pool: pool, logger: logger}, nil
}

// Close closes the database connections gracefully.
func (d *DB) Close() {
	d.logger.Info("closing archive database")
	if err := d.SQL.Close(); err != nil {
		d.logger.Error("failed to close archive database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	d.logger.Debug("pinging archive database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.SQL.PingContext(ctx); err != nil {
		return err
	}
	d.logger.Debug("archive database ping successful")
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS settlement_runs (
		id          TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		documents   INTEGER NOT NULL,
		drivers     INTEGER NOT NULL,
		warnings    INTEGER NOT NULL,
		errors      INTEGER NOT NULL,
		output_path TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settlement_rows (
		run_id               TEXT NOT NULL REFERENCES settlement_runs(id) ON DELETE CASCADE,
		seq                  INTEGER NOT NULL,
		driver               TEXT NOT NULL,
		row_date             TEXT NOT NULL,
		is_total             BOOLEAN NOT NULL,
		vehicle_type         TEXT NOT NULL,
		delivered            INTEGER NOT NULL,
		failed               INTEGER NOT NULL,
		delivery_revenue     TEXT NOT NULL,
		discount             TEXT NOT NULL,
		calculated_surcharge TEXT NOT NULL,
		paid_surcharge       TEXT NOT NULL,
		day_total            TEXT NOT NULL,
		bonus                TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
}

// Migrate creates the archive tables when missing.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Rebind rewrites ? placeholders to $n for Postgres.
func (d *DB) Rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
