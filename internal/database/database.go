// Package database contains the logic for establishing
// connections to the expenses store.
//
// PostgreSQL is reached through a pgx connection pool with query tracing
// (pgx tracelog in local runs, New Relic when configured). SQLite, used for
// single-file deployments and tests, goes through database/sql and the
// modernc driver.
//
// It handles:
//   - choosing the driver from the connection string
//   - creating the pool and wiring tracers
//   - pinging on startup so a bad URL fails fast
//   - embedded schema migrations (see migrator.go)
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/expenses-api/internal/config"
	loggerConfig "github.com/deppfellow/expenses-api/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// Driver identifies the storage engine behind a Database.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Database wraps the open connection pool and a logger.
//
// Exactly one of Pool (PostgreSQL) or SQL (SQLite) is set, according to Driver.
type Database struct {
	Driver Driver
	Pool   *pgxpool.Pool
	SQL    *sql.DB
	log    *zerolog.Logger
}

// multiTracer allows chaining multiple tracers.
//
// pgx supports a single Tracer in ConnConfig; this adapter runs New Relic,
// the slow query log and the local SQL log side by side.
type multiTracer struct {
	tracers []pgx.QueryTracer
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		ctx = tracer.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		tracer.TraceQueryEnd(ctx, conn, data)
	}
}

// DatabasePingTimeout is the number of seconds to wait for the startup ping.
const DatabasePingTimeout = 10

// ParseURL splits a connection string into its driver and the DSN that
// driver expects.
//
//	postgres://u:p@host/db       -> postgres, unchanged
//	postgresql://u:p@host/db     -> postgres, unchanged
//	sqlite://expenses.db         -> sqlite, "expenses.db"
//	sqlite://:memory:, :memory:  -> sqlite, ":memory:"
//	file:expenses.db?mode=rwc    -> sqlite, unchanged
func ParseURL(raw string) (Driver, string, error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DriverPostgres, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		dsn := strings.TrimPrefix(raw, "sqlite://")
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", raw)
		}
		return DriverSQLite, dsn, nil
	case strings.HasPrefix(raw, "file:"), raw == ":memory:":
		return DriverSQLite, raw, nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme in %q", redact(raw))
	}
}

// IsInMemory reports whether a SQLite DSN names a private in-memory database.
func IsInMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// redact drops everything up to the host so passwords never reach logs.
func redact(raw string) string {
	if at := strings.LastIndex(raw, "@"); at >= 0 {
		if scheme := strings.Index(raw, "://"); scheme >= 0 && scheme < at {
			return raw[:scheme+3] + "***" + raw[at:]
		}
	}
	return raw
}

// New opens the database named by cfg.Database.URL.
//
// Inputs:
//   - cfg: application config (URL and pool settings)
//   - logger: main app logger
//   - loggerService: optional New Relic service (nil if not configured)
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	driver, dsn, err := ParseURL(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	var database *Database
	switch driver {
	case DriverPostgres:
		database, err = newPostgres(cfg, dsn, logger, loggerService)
	case DriverSQLite:
		database, err = newSQLite(cfg, dsn, logger)
	}
	if err != nil {
		return nil, err
	}

	// Ping the DB with a timeout, so startup fails fast if DB is down.
	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()
	if err = database.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("driver", string(driver)).Msg("connected to the database")

	return database, nil
}

func newPostgres(cfg *config.Config, dsn string, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	pgxPoolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	pgxPoolConfig.MinConns = int32(min(cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns))
	pgxPoolConfig.MaxConnLifetime = time.Duration(cfg.Database.ConnMaxLifetime) * time.Second
	pgxPoolConfig.MaxConnIdleTime = time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second

	var tracers []pgx.QueryTracer

	if loggerService.GetApplication() != nil {
		tracers = append(tracers, nrpgx5.NewTracer())
	}

	if threshold := cfg.Observability.Logging.SlowQueryThreshold; threshold > 0 {
		tracers = append(tracers, newSlowQueryTracer(threshold, logger))
	}

	// Query logging is noisy, so only in local.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		tracers = append(tracers, &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(globalLevel)),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		})
	}

	switch len(tracers) {
	case 0:
	case 1:
		pgxPoolConfig.ConnConfig.Tracer = tracers[0]
	default:
		pgxPoolConfig.ConnConfig.Tracer = &multiTracer{tracers: tracers}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	return &Database{Driver: DriverPostgres, Pool: pool, log: logger}, nil
}

func newSQLite(cfg *config.Config, dsn string, logger *zerolog.Logger) (*Database, error) {
	inMemory := IsInMemory(dsn)
	if !inMemory && !strings.Contains(dsn, "busy_timeout") {
		// Per-connection pragma; concurrent writers wait instead of failing.
		dsn = appendQuery(dsn, "_pragma=busy_timeout(5000)")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if inMemory {
		// Every new connection to :memory: is a fresh empty database, so the
		// pool must hold exactly one connection forever.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
		db.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second)
	}

	return &Database{Driver: DriverSQLite, SQL: db, log: logger}, nil
}

func appendQuery(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

// Ping checks the database is reachable.
func (db *Database) Ping(ctx context.Context) error {
	if db.Driver == DriverPostgres {
		return db.Pool.Ping(ctx)
	}
	return db.SQL.PingContext(ctx)
}

// Close closes the underlying pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")

	if db.Driver == DriverPostgres {
		db.Pool.Close()
		return nil
	}
	return db.SQL.Close()
}
