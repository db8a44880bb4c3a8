package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	tern "github.com/jackc/tern/v2/migrate"
)

// Embed all SQL files under migrations/ at compile time so the binary
// carries its schema.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate brings the schema up to date.
//
// PostgreSQL uses tern with a schema_version table. SQLite applies the files
// under migrations/sqlite in name order and records progress in
// PRAGMA user_version.
func (db *Database) Migrate(ctx context.Context) error {
	if db.Driver == DriverPostgres {
		return db.migratePostgres(ctx)
	}
	return db.migrateSQLite(ctx)
}

func (db *Database) migratePostgres(ctx context.Context) error {
	// tern needs a *pgx.Conn; borrow one from the pool for the duration.
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection for migrations: %w", err)
	}
	defer conn.Release()

	m, err := tern.NewMigrator(ctx, conn.Conn(), "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	db.logOutcome(int(from), len(m.Migrations))
	return nil
}

func (db *Database) migrateSQLite(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/sqlite/*.sql")
	if err != nil {
		return fmt.Errorf("listing sqlite migrations: %w", err)
	}
	sort.Strings(files)

	// One connection throughout: user_version is read and written on it.
	conn, err := db.SQL.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection for migrations: %w", err)
	}
	defer conn.Close()

	var from int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&from); err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	for i := from; i < len(files); i++ {
		body, err := migrations.ReadFile(files[i])
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", files[i], err)
		}

		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %s: %w", files[i], err)
		}
		// PRAGMA does not accept bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", files[i], err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", files[i], err)
		}
	}

	db.logOutcome(from, len(files))
	return nil
}

func (db *Database) logOutcome(from, to int) {
	if from == to {
		db.log.Info().Msgf("database schema up to date, version %d", to)
	} else {
		db.log.Info().Msgf("migrated database schema, from %d to %d", from, to)
	}
}
