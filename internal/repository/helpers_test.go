package repository_test

import (
	"errors"

	"github.com/deppfellow/expenses-api/internal/sqlerr"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// sqlErrorOf normalizes a driver error found in err's chain.
func sqlErrorOf(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return sqlerr.ConvertPgError(pgErr)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return sqlerr.ConvertSQLiteError(liteErr)
	}
	return err
}
