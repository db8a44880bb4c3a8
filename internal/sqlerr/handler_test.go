package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/expenses-api/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleErrorPostgresViolations(t *testing.T) {
	tests := []struct {
		name       string
		pgErr      *pgconn.PgError
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name: "check violation",
			pgErr: &pgconn.PgError{
				Code: "23514", Severity: "ERROR", TableName: "expenses",
				ColumnName: "amount", ConstraintName: "expenses_amount_check",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "EXPENSE_INVALID",
			wantDetail: "The Amount value does not meet required conditions",
		},
		{
			name:       "not null violation",
			pgErr:      &pgconn.PgError{Code: "23502", TableName: "expenses", ColumnName: "title"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "EXPENSE_REQUIRED",
			wantDetail: "The Title is required",
		},
		{
			name:       "unique violation",
			pgErr:      &pgconn.PgError{Code: "23505", TableName: "expenses", ConstraintName: "expenses_title_key"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "EXPENSE_ALREADY_EXISTS",
			wantDetail: "A Expense with this Title already exists",
		},
		{
			name:       "numeric overflow",
			pgErr:      &pgconn.PgError{Code: "22003", TableName: "expenses"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "EXPENSE_INVALID",
			wantDetail: "One or more values do not meet required conditions",
		},
		{
			name:       "unmapped code",
			pgErr:      &pgconn.PgError{Code: "40001"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleError(fmt.Errorf("insert expense: %w", tt.pgErr))

			var httpErr *errs.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.wantStatus, httpErr.Status)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, httpErr.Message)
			}
		})
	}
}

func TestHandleErrorNotNullCarriesFieldError(t *testing.T) {
	err := HandleError(&pgconn.PgError{Code: "23502", TableName: "expenses", ColumnName: "Title"})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "title", httpErr.Errors[0].Field)
}

func TestHandleErrorNoRows(t *testing.T) {
	for _, src := range []error{pgx.ErrNoRows, sql.ErrNoRows} {
		var httpErr *errs.HTTPError
		require.True(t, errors.As(HandleError(src), &httpErr))
		assert.Equal(t, http.StatusNotFound, httpErr.Status)
	}
}

func TestHandleErrorPassesHTTPErrorThrough(t *testing.T) {
	original := errs.NewNotFoundError("Expense with id 5 not found", false, nil)
	assert.Same(t, original, HandleError(original))
}

func TestHandleErrorUnknown(t *testing.T) {
	var httpErr *errs.HTTPError
	require.True(t, errors.As(HandleError(errors.New("connection reset")), &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestConvertPgError(t *testing.T) {
	src := &pgconn.PgError{Code: "23514", Severity: "ERROR", Message: "violates check", TableName: "expenses"}
	converted := ConvertPgError(src)

	assert.Equal(t, CheckViolation, converted.Code)
	assert.Equal(t, SeverityError, converted.Severity)
	assert.Equal(t, CheckViolation, ErrCode(converted))
	assert.ErrorIs(t, converted, src)
	assert.Equal(t, Other, ErrCode(errors.New("plain")))
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityNotice, MapSeverity("NOTICE"))
	assert.Equal(t, SeverityError, MapSeverity("something"))
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "title", extractColumnForUniqueViolation("unique_expenses_title"))
	assert.Equal(t, "title", extractColumnForUniqueViolation("expenses_title_key"))
	assert.Equal(t, "", extractColumnForUniqueViolation("expenses_pkey"))
	assert.Equal(t, "", extractColumnForUniqueViolation(""))
}

func TestSQLiteColumnRegex(t *testing.T) {
	m := sqliteColumnRegex.FindStringSubmatch("NOT NULL constraint failed: expenses.title (1299)")
	require.Len(t, m, 3)
	assert.Equal(t, "expenses", m[1])
	assert.Equal(t, "title", m[2])
}

func TestSQLiteCodeFromMessage(t *testing.T) {
	assert.Equal(t, NotNullViolation, sqliteCodeFromMessage("NOT NULL constraint failed: expenses.amount"))
	assert.Equal(t, CheckViolation, sqliteCodeFromMessage("CHECK constraint failed: expenses_amount_positive"))
	assert.Equal(t, UniqueViolation, sqliteCodeFromMessage("UNIQUE constraint failed: expenses.title"))
	assert.Equal(t, Other, sqliteCodeFromMessage("database is locked"))

	m := sqliteCheckRegex.FindStringSubmatch("CHECK constraint failed: expenses_amount_positive (275)")
	require.Len(t, m, 2)
	assert.Equal(t, "expenses_amount_positive", m[1])
}
