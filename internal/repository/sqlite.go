package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/expenses-api/internal/model"
)

// sqliteTimeFormat is fixed width so text comparison orders timestamps.
const sqliteTimeFormat = "2006-01-02 15:04:05.000000000Z07:00"

type sqliteSessions struct {
	db *sql.DB
}

// NewSQLiteSessions returns Sessions backed by a database/sql SQLite pool.
func NewSQLiteSessions(db *sql.DB) Sessions {
	return &sqliteSessions{db: db}
}

func (s *sqliteSessions) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring sqlite connection: %w", err)
	}
	return &sqliteSession{conn: conn}, nil
}

type sqliteSession struct {
	conn *sql.Conn
}

func (s *sqliteSession) Expenses() ExpenseRepository {
	return &SQLiteExpenseRepository{conn: s.conn, now: time.Now}
}

func (s *sqliteSession) Release() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// ------------------------------------------------------------

// SQLiteExpenseRepository runs expense queries on one SQLite connection.
//
// SQLite has no NOW() with a stable format, so timestamps are produced here in
// UTC and stored as fixed-width text.
type SQLiteExpenseRepository struct {
	conn *sql.Conn
	now  func() time.Time
}

const sqliteExpenseColumns = `id, title, amount, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteExpense(row rowScanner) (model.Expense, error) {
	var (
		e                  model.Expense
		description        sql.NullString
		created, updatedAt string
	)

	if err := row.Scan(&e.ID, &e.Title, &e.Amount, &description, &created, &updatedAt); err != nil {
		return e, err
	}

	if description.Valid {
		e.Description = &description.String
	}

	var err error
	if e.CreatedAt, err = time.Parse(sqliteTimeFormat, created); err != nil {
		return e, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	if e.UpdatedAt, err = time.Parse(sqliteTimeFormat, updatedAt); err != nil {
		return e, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}

	return e, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

func (r *SQLiteExpenseRepository) Create(ctx context.Context, req *model.CreateExpenseRequest) (*model.Expense, error) {
	now := formatSQLiteTime(r.now())
	stmt := `
		INSERT INTO expenses (title, amount, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING ` + sqliteExpenseColumns

	expense, err := scanSQLiteExpense(r.conn.QueryRowContext(ctx, stmt, req.Title, amountArg(req.Amount), req.Description, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}

	return &expense, nil
}

func (r *SQLiteExpenseRepository) GetByID(ctx context.Context, id int64) (*model.Expense, bool, error) {
	stmt := `SELECT ` + sqliteExpenseColumns + ` FROM expenses WHERE id = ?`

	expense, err := scanSQLiteExpense(r.conn.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get expense %d: %w", id, err)
	}

	return &expense, true, nil
}

func (r *SQLiteExpenseRepository) GetAll(ctx context.Context, skip, limit int) ([]model.Expense, error) {
	stmt := `SELECT ` + sqliteExpenseColumns + ` FROM expenses ORDER BY id ASC LIMIT ? OFFSET ?`

	rows, err := r.conn.QueryContext(ctx, stmt, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []model.Expense{}
	for rows.Next() {
		expense, err := scanSQLiteExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

func (r *SQLiteExpenseRepository) Update(ctx context.Context, id int64, req *model.UpdateExpenseRequest) (*model.Expense, bool, error) {
	// Nothing to write: the row, updated_at included, stays as it is.
	if req.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin update of expense %d: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanSQLiteExpense(tx.QueryRowContext(ctx,
		`SELECT `+sqliteExpenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load expense %d: %w", id, err)
	}

	current.ApplyUpdate(req)

	updatedAt := r.now().UTC()
	if updatedAt.Before(current.UpdatedAt) {
		updatedAt = current.UpdatedAt
	}

	stmt := `
		UPDATE expenses
		SET title = ?, amount = ?, description = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + sqliteExpenseColumns

	updated, err := scanSQLiteExpense(tx.QueryRowContext(ctx, stmt,
		current.Title, current.Amount.String(), current.Description, formatSQLiteTime(updatedAt), id))
	if err != nil {
		return nil, false, fmt.Errorf("failed to update expense %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit update of expense %d: %w", id, err)
	}

	return &updated, true, nil
}

func (r *SQLiteExpenseRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete expense %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}
