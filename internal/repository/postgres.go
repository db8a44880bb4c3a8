package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/expenses-api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresSessions struct {
	pool *pgxpool.Pool
}

// NewPostgresSessions returns Sessions backed by a pgx pool.
func NewPostgresSessions(pool *pgxpool.Pool) Sessions {
	return &postgresSessions{pool: pool}
}

func (s *postgresSessions) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring postgres connection: %w", err)
	}
	return &postgresSession{conn: conn}, nil
}

type postgresSession struct {
	conn *pgxpool.Conn
}

func (s *postgresSession) Expenses() ExpenseRepository {
	return &PostgresExpenseRepository{conn: s.conn}
}

func (s *postgresSession) Release() {
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}
}

// ------------------------------------------------------------

// PostgresExpenseRepository runs expense queries on one pooled connection.
//
// amount travels as text in both directions so NUMERIC values never pass
// through a float.
type PostgresExpenseRepository struct {
	conn *pgxpool.Conn
}

const pgExpenseColumns = `id, title, amount::text, description, created_at, updated_at`

func scanPgExpense(row pgx.Row) (model.Expense, error) {
	var e model.Expense
	err := row.Scan(&e.ID, &e.Title, &e.Amount, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// amountArg passes an amount in its fixed text form; nil becomes NULL and is
// left to the NOT NULL constraint.
func amountArg(amount *model.Money) any {
	if amount == nil {
		return nil
	}
	return amount.String()
}

func (r *PostgresExpenseRepository) Create(ctx context.Context, req *model.CreateExpenseRequest) (*model.Expense, error) {
	stmt := `
		INSERT INTO expenses (title, amount, description)
		VALUES ($1, $2::numeric, $3)
		RETURNING ` + pgExpenseColumns

	expense, err := scanPgExpense(r.conn.QueryRow(ctx, stmt, req.Title, amountArg(req.Amount), req.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}

	return &expense, nil
}

func (r *PostgresExpenseRepository) GetByID(ctx context.Context, id int64) (*model.Expense, bool, error) {
	stmt := `SELECT ` + pgExpenseColumns + ` FROM expenses WHERE id = $1`

	expense, err := scanPgExpense(r.conn.QueryRow(ctx, stmt, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get expense %d: %w", id, err)
	}

	return &expense, true, nil
}

func (r *PostgresExpenseRepository) GetAll(ctx context.Context, skip, limit int) ([]model.Expense, error) {
	stmt := `SELECT ` + pgExpenseColumns + ` FROM expenses ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := r.conn.Query(ctx, stmt, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Expense, error) {
		return scanPgExpense(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect expenses: %w", err)
	}

	return expenses, nil
}

// Update locks the row, merges the present fields and writes it back in one
// transaction.
func (r *PostgresExpenseRepository) Update(ctx context.Context, id int64, req *model.UpdateExpenseRequest) (*model.Expense, bool, error) {
	// Nothing to write: the row, updated_at included, stays as it is.
	if req.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var (
		updated model.Expense
		found   bool
	)

	err := pgx.BeginFunc(ctx, r.conn, func(tx pgx.Tx) error {
		current, err := scanPgExpense(tx.QueryRow(ctx,
			`SELECT `+pgExpenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		current.ApplyUpdate(req)

		stmt := `
			UPDATE expenses
			SET title = $2, amount = $3::numeric, description = $4, updated_at = GREATEST(NOW(), updated_at)
			WHERE id = $1
			RETURNING ` + pgExpenseColumns

		updated, err = scanPgExpense(tx.QueryRow(ctx, stmt,
			id, current.Title, current.Amount.String(), current.Description))
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to update expense %d: %w", id, err)
	}
	if !found {
		return nil, false, nil
	}

	return &updated, true, nil
}

func (r *PostgresExpenseRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete expense %d: %w", id, err)
	}

	return tag.RowsAffected() > 0, nil
}
