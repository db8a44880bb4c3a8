package service

import (
	"context"

	"github.com/deppfellow/expenses-api/internal/middleware"
	"github.com/deppfellow/expenses-api/internal/model"
	"github.com/deppfellow/expenses-api/internal/repository"
	"github.com/deppfellow/expenses-api/internal/server"
	"github.com/pkg/errors"
)

type ExpenseService struct {
	server   *server.Server
	sessions repository.Sessions
}

func NewExpenseService(s *server.Server, sessions repository.Sessions) *ExpenseService {
	return &ExpenseService{
		server:   s,
		sessions: sessions,
	}
}

// withSession runs fn with an expense repository bound to a freshly acquired
// session. The session is released however fn returns.
func (s *ExpenseService) withSession(ctx context.Context, fn func(repo repository.ExpenseRepository) error) error {
	session, err := s.sessions.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire session")
	}
	defer session.Release()

	return fn(session.Expenses())
}

func (s *ExpenseService) CreateExpense(ctx context.Context, req *model.CreateExpenseRequest) (*model.Expense, error) {
	var expense *model.Expense

	err := s.withSession(ctx, func(repo repository.ExpenseRepository) error {
		var err error
		expense, err = repo.Create(ctx, req)
		return errors.Wrap(err, "create expense")
	})
	if err != nil {
		return nil, err
	}

	logger := middleware.GetLoggerFromContext(ctx)
	logger.Info().
		Str("event", "expense_created").
		Int64("expense_id", expense.ID).
		Str("amount", expense.Amount.String()).
		Msg("Expense created successfully")

	return expense, nil
}

// GetExpense returns found == false when no expense has the id.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (*model.Expense, bool, error) {
	var (
		expense *model.Expense
		found   bool
	)

	err := s.withSession(ctx, func(repo repository.ExpenseRepository) error {
		var err error
		expense, found, err = repo.GetByID(ctx, id)
		return errors.Wrapf(err, "get expense %d", id)
	})
	if err != nil {
		return nil, false, err
	}

	return expense, found, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, skip, limit int) ([]model.Expense, error) {
	var expenses []model.Expense

	err := s.withSession(ctx, func(repo repository.ExpenseRepository) error {
		var err error
		expenses, err = repo.GetAll(ctx, skip, limit)
		return errors.Wrap(err, "list expenses")
	})
	if err != nil {
		return nil, err
	}

	if expenses == nil {
		expenses = []model.Expense{}
	}

	return expenses, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, req *model.UpdateExpenseRequest) (*model.Expense, bool, error) {
	var (
		expense *model.Expense
		found   bool
	)

	err := s.withSession(ctx, func(repo repository.ExpenseRepository) error {
		var err error
		expense, found, err = repo.Update(ctx, id, req)
		return errors.Wrapf(err, "update expense %d", id)
	})
	if err != nil {
		return nil, false, err
	}

	if found {
		logger := middleware.GetLoggerFromContext(ctx)
		logger.Info().
			Str("event", "expense_updated").
			Int64("expense_id", id).
			Msg("Expense updated successfully")
	}

	return expense, found, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	var deleted bool

	err := s.withSession(ctx, func(repo repository.ExpenseRepository) error {
		var err error
		deleted, err = repo.Delete(ctx, id)
		return errors.Wrapf(err, "delete expense %d", id)
	})
	if err != nil {
		return false, err
	}

	if deleted {
		logger := middleware.GetLoggerFromContext(ctx)
		logger.Info().
			Str("event", "expense_deleted").
			Int64("expense_id", id).
			Msg("Expense deleted successfully")
	}

	return deleted, nil
}
