package handler

import (
	"fmt"

	"github.com/deppfellow/expenses-api/internal/errs"
	"github.com/deppfellow/expenses-api/internal/model"
	"github.com/deppfellow/expenses-api/internal/server"
	"github.com/deppfellow/expenses-api/internal/service"
	"github.com/labstack/echo/v4"
)

type ExpenseHandler struct {
	Handler
	expenseService *service.ExpenseService
}

func NewExpenseHandler(s *server.Server, expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		Handler:        NewHandler(s),
		expenseService: expenseService,
	}
}

func expenseNotFound(id int64) error {
	return errs.NewNotFoundError(fmt.Sprintf("Expense with id %d not found", id), false, nil)
}

func (h *ExpenseHandler) CreateExpense(c echo.Context, req *model.CreateExpenseRequest) (*model.Expense, error) {
	return h.expenseService.CreateExpense(c.Request().Context(), req)
}

func (h *ExpenseHandler) ListExpenses(c echo.Context, req *model.ListExpensesRequest) ([]model.Expense, error) {
	return h.expenseService.ListExpenses(c.Request().Context(), req.Skip, req.Limit)
}

func (h *ExpenseHandler) GetExpense(c echo.Context, req *model.GetExpenseRequest) (*model.Expense, error) {
	expense, found, err := h.expenseService.GetExpense(c.Request().Context(), req.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, expenseNotFound(req.ID)
	}

	return expense, nil
}

func (h *ExpenseHandler) UpdateExpense(c echo.Context, req *model.UpdateExpenseRequest) (*model.Expense, error) {
	expense, found, err := h.expenseService.UpdateExpense(c.Request().Context(), req.ID, req)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, expenseNotFound(req.ID)
	}

	return expense, nil
}

func (h *ExpenseHandler) DeleteExpense(c echo.Context, req *model.DeleteExpenseRequest) error {
	deleted, err := h.expenseService.DeleteExpense(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return expenseNotFound(req.ID)
	}

	return nil
}
