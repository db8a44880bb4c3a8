package router

import (
	"net/http"

	"github.com/deppfellow/expenses-api/internal/handler"
	"github.com/deppfellow/expenses-api/internal/model"
	"github.com/labstack/echo/v4"
)

func registerExpenseRoutes(r *echo.Echo, h *handler.Handlers) {
	expenses := r.Group("/expenses")

	expenses.POST("", handler.Handle(
		h.Expense.Handler,
		h.Expense.CreateExpense,
		http.StatusCreated,
		&model.CreateExpenseRequest{},
	))

	expenses.GET("", handler.Handle(
		h.Expense.Handler,
		h.Expense.ListExpenses,
		http.StatusOK,
		&model.ListExpensesRequest{Limit: model.DefaultListLimit},
	))

	expenses.GET("/:id", handler.Handle(
		h.Expense.Handler,
		h.Expense.GetExpense,
		http.StatusOK,
		&model.GetExpenseRequest{},
	))

	expenses.PUT("/:id", handler.Handle(
		h.Expense.Handler,
		h.Expense.UpdateExpense,
		http.StatusOK,
		&model.UpdateExpenseRequest{},
	))

	expenses.DELETE("/:id", handler.HandleNoContent(
		h.Expense.Handler,
		h.Expense.DeleteExpense,
		http.StatusNoContent,
		&model.DeleteExpenseRequest{},
	))
}
