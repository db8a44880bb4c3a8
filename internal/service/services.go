// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, acquires a scoped
// database session for the call, and calls repository methods bound to it.
package service

import (
	"github.com/deppfellow/expenses-api/internal/repository"
	"github.com/deppfellow/expenses-api/internal/server"
)

type Services struct {
	Expense *ExpenseService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Expense: NewExpenseService(s, repos.Sessions),
	}, nil
}
