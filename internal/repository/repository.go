// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update expenses, abstracting SQL logic away from the service layer.
//
// Every repository is bound to a Session: one pooled connection acquired for
// the duration of a single service call and released afterwards.
package repository

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . Sessions,Session,ExpenseRepository

import (
	"context"

	"github.com/deppfellow/expenses-api/internal/model"
)

// ExpenseRepository persists expenses through the session it is bound to.
//
// Absence is reported through the found/deleted booleans, never as an error.
type ExpenseRepository interface {
	Create(ctx context.Context, req *model.CreateExpenseRequest) (*model.Expense, error)
	GetByID(ctx context.Context, id int64) (*model.Expense, bool, error)
	// GetAll returns at most limit expenses after skipping skip of them,
	// ordered by id ascending.
	GetAll(ctx context.Context, skip, limit int) ([]model.Expense, error)
	Update(ctx context.Context, id int64, req *model.UpdateExpenseRequest) (*model.Expense, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Session is one pooled connection checked out for a unit of work.
type Session interface {
	Expenses() ExpenseRepository
	// Release returns the connection to the pool. Safe to call more than once.
	Release()
}

// Sessions hands out Sessions.
type Sessions interface {
	Acquire(ctx context.Context) (Session, error)
}
