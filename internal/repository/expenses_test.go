package repository_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/deppfellow/expenses-api/internal/config"
	"github.com/deppfellow/expenses-api/internal/database"
	"github.com/deppfellow/expenses-api/internal/errs"
	"github.com/deppfellow/expenses-api/internal/model"
	"github.com/deppfellow/expenses-api/internal/repository"
	"github.com/deppfellow/expenses-api/internal/sqlerr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

// ExpenseRepositorySuite runs the same behaviour checks against every driver.
type ExpenseRepositorySuite struct {
	suite.Suite
	db       *database.Database
	sessions repository.Sessions
	session  repository.Session
	repo     repository.ExpenseRepository
	ctx      context.Context
}

func openDatabase(t *testing.T, url string) *database.Database {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Database.URL = url
	cfg.Observability = config.DefaultObservabilityConfig()
	logger := zerolog.Nop()

	db, err := database.New(cfg, &logger, nil)
	if err != nil {
		t.Fatalf("opening %s: %v", url, err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func TestSQLiteExpenseRepository(t *testing.T) {
	db := openDatabase(t, "sqlite://:memory:")
	defer db.Close()

	suite.Run(t, &ExpenseRepositorySuite{db: db, sessions: repository.NewSQLiteSessions(db.SQL)})
}

func TestPostgresExpenseRepository(t *testing.T) {
	url := os.Getenv("EXPENSES_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("EXPENSES_TEST_DATABASE_URL not set")
	}

	db := openDatabase(t, url)
	defer db.Close()

	suite.Run(t, &ExpenseRepositorySuite{db: db, sessions: repository.NewPostgresSessions(db.Pool)})
}

func (s *ExpenseRepositorySuite) SetupTest() {
	s.ctx = context.Background()

	var err error
	if s.db.Driver == database.DriverPostgres {
		_, err = s.db.Pool.Exec(s.ctx, "TRUNCATE expenses RESTART IDENTITY")
	} else {
		_, err = s.db.SQL.ExecContext(s.ctx, "DELETE FROM expenses")
	}
	s.Require().NoError(err)

	s.session, err = s.sessions.Acquire(s.ctx)
	s.Require().NoError(err)
	s.repo = s.session.Expenses()
}

func (s *ExpenseRepositorySuite) TearDownTest() {
	s.session.Release()
}

func (s *ExpenseRepositorySuite) create(title, amount string, description *string) *model.Expense {
	m := model.MustParseMoney(amount)
	e, err := s.repo.Create(s.ctx, &model.CreateExpenseRequest{Title: title, Amount: &m, Description: description})
	s.Require().NoError(err)
	return e
}

func (s *ExpenseRepositorySuite) TestCreateAndGet() {
	desc := "morning"
	created := s.create("Coffee", "3.5", &desc)

	s.Positive(created.ID)
	s.Equal("Coffee", created.Title)
	s.Equal("3.50", created.Amount.String())
	s.Require().NotNil(created.Description)
	s.Equal("morning", *created.Description)
	s.False(created.CreatedAt.IsZero())
	s.False(created.UpdatedAt.Before(created.CreatedAt))

	got, found, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(created.ID, got.ID)
	s.Equal(created.Title, got.Title)
	s.Equal("3.50", got.Amount.String())
	s.Equal(*created.Description, *got.Description)
	s.True(created.CreatedAt.Equal(got.CreatedAt))
}

func (s *ExpenseRepositorySuite) TestCreateWithoutDescription() {
	created := s.create("Lunch", "12", nil)
	s.Nil(created.Description)

	got, found, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Nil(got.Description)
}

func (s *ExpenseRepositorySuite) TestGetByIDMissing() {
	got, found, err := s.repo.GetByID(s.ctx, 99999)
	s.NoError(err)
	s.False(found)
	s.Nil(got)
}

func (s *ExpenseRepositorySuite) TestGetAllOrderAndBounds() {
	var ids []int64
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		ids = append(ids, s.create(title, "1", nil).ID)
	}

	all, err := s.repo.GetAll(s.ctx, 0, 100)
	s.Require().NoError(err)
	s.Require().Len(all, 5)
	for i, e := range all {
		s.Equal(ids[i], e.ID)
	}

	page, err := s.repo.GetAll(s.ctx, 0, 2)
	s.Require().NoError(err)
	s.Len(page, 2)
	s.Equal(ids[0], page[0].ID)

	tail, err := s.repo.GetAll(s.ctx, 4, 2)
	s.Require().NoError(err)
	s.Require().Len(tail, 1)
	s.Equal(ids[4], tail[0].ID)

	none, err := s.repo.GetAll(s.ctx, 10, 2)
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)

	zero, err := s.repo.GetAll(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Empty(zero)
}

func (s *ExpenseRepositorySuite) TestUpdatePartial() {
	desc := "morning"
	created := s.create("Coffee", "3.50", &desc)

	title := "Tea"
	updated, found, err := s.repo.Update(s.ctx, created.ID, &model.UpdateExpenseRequest{Title: &title})
	s.Require().NoError(err)
	s.Require().True(found)

	s.Equal(created.ID, updated.ID)
	s.Equal("Tea", updated.Title)
	s.Equal("3.50", updated.Amount.String())
	s.Equal("morning", *updated.Description)
	s.True(created.CreatedAt.Equal(updated.CreatedAt))
	s.False(updated.UpdatedAt.Before(created.UpdatedAt))
}

func (s *ExpenseRepositorySuite) TestUpdateAmountAndClearDescription() {
	desc := "morning"
	created := s.create("Coffee", "3.50", &desc)

	amount := model.MustParseMoney("4.25")
	updated, found, err := s.repo.Update(s.ctx, created.ID, &model.UpdateExpenseRequest{
		Amount:      &amount,
		Description: model.NullableString{Set: true},
	})
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal("Coffee", updated.Title)
	s.Equal("4.25", updated.Amount.String())
	s.Nil(updated.Description)

	got, _, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Nil(got.Description)
}

func (s *ExpenseRepositorySuite) TestEmptyUpdateLeavesRowUntouched() {
	created := s.create("Coffee", "3.50", nil)

	got, found, err := s.repo.Update(s.ctx, created.ID, &model.UpdateExpenseRequest{})
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal("Coffee", got.Title)
	s.True(created.UpdatedAt.Equal(got.UpdatedAt))

	_, found, err = s.repo.Update(s.ctx, created.ID+1000, &model.UpdateExpenseRequest{})
	s.Require().NoError(err)
	s.False(found)
}

func (s *ExpenseRepositorySuite) TestUpdateMissing() {
	title := "Tea"
	got, found, err := s.repo.Update(s.ctx, 424242, &model.UpdateExpenseRequest{Title: &title})
	s.NoError(err)
	s.False(found)
	s.Nil(got)
}

func (s *ExpenseRepositorySuite) TestDelete() {
	created := s.create("Coffee", "3.50", nil)

	deleted, err := s.repo.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(deleted)

	_, found, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(found)

	deleted, err = s.repo.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *ExpenseRepositorySuite) TestIDsAreNotReused() {
	first := s.create("Coffee", "1", nil)
	_, err := s.repo.Delete(s.ctx, first.ID)
	s.Require().NoError(err)

	second := s.create("Tea", "1", nil)
	s.Greater(second.ID, first.ID)
}

func (s *ExpenseRepositorySuite) TestNonPositiveAmountViolatesConstraint() {
	zero := model.MustParseMoney("0")
	_, err := s.repo.Create(s.ctx, &model.CreateExpenseRequest{Title: "Free", Amount: &zero})
	s.Require().Error(err)
	s.Equal(sqlerr.CheckViolation, sqlerr.ErrCode(sqlErrorOf(err)))

	var httpErr *errs.HTTPError
	s.Require().True(errors.As(sqlerr.HandleError(err), &httpErr))
	s.Equal(http.StatusUnprocessableEntity, httpErr.Status)
}

func (s *ExpenseRepositorySuite) TestMissingAmountViolatesNotNull() {
	_, err := s.repo.Create(s.ctx, &model.CreateExpenseRequest{Title: "Free"})
	s.Require().Error(err)

	var httpErr *errs.HTTPError
	s.Require().True(errors.As(sqlerr.HandleError(err), &httpErr))
	s.Equal(http.StatusUnprocessableEntity, httpErr.Status)
	s.Require().Len(httpErr.Errors, 1)
	s.Equal("amount", httpErr.Errors[0].Field)
}

func (s *ExpenseRepositorySuite) TestReleaseIsIdempotent() {
	s.session.Release()
	s.session.Release()

	// The connection went back to the pool, so it can be checked out again.
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	session, err := s.sessions.Acquire(ctx)
	s.Require().NoError(err)
	s.session = session
}
