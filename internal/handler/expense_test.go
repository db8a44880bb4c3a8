package handler_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/expenses-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expenseBody struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Amount      string    `json:"amount"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func createExpense(t *testing.T, app *testutil.App, body any) expenseBody {
	t.Helper()

	rec := app.Do(t, http.MethodPost, "/expenses", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return testutil.Decode[expenseBody](t, rec)
}

func fieldErrors(body testutil.ErrorBody) map[string]string {
	out := make(map[string]string, len(body.Errors))
	for _, fe := range body.Errors {
		out[fe.Field] = fe.Error
	}
	return out
}

func TestExpenseLifecycle(t *testing.T) {
	app := testutil.NewApp(t, nil)

	created := createExpense(t, app, map[string]any{"title": "Coffee", "amount": 3.5})
	assert.Positive(t, created.ID)
	assert.Equal(t, "Coffee", created.Title)
	assert.Equal(t, "3.50", created.Amount)
	assert.Nil(t, created.Description)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.Before(created.CreatedAt))

	path := fmt.Sprintf("/expenses/%d", created.ID)

	rec := app.Do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, testutil.Decode[expenseBody](t, rec))

	rec = app.Do(t, http.MethodPut, path, map[string]any{"title": "Tea"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := testutil.Decode[expenseBody](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Tea", updated.Title)
	assert.Equal(t, "3.50", updated.Amount)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	rec = app.Do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = app.Do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.Do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateExpenseAcceptsStringAmountAndDescription(t *testing.T) {
	app := testutil.NewApp(t, nil)

	created := createExpense(t, app, `{"title":"Lunch","amount":"12.345","description":"team lunch"}`)
	assert.Equal(t, "12.35", created.Amount)
	require.NotNil(t, created.Description)
	assert.Equal(t, "team lunch", *created.Description)
}

func TestCreateExpenseValidation(t *testing.T) {
	app := testutil.NewApp(t, nil)

	tests := []struct {
		name       string
		body       string
		wantFields map[string]string
	}{
		{
			name: "empty title and negative amount",
			body: `{"title":"","amount":-1}`,
			wantFields: map[string]string{
				"title":  "is required",
				"amount": "must be greater than 0",
			},
		},
		{
			name:       "missing amount",
			body:       `{"title":"Coffee"}`,
			wantFields: map[string]string{"amount": "is required"},
		},
		{
			name:       "null amount",
			body:       `{"title":"Coffee","amount":null}`,
			wantFields: map[string]string{"amount": "is required"},
		},
		{
			name:       "zero amount",
			body:       `{"title":"Coffee","amount":0}`,
			wantFields: map[string]string{"amount": "must be greater than 0"},
		},
		{
			name:       "amount rounds to zero",
			body:       `{"title":"Coffee","amount":0.004}`,
			wantFields: map[string]string{"amount": "must be greater than 0"},
		},
		{
			name:       "amount too large",
			body:       `{"title":"Coffee","amount":100000000}`,
			wantFields: map[string]string{"amount": "must not exceed 99999999.99"},
		},
		{
			name:       "title too long",
			body:       fmt.Sprintf(`{"title":%q,"amount":1}`, strings.Repeat("a", 201)),
			wantFields: map[string]string{"title": "must not exceed 200 characters"},
		},
		{
			name:       "description too long",
			body:       fmt.Sprintf(`{"title":"Coffee","amount":1,"description":%q}`, strings.Repeat("d", 1001)),
			wantFields: map[string]string{"description": "must not exceed 1000 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.Do(t, http.MethodPost, "/expenses", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			body := testutil.Decode[testutil.ErrorBody](t, rec)
			assert.Equal(t, http.StatusUnprocessableEntity, body.Status)
			assert.Equal(t, "Validation failed", body.Detail)
			assert.Equal(t, tt.wantFields, fieldErrors(body))
		})
	}

	rec := app.Do(t, http.MethodGet, "/expenses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateExpenseMalformedBody(t *testing.T) {
	app := testutil.NewApp(t, nil)

	for _, body := range []string{`{"title":`, `{"title":"Coffee","amount":"abc"}`, `{"title":5,"amount":1}`} {
		rec := app.Do(t, http.MethodPost, "/expenses", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestTitleLengthCountsCharacters(t *testing.T) {
	app := testutil.NewApp(t, nil)

	title := strings.Repeat("é", 200)
	created := createExpense(t, app, map[string]any{"title": title, "amount": "1"})
	assert.Equal(t, title, created.Title)
}

func TestGetExpenseNotFound(t *testing.T) {
	app := testutil.NewApp(t, nil)

	rec := app.Do(t, http.MethodGet, "/expenses/99999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := testutil.Decode[testutil.ErrorBody](t, rec)
	assert.Equal(t, "Expense with id 99999 not found", body.Detail)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestNonIntegerIDIsRejected(t *testing.T) {
	app := testutil.NewApp(t, nil)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := app.Do(t, method, "/expenses/abc", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, method)
	}

	rec := app.Do(t, http.MethodPut, "/expenses/abc", map[string]any{"title": "Tea"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListExpensesPaging(t *testing.T) {
	app := testutil.NewApp(t, nil)

	var ids []int64
	for i := 1; i <= 5; i++ {
		created := createExpense(t, app, map[string]any{"title": fmt.Sprintf("Item %d", i), "amount": i})
		ids = append(ids, created.ID)
	}

	list := func(query string) []expenseBody {
		rec := app.Do(t, http.MethodGet, "/expenses"+query, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return testutil.Decode[[]expenseBody](t, rec)
	}

	all := list("")
	require.Len(t, all, 5)
	for i, e := range all {
		assert.Equal(t, ids[i], e.ID)
	}

	page := list("?skip=1&limit=2")
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	assert.Len(t, list("?skip=4&limit=10"), 1)
	assert.Empty(t, list("?skip=10"))
	assert.Empty(t, list("?limit=0"))

	// Trailing slash reaches the same route.
	assert.Len(t, list("/?limit=3"), 3)
}

func TestListExpensesRejectsBadQuery(t *testing.T) {
	app := testutil.NewApp(t, nil)

	rec := app.Do(t, http.MethodGet, "/expenses?skip=-1", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := testutil.Decode[testutil.ErrorBody](t, rec)
	assert.Equal(t, "must be at least 0", fieldErrors(body)["skip"])

	rec = app.Do(t, http.MethodGet, "/expenses?limit=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateExpense(t *testing.T) {
	app := testutil.NewApp(t, nil)

	created := createExpense(t, app, map[string]any{"title": "Coffee", "amount": "3.50", "description": "morning"})
	path := fmt.Sprintf("/expenses/%d", created.ID)

	t.Run("explicit null clears description", func(t *testing.T) {
		rec := app.Do(t, http.MethodPut, path, `{"description":null,"amount":"4"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := testutil.Decode[expenseBody](t, rec)
		assert.Nil(t, got.Description)
		assert.Equal(t, "4.00", got.Amount)
		assert.Equal(t, "Coffee", got.Title)
	})

	t.Run("empty body changes nothing", func(t *testing.T) {
		before := testutil.Decode[expenseBody](t, app.Do(t, http.MethodGet, path, nil))

		rec := app.Do(t, http.MethodPut, path, `{}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, before, testutil.Decode[expenseBody](t, rec))
	})

	t.Run("invalid fields", func(t *testing.T) {
		rec := app.Do(t, http.MethodPut, path, `{"title":"","amount":0}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		fields := fieldErrors(testutil.Decode[testutil.ErrorBody](t, rec))
		assert.Equal(t, "must be at least 1 characters", fields["title"])
		assert.Equal(t, "must be greater than 0", fields["amount"])

		got := testutil.Decode[expenseBody](t, app.Do(t, http.MethodGet, path, nil))
		assert.Equal(t, "Coffee", got.Title)
	})

	t.Run("missing expense", func(t *testing.T) {
		rec := app.Do(t, http.MethodPut, "/expenses/99999", map[string]any{"title": "Tea"})
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Expense with id 99999 not found", testutil.Decode[testutil.ErrorBody](t, rec).Detail)
	})
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	app := testutil.NewApp(t, nil)

	first := createExpense(t, app, map[string]any{"title": "A", "amount": 1})
	require.Equal(t, http.StatusNoContent, app.Do(t, http.MethodDelete, fmt.Sprintf("/expenses/%d", first.ID), nil).Code)

	second := createExpense(t, app, map[string]any{"title": "B", "amount": 1})
	assert.Greater(t, second.ID, first.ID)
}
