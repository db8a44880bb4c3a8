package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	custom := "EXPENSE_INVALID"

	tests := []struct {
		name       string
		err        *HTTPError
		wantStatus int
		wantCode   string
	}{
		{"bad request", NewBadRequestError("bad", false, nil, nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"bad request custom code", NewBadRequestError("bad", false, &custom, nil), http.StatusBadRequest, custom},
		{"unprocessable", NewUnprocessableEntityError("invalid", true, nil, nil), http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"not found", NewNotFoundError("Expense with id 1 not found", false, nil), http.StatusNotFound, "NOT_FOUND"},
		{"too many requests", NewTooManyRequestsError("slow down"), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{"internal", NewInternalServerError(), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.Equal(t, tt.wantCode, tt.err.Code)
		})
	}
}

func TestHTTPErrorMatchesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading expense: %w", NewNotFoundError("Expense with id 3 not found", false, nil))

	var httpErr *HTTPError
	require.True(t, errors.As(wrapped, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.True(t, errors.Is(wrapped, &HTTPError{}))
	assert.Equal(t, "Expense with id 3 not found", wrapped.(interface{ Unwrap() error }).Unwrap().Error())
}

func TestWithMessageCopies(t *testing.T) {
	base := NewUnprocessableEntityError("Validation failed", true, nil, []FieldError{{Field: "title", Error: "is required"}})
	changed := base.WithMessage("Title missing")

	assert.Equal(t, "Validation failed", base.Message)
	assert.Equal(t, "Title missing", changed.Message)
	assert.Equal(t, base.Errors, changed.Errors)
	assert.Equal(t, base.Status, changed.Status)
}

func TestJSONShape(t *testing.T) {
	body, err := json.Marshal(NewNotFoundError("Expense with id 99999 not found", false, nil))
	require.NoError(t, err)

	assert.JSONEq(t, `{"code":"NOT_FOUND","detail":"Expense with id 99999 not found","status":404,"override":false}`, string(body))
}

func TestValidationError(t *testing.T) {
	err := ValidationError(errors.New("amount is required"))

	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "Validation failed: amount is required", err.Message)
}

func TestMakeUpperCaseWithUnderscores(t *testing.T) {
	assert.Equal(t, "UNPROCESSABLE_ENTITY", MakeUpperCaseWithUnderscores("Unprocessable Entity"))
}
