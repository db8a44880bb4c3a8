// Package model holds the expense record and the request payloads the HTTP
// layer binds and validates.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/deppfellow/expenses-api/internal/validation"
	"github.com/go-playground/validator/v10"
)

const (
	TitleMaxLength       = 200
	DescriptionMaxLength = 1000
	DefaultListLimit     = 100
)

var validate = validator.New()

// Expense is a stored expense record.
type Expense struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Amount      Money     `json:"amount"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ApplyUpdate copies every field present in req onto e. Fields the client did
// not send are left untouched; an explicit null description clears it.
func (e *Expense) ApplyUpdate(req *UpdateExpenseRequest) {
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Description.Set {
		e.Description = req.Description.Value
	}
}

// NullableString tells an absent JSON field apart from an explicit null.
type NullableString struct {
	Value *string
	Set   bool
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// NewNullableString returns a set NullableString holding s.
func NewNullableString(s string) NullableString {
	return NullableString{Value: &s, Set: true}
}

// ------------------------------------------------------------

type CreateExpenseRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Amount      *Money  `json:"amount" validate:"required"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func (r *CreateExpenseRequest) Validate() error {
	var result error
	if err := validate.Struct(r); err != nil {
		result = err
	}

	if r.Amount != nil {
		if amountErrs := validateAmount(*r.Amount); amountErrs != nil {
			result = errors.Join(result, amountErrs)
		}
	}

	return result
}

// ------------------------------------------------------------

// UpdateExpenseRequest is a partial update. A nil Title or Amount means the
// field was not sent (or sent as null, which the NOT NULL columns cannot take).
type UpdateExpenseRequest struct {
	ID          int64          `param:"id" json:"-"`
	Title       *string        `json:"title" validate:"omitempty,min=1,max=200"`
	Amount      *Money         `json:"amount"`
	Description NullableString `json:"description"`
}

func (r *UpdateExpenseRequest) Validate() error {
	var result error
	if err := validate.Struct(r); err != nil {
		result = err
	}

	var custom validation.CustomValidationErrors
	if r.Amount != nil {
		custom = append(custom, validateAmount(*r.Amount)...)
	}
	if r.Description.Value != nil && utf8.RuneCountInString(*r.Description.Value) > DescriptionMaxLength {
		custom = append(custom, validation.CustomValidationError{
			Field:   "description",
			Message: "must not exceed 1000 characters",
		})
	}
	if len(custom) > 0 {
		result = errors.Join(result, custom)
	}

	return result
}

// IsEmpty reports whether the update carries no fields at all.
func (r *UpdateExpenseRequest) IsEmpty() bool {
	return r.Title == nil && r.Amount == nil && !r.Description.Set
}

// ------------------------------------------------------------

type GetExpenseRequest struct {
	ID int64 `param:"id"`
}

func (r *GetExpenseRequest) Validate() error {
	return validate.Struct(r)
}

// ------------------------------------------------------------

type DeleteExpenseRequest struct {
	ID int64 `param:"id"`
}

func (r *DeleteExpenseRequest) Validate() error {
	return validate.Struct(r)
}

// ------------------------------------------------------------

// ListExpensesRequest pages through expenses by offset. Limit defaults to
// DefaultListLimit when the handler prototype sets it.
type ListExpensesRequest struct {
	Skip  int `query:"skip" validate:"min=0"`
	Limit int `query:"limit" validate:"min=0"`
}

func (r *ListExpensesRequest) Validate() error {
	return validate.Struct(r)
}

// validateAmount checks the rules a struct tag cannot express on a decimal.
func validateAmount(amount Money) validation.CustomValidationErrors {
	if !amount.IsPositive() {
		return validation.CustomValidationErrors{{Field: "amount", Message: "must be greater than 0"}}
	}
	if amount.GreaterThan(MaxAmount.Decimal) {
		return validation.CustomValidationErrors{{Field: "amount", Message: "must not exceed 99999999.99"}}
	}
	return nil
}
