package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits stored for an amount.
const AmountScale = 2

// MaxAmount is the largest value a NUMERIC(10,2) column holds.
var MaxAmount = NewMoney(decimal.RequireFromString("99999999.99"))

// Money is a fixed-point amount with two fractional digits.
//
// It encodes to JSON as a string ("3.50") and decodes from either a string or
// a number. Values are rounded half away from zero on the way in.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to two fractional digits.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(AmountScale)}
}

// ParseMoney parses a decimal string such as "12.5".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// MustParseMoney is ParseMoney for constants; it panics on bad input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) String() string {
	return m.Decimal.StringFixed(AmountScale)
}

// Equal compares by value, so 3.5 equals 3.50.
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("amount must be a decimal number: %w", err)
	}
	*m = NewMoney(d)
	return nil
}

// Value stores the amount as its fixed two-digit text form.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return err
	}
	*m = NewMoney(d)
	return nil
}
