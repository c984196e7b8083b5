package types

import (
	"fmt"
	"strings"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/shopspring/decimal"
)

// Money is a decimal amount in a single currency
type Money struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// NewMoney creates a Money with an upper-cased currency code
func NewMoney(value decimal.Decimal, currency string) Money {
	return Money{Value: value, Currency: strings.ToUpper(currency)}
}

// NewMoneyFromString parses value as a decimal amount
func NewMoneyFromString(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, ierr.WithError(err).
			WithHintf("invalid amount %q", value).
			Mark(ierr.ErrValidation)
	}
	return NewMoney(d, currency), nil
}

// Add returns m + o. Both must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if !strings.EqualFold(m.Currency, o.Currency) {
		return Money{}, ierr.NewErrorf("cannot add %s to %s", o.Currency, m.Currency).
			WithHint("Amounts must share a currency").
			Mark(ierr.ErrInvalidArgument)
	}
	return Money{Value: m.Value.Add(o.Value), Currency: m.Currency}, nil
}

// Multiply returns m * factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{Value: m.Value.Mul(factor), Currency: m.Currency}
}

// Divide returns m / divisor
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ierr.NewError("division by zero").
			WithHint("Cannot divide an amount by zero").
			Mark(ierr.ErrInvalidArgument)
	}
	return Money{Value: m.Value.Div(divisor), Currency: m.Currency}, nil
}

// Round rounds half away from zero to the currency's minor unit
func (m Money) Round() Money {
	return Money{Value: m.Value.Round(GetCurrencyPrecision(m.Currency)), Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Value.IsZero()
}

// Equal compares value and currency, ignoring trailing zeros
func (m Money) Equal(o Money) bool {
	return strings.EqualFold(m.Currency, o.Currency) && m.Value.Equal(o.Value)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Value.StringFixed(GetCurrencyPrecision(m.Currency)))
}

// Display formats the amount with its currency symbol, e.g. €50.27.
// Currencies without a known symbol fall back to String.
func (m Money) Display() string {
	symbol := GetCurrencySymbol(m.Currency)
	if symbol == m.Currency {
		return m.String()
	}
	return symbol + m.Value.StringFixed(GetCurrencyPrecision(m.Currency))
}
