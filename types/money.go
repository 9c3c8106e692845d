// Package types holds the value types shared by every dues entity.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency a society bills in unless configured otherwise.
const DefaultCurrency = "inr"

var (
	// ErrCurrencyMismatch is returned by the checked operations when the
	// operands are in different currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")

	// ErrOverflow is returned when a result does not fit in an int64 minor unit.
	ErrOverflow = errors.New("money: amount overflows")
)

// Money is an amount in the currency's minor unit (paise for INR).
// Arithmetic stays integer; only rate application goes through decimal.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"` // ISO 4217, lowercase
}

// INR creates a Money value in Indian rupees from paise.
func INR(paise int64) Money { return Money{Amount: paise, Currency: "inr"} }

// USD creates a Money value in US dollars from cents.
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// Zero returns zero in the given currency.
func Zero(currency string) Money { return Money{Currency: strings.ToLower(currency)} }

// Add adds two amounts. Mixing currencies panics.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts other from m. Mixing currencies panics.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Multiply scales the amount by an integer quantity. The result wraps on
// overflow; use CheckedMultiply for caller-supplied values.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// CheckedAdd is Add returning ErrCurrencyMismatch or ErrOverflow instead of
// panicking or wrapping.
func (m Money) CheckedAdd(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	sum := m.Amount + other.Amount
	if (other.Amount > 0 && sum < m.Amount) || (other.Amount < 0 && sum > m.Amount) {
		return Money{}, fmt.Errorf("%w: %d + %d", ErrOverflow, m.Amount, other.Amount)
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// CheckedMultiply is Multiply returning ErrOverflow instead of wrapping.
func (m Money) CheckedMultiply(qty int64) (Money, error) {
	if m.Amount == 0 || qty == 0 {
		return Money{Currency: m.Currency}, nil
	}
	p := m.Amount * qty
	if p/qty != m.Amount || (m.Amount == -1 && qty == math.MinInt64) || (qty == -1 && m.Amount == math.MinInt64) {
		return Money{}, fmt.Errorf("%w: %d * %d", ErrOverflow, m.Amount, qty)
	}
	return Money{Amount: p, Currency: m.Currency}, nil
}

// ApplyRate returns m*rate rounded half away from zero to the minor unit.
// Rates above 1 can push the result past int64; see CheckedApplyRate.
func (m Money) ApplyRate(rate decimal.Decimal) Money {
	v := decimal.NewFromInt(m.Amount).Mul(rate).Round(0)
	return Money{Amount: v.IntPart(), Currency: m.Currency}
}

// CheckedApplyRate is ApplyRate returning ErrOverflow when the rounded
// result does not fit.
func (m Money) CheckedApplyRate(rate decimal.Decimal) (Money, error) {
	v := decimal.NewFromInt(m.Amount).Mul(rate).Round(0)
	if v.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || v.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return Money{}, fmt.Errorf("%w: %s * %s", ErrOverflow, m.FormatMajor(), rate)
	}
	return Money{Amount: v.IntPart(), Currency: m.Currency}, nil
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsPositive() bool { return m.Amount > 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// Cmp compares two amounts in the same currency: -1, 0 or +1.
func (m Money) Cmp(other Money) int {
	m.assertSameCurrency(other)
	switch {
	case m.Amount < other.Amount:
		return -1
	case m.Amount > other.Amount:
		return 1
	default:
		return 0
	}
}

// Decimal returns the amount in major units, e.g. 2360.00 for INR(236000).
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(currencyDecimals(m.Currency)))
}

// FormatMajor renders the amount in major units without a symbol, e.g. "2360.00".
func (m Money) FormatMajor() string {
	return m.Decimal().StringFixed(int32(currencyDecimals(m.Currency)))
}

// String renders the amount with its currency symbol, e.g. "₹2360.00".
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON adds a display field next to amount and currency.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// ParseMajor parses a major-unit string such as "2000.50" into Money.
// More fractional digits than the currency carries is an error.
func ParseMajor(s, currency string) (Money, error) {
	currency = strings.ToLower(currency)
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	minor := d.Shift(int32(currencyDecimals(currency)))
	if !minor.Equal(minor.Truncate(0)) {
		return Money{}, fmt.Errorf("money: %q has too many decimal places for %s", s, currency)
	}
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || minor.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return Money{}, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return Money{Amount: minor.IntPart(), Currency: currency}, nil
}

// Sum adds values in the given currency. An empty list sums to zero.
func Sum(currency string, values ...Money) Money {
	total := Zero(currency)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

func currencySymbol(currency string) string {
	symbols := map[string]string{
		"inr": "₹",
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"aed": "AED ",
		"sgd": "S$",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

func currencyDecimals(currency string) int {
	switch strings.ToLower(currency) {
	case "jpy", "krw", "vnd", "idr":
		return 0
	default:
		return 2
	}
}
