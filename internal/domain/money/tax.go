// Package money implements currency-aware rounding and VAT-inclusive tax
// extraction on exact decimals.
package money

import (
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/shopspring/decimal"
)

// DefaultDecimalPlaces applies when no currency is configured
const DefaultDecimalPlaces int32 = 2

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
	one     = decimal.NewFromInt(1)
)

// ErrTaxCalculation indicates a degenerate rate configuration
type ErrTaxCalculation struct {
	RatePercent decimal.Decimal
}

func (e ErrTaxCalculation) Error() string {
	return "tax calculation failed: rate " + e.RatePercent.String() + "% gives a zero denominator"
}

// Is matches any ErrTaxCalculation
func (e ErrTaxCalculation) Is(target error) bool {
	_, ok := target.(ErrTaxCalculation)
	return ok
}

// ExtractTax returns the tax contained in a tax-inclusive gross amount:
// gross * rate / (100 + rate), rounded with Round.
func ExtractTax(gross, ratePercent decimal.Decimal, decimalPlaces int32) (decimal.Decimal, error) {
	denominator := hundred.Add(ratePercent)
	if denominator.IsZero() {
		return decimal.Zero, ErrTaxCalculation{RatePercent: ratePercent}
	}
	if !ratePercent.IsPositive() {
		return decimal.Zero, nil
	}
	return Round(gross.Mul(ratePercent).Div(denominator), decimalPlaces), nil
}

// Round rounds to decimalPlaces looking at the discarded fraction: half or
// more rounds the magnitude up, anything less truncates. Negative places are
// treated as zero.
func Round(value decimal.Decimal, decimalPlaces int32) decimal.Decimal {
	if decimalPlaces < 0 {
		decimalPlaces = 0
	}
	shifted := value.Abs().Shift(decimalPlaces)
	whole := shifted.Truncate(0)
	if shifted.Sub(whole).GreaterThanOrEqual(half) {
		whole = whole.Add(one)
	}
	result := whole.Shift(-decimalPlaces)
	if value.IsNegative() {
		return result.Neg()
	}
	return result
}

// DecimalPlaces resolves rounding precision from a currency
func DecimalPlaces(currency *reference.Currency) int32 {
	if currency == nil || currency.DecimalPlaces < 0 {
		return DefaultDecimalPlaces
	}
	return currency.DecimalPlaces
}

// Percent returns value * percent / 100 rounded to decimalPlaces
func Percent(value, percent decimal.Decimal, decimalPlaces int32) decimal.Decimal {
	return Round(value.Mul(percent).Div(hundred), decimalPlaces)
}

// Convert turns a foreign currency amount into the base currency
func Convert(amount, exchangeRate decimal.Decimal, decimalPlaces int32) decimal.Decimal {
	return Round(amount.Mul(exchangeRate), decimalPlaces)
}
