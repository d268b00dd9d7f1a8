package money

import (
	"errors"
	"strings"

	"invoicer/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrInvalidVATRate  = errors.New("vat rate must be between 0 and 100")
	ErrAmountTooLarge  = errors.New("amount exceeds the storable maximum")
)

var hundred = decimal.NewFromInt(100)

// MaxAmount is the exclusive bound of a numeric(18,2) column.
var MaxAmount = decimal.New(1, 16)

type Totals struct {
	Subtotal decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// ParseAmount accepts a non-negative decimal string with at most two decimals.
func ParseAmount(input string) (decimal.Decimal, error) {
	return parseNonNegative(input, 2)
}

// ParseQuantity allows fractional quantities such as hours (up to three decimals).
func ParseQuantity(input string) (decimal.Decimal, error) {
	return parseNonNegative(input, 3)
}

func ParseVATRate(input string) (decimal.Decimal, error) {
	if strings.TrimSpace(input) == "" {
		return decimal.Zero, nil
	}
	rate, err := parseNonNegative(input, 2)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.GreaterThan(hundred) {
		return decimal.Zero, ErrInvalidVATRate
	}
	return rate, nil
}

func parseNonNegative(input string, places int32) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := CheckNonNegative(value, places); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// CheckNonNegative validates an already-decoded value. Trailing zeros beyond
// places are accepted ("10.500" is fine for two places).
func CheckNonNegative(value decimal.Decimal, places int32) error {
	if value.IsNegative() {
		return ErrInvalidAmount
	}
	if !value.Equal(value.Truncate(places)) {
		return ErrTooManyDecimals
	}
	return nil
}

// CheckMagnitude rejects values that would not fit in a stored amount column.
func CheckMagnitude(value decimal.Decimal) error {
	if value.Abs().GreaterThanOrEqual(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// Compute derives subtotal, VAT and total from line items. Each line is rounded
// before summing so the document matches what is printed line by line.
func Compute(items models.LineItems, vatRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item))
	}
	vat := subtotal.Mul(vatRate).Div(hundred).Round(2)
	return Totals{
		Subtotal: subtotal,
		VAT:      vat,
		Total:    subtotal.Add(vat).Round(2),
	}
}

func LineTotal(item models.LineItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice).Round(2)
}

func Format(value decimal.Decimal) string {
	return value.StringFixed(2)
}

// FormatWithCurrency renders "1,500.00 USD".
func FormatWithCurrency(value decimal.Decimal, currency string) string {
	fixed := value.StringFixed(2)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	whole, frac, _ := strings.Cut(fixed, ".")
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	out := grouped.String() + "." + frac
	if negative {
		out = "-" + out
	}
	if currency == "" {
		return out
	}
	return out + " " + currency
}
