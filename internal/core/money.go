package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount converts user input into an amount rounded to two decimals.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Zero,
// negative and malformed values return ErrInvalidAmount.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			return 0, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// FormatCurrency renders amount in the given ISO currency ("USD" -> "$12.50").
// Unknown codes fall back to a plain two-decimal number followed by the code.
func FormatCurrency(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	cur := money.GetCurrency(code)
	if cur == nil {
		return decimal.NewFromFloat(amount).StringFixed(2) + " " + code
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minor, code).Display()
}
