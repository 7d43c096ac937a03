// Package currencyutils parses and formats monetary amounts written in the
// many locale conventions found in bank exports.
package currencyutils

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned when a cell holds no digits at all.
var ErrEmptyAmount = errors.New("empty amount")

// ParseAmount parses a locale-formatted amount such as "1 234,56",
// "1,234.56", "1.234,56", "-12,5" or "(50.00)". A leading minus sign or
// wrapping parentheses make the result negative. Callers that need an
// expense amount take the absolute value.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(amountStr)
	if trimmed == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		negative = true
		trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	}
	if hasLeadingMinus(trimmed) {
		negative = true
	}

	standardized := StandardizeAmount(trimmed)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, ErrEmptyAmount)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if negative {
		amount = amount.Abs().Neg()
	}
	return amount, nil
}

// hasLeadingMinus reports whether a minus sign precedes the first digit,
// so that "-12", "BYN -12" and "−12" are all negative.
func hasLeadingMinus(s string) bool {
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			return false
		case r == '-' || r == '−' || r == '–':
			return true
		}
	}
	return false
}

// StandardizeAmount reduces an unsigned amount to the form accepted by
// decimal.NewFromString. Every character except digits, separators and
// spaces is dropped, then the separators are disambiguated:
//
//   - comma and dot both present: the rightmost one is the decimal point
//   - spaces with a comma: spaces group thousands, the comma is decimal
//   - a single comma followed by at most two digits is decimal, otherwise
//     commas group thousands
//   - several dots and no comma: dots group thousands
func StandardizeAmount(amountStr string) string {
	var b strings.Builder
	for _, r := range amountStr {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == ' ', r == '\u00a0', r == '\u202f', r == '\'':
			b.WriteRune(' ')
		}
	}
	cleaned := strings.TrimSpace(b.String())
	hadSpace := strings.Contains(cleaned, " ")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	commas := strings.Count(cleaned, ",")
	dots := strings.Count(cleaned, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas == 1 && (hadSpace || len(cleaned)-strings.Index(cleaned, ",")-1 <= 2):
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case commas > 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case dots > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	cleaned = strings.TrimSuffix(cleaned, ".")
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}
	return cleaned
}

// FormatAmount formats a decimal amount with two decimal places and an
// optional currency code or symbol, e.g. "BYN 12.30" or "€1234.56".
func FormatAmount(amount decimal.Decimal, currency string) string {
	formattedAmount := amount.StringFixed(2)

	if currency != "" {
		switch strings.ToUpper(currency) {
		case "EUR":
			return "€" + formattedAmount
		case "USD":
			return "$" + formattedAmount
		case "GBP":
			return "£" + formattedAmount
		default:
			return strings.ToUpper(currency) + " " + formattedAmount
		}
	}

	return formattedAmount
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
