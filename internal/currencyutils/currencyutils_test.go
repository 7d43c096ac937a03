package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		amountStr string
		expected  string
		hasError  bool
	}{
		{"Simple decimal", "123.45", "123.45", false},
		{"Integer", "100", "100", false},
		{"Space grouping with decimal comma", "1 234,56", "1234.56", false},
		{"Non-breaking space grouping", "1 234,56", "1234.56", false},
		{"Comma thousands, dot decimal", "1,234.56", "1234.56", false},
		{"Dot thousands, comma decimal", "1.234,56", "1234.56", false},
		{"Single comma two digits is decimal", "123,45", "123.45", false},
		{"Single comma one digit is decimal", "12,5", "12.5", false},
		{"Single comma three digits is thousands", "1,234", "1234", false},
		{"Multiple commas are thousands", "1,234,567", "1234567", false},
		{"Multiple dots are thousands", "1.234.567", "1234567", false},
		{"Apostrophe thousands", "1'234.56", "1234.56", false},
		{"Trailing comma", "100,", "100", false},
		{"Leading minus", "-123.45", "-123.45", false},
		{"Unicode minus", "−15,00", "-15", false},
		{"Minus after currency code", "BYN -12,30", "-12.3", false},
		{"Explicit plus", "+7.10", "7.1", false},
		{"Parentheses negative", "(50.00)", "-50", false},
		{"Parentheses with minus stay negative", "(-50.00)", "-50", false},
		{"Currency symbol", "€123.45", "123.45", false},
		{"Currency suffix", "12.30 BYN", "12.3", false},
		{"Surrounding spaces", "  123.45  ", "123.45", false},
		{"Empty", "", "", true},
		{"Blank", "   ", "", true},
		{"Non-numeric", "abc", "", true},
		{"Only separators", ".,", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseAmount(tc.amountStr)

			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			expected := decimal.RequireFromString(tc.expected)
			assert.True(t, expected.Equal(result), "Expected %s but got %s", expected.String(), result.String())
		})
	}
}

func TestParseAmount_EmptyIsSentinel(t *testing.T) {
	_, err := ParseAmount("")
	assert.ErrorIs(t, err, ErrEmptyAmount)

	_, err = ParseAmount("n/a")
	assert.ErrorIs(t, err, ErrEmptyAmount)
}

func TestStandardizeAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 234,56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"CHF 1'234.56", "1234.56"},
		{",5", "0.5"},
		{"12.", "12"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, StandardizeAmount(tc.input))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	amount := decimal.RequireFromString("1234.5")
	assert.Equal(t, "1234.50", FormatAmount(amount, ""))
	assert.Equal(t, "€1234.50", FormatAmount(amount, "eur"))
	assert.Equal(t, "BYN 1234.50", FormatAmount(amount, "byn"))
}

func TestWithinTolerance(t *testing.T) {
	tolerance := decimal.RequireFromString("0.01")
	base := decimal.RequireFromString("10.00")

	assert.True(t, WithinTolerance(base, decimal.RequireFromString("10.005"), tolerance))
	assert.True(t, WithinTolerance(base, decimal.RequireFromString("9.99"), tolerance))
	assert.False(t, WithinTolerance(base, decimal.RequireFromString("10.02"), tolerance))
}
