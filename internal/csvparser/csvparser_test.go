package csvparser

import (
	"errors"
	"strings"
	"testing"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		line     string
		expected rune
	}{
		{"Date;Amount;Description", ';'},
		{"Date\tAmount\tDescription", '\t'},
		{"Date,Amount,Description", ','},
		{"a,b;c", ';'},
		{"single", ','},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDelimiter(tt.line))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedHeaders []string
		expectedRows    [][]string
	}{
		{
			name:            "semicolon with quoted delimiter",
			input:           "Date;Amount;Description\n01.01.2024;\"1 234,56\";\"Shop; Minsk\"\n",
			expectedHeaders: []string{"Date", "Amount", "Description"},
			expectedRows:    [][]string{{"01.01.2024", "1 234,56", "Shop; Minsk"}},
		},
		{
			name:            "tab separated paste",
			input:           "01.01.2024\t100.50\tCoffee Minsk\n02.01.2024\t5\tBus",
			expectedHeaders: []string{"01.01.2024", "100.50", "Coffee Minsk"},
			expectedRows:    [][]string{{"02.01.2024", "5", "Bus"}},
		},
		{
			name:            "comma with quoted comma",
			input:           "01.01.2024,100.50,\"Kebab, Minsk\"\r\n",
			expectedHeaders: []string{"01.01.2024", "100.50", "Kebab, Minsk"},
			expectedRows:    nil,
		},
		{
			name:            "blank lines skipped and ragged rows kept",
			input:           "\n\nA;B\n\n1;2;3\n;;\n4\n",
			expectedHeaders: []string{"A", "B"},
			expectedRows:    [][]string{{"1", "2", "3"}, {"4"}},
		},
		{
			name:            "byte order mark stripped",
			input:           "\xEF\xBB\xBFDate;Amount\n01.01.2024;5",
			expectedHeaders: []string{"Date", "Amount"},
			expectedRows:    [][]string{{"01.01.2024", "5"}},
		},
		{
			name:            "lazy quote after space",
			input:           "A, \"b c\"\n",
			expectedHeaders: []string{"A", "b c"},
			expectedRows:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(logging.NewMockLogger())
			table, err := p.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)

			assert.Equal(t, models.FormatDelimited, table.Format)
			assert.Equal(t, tt.expectedHeaders, table.Headers)
			if tt.expectedRows == nil {
				assert.Empty(t, table.Rows)
			} else {
				assert.Equal(t, tt.expectedRows, table.Rows)
			}
			assert.Equal(t, len(table.Rows), table.TotalRows)
		})
	}
}

func TestParse_Windows1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("Дата;Сумма;Описание\n31.12.2023;12,30;Кафе")
	require.NoError(t, err)

	table, err := New(nil).Parse(strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, []string{"Дата", "Сумма", "Описание"}, table.Headers)
	assert.Equal(t, [][]string{{"31.12.2023", "12,30", "Кафе"}}, table.Rows)
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   \n\t\n", "\xEF\xBB\xBF"} {
		_, err := New(nil).Parse(strings.NewReader(input))
		assert.True(t, errors.Is(err, ErrEmptyInput), "input %q", input)
	}
}

func TestParse_OnlyDelimiters(t *testing.T) {
	_, err := New(nil).Parse(strings.NewReader(";;\n;;"))
	assert.ErrorIs(t, err, ErrEmptyInput)
}
