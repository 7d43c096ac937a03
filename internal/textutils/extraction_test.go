package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  plain  ", "plain"},
		{"Caf&eacute;&nbsp;&amp;&nbsp;Bar", "Café & Bar"},
		{"line\n\tbreak", "line break"},
		{"&lt;b&gt;", "<b>"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanCell(tt.input))
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Kebab Factory", TitleCase("KEBAB FACTORY"))
	assert.Equal(t, "Supermarket", TitleCase("supermarket"))
	assert.Equal(t, "Евроопт", TitleCase("ЕВРООПТ"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "coffee minsk", Fold("  Coffee MINSK "))
}

func TestContainsDigit(t *testing.T) {
	assert.True(t, ContainsDigit("12.01.2024"))
	assert.False(t, ContainsDigit("Date"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
