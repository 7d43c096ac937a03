package cityresolver

import (
	"context"
	"errors"
	"testing"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func catalog() []models.City {
	return []models.City{
		{ID: "c-minsk", Name: "Минск", Synonyms: []string{"Minsk", "MNSK"}},
		{ID: "c-brest", Name: "Брест", Synonyms: []string{"Brest"}},
	}
}

func TestExtract(t *testing.T) {
	r := New(catalog(), logging.NewMockLogger())

	tests := []struct {
		name        string
		description string
		city        string
		cleaned     string
		confidence  float64
		pattern     string
	}{
		{
			name:        "prefix name city, known city capped",
			description: "BY SUPERMARKET LOGOYSK",
			city:        "LOGOYSK",
			cleaned:     "Supermarket",
			confidence:  1.0,
			pattern:     "prefix-name-city",
		},
		{
			name:        "prefix name comma city wins the tie",
			description: "BY KEBAB FACTORY, MINSK",
			city:        "MINSK",
			cleaned:     "Kebab Factory",
			confidence:  1.0,
			pattern:     "prefix-name-comma-city",
		},
		{
			name:        "unknown city after prefix",
			description: "BY CAFE LUNA KOSINO",
			city:        "KOSINO",
			cleaned:     "Cafe Luna",
			confidence:  0.8,
			pattern:     "prefix-name-city",
		},
		{
			name:        "trailing known word",
			description: "Coffee Minsk",
			city:        "Minsk",
			cleaned:     "Coffee",
			confidence:  0.7,
			pattern:     "trailing-word",
		},
		{
			name:        "glued transport suffix",
			description: "GOMELTRANS",
			city:        "GOMEL",
			cleaned:     "Trans",
			confidence:  1.0,
			pattern:     "transport-suffix",
		},
		{
			name:        "quoted unknown",
			description: `Shop "Zarechye" 24`,
			city:        "Zarechye",
			cleaned:     "Shop 24",
			confidence:  0.6,
			pattern:     "quoted",
		},
		{
			name:        "cyrillic trailing",
			description: "Кафе Брест",
			city:        "Брест",
			cleaned:     "Кафе",
			confidence:  0.7,
			pattern:     "trailing-word",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ok := r.Extract(tt.description)
			require.True(t, ok)
			assert.Equal(t, tt.city, ext.City)
			assert.Equal(t, tt.cleaned, ext.CleanedDescription)
			assert.InDelta(t, tt.confidence, ext.Confidence, 0.001)
			assert.Equal(t, tt.pattern, ext.Pattern)
		})
	}
}

func TestExtract_AfterComma(t *testing.T) {
	r := New(nil, nil)

	ext, ok := r.Extract("Pizza place, Kosino")
	require.True(t, ok)
	assert.Equal(t, "Kosino", ext.City)
	assert.Equal(t, "Pizza Place", ext.CleanedDescription)
	assert.InDelta(t, 0.5, ext.Confidence, 0.001)
	assert.False(t, ext.Known)
}

func TestExtract_NoCandidate(t *testing.T) {
	r := New(nil, nil)

	_, ok := r.Extract("")
	assert.False(t, ok)

	_, ok = r.Extract("ATM 1234")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	r := New(catalog(), nil)

	tests := []struct {
		input string
		id    string
		ok    bool
	}{
		{"минск", "c-minsk", true},
		{"  MINSK ", "c-minsk", true},
		{"mnsk", "c-minsk", true},
		{"Brest", "c-brest", true},
		{"Logoysk", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, ok := r.Resolve(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, c.ID)
		})
	}

	assert.True(t, r.IsKnown("Logoysk"))
	assert.False(t, r.IsKnown("Kosino"))
}

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) RecordUnrecognizedCity(ctx context.Context, name string, count int) error {
	args := m.Called(ctx, name, count)
	return args.Error(0)
}

func TestTally(t *testing.T) {
	tally := NewTally()
	tally.Add("Kosino")
	tally.Add("Zarechye")
	tally.Add("KOSINO ")
	tally.Add("")

	assert.Equal(t, 2, tally.Len())
	assert.Equal(t, []TallyEntry{{Name: "Kosino", Count: 2}, {Name: "Zarechye", Count: 1}}, tally.Entries())

	tracker := &mockTracker{}
	tracker.On("RecordUnrecognizedCity", mock.Anything, "Kosino", 2).Return(nil)
	tracker.On("RecordUnrecognizedCity", mock.Anything, "Zarechye", 1).Return(errors.New("db closed"))

	err := tally.Flush(context.Background(), tracker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Zarechye")
	assert.Equal(t, []TallyEntry{{Name: "Zarechye", Count: 1}}, tally.Entries())
	tracker.AssertExpectations(t)
}
