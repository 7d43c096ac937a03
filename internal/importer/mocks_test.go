package importer

import (
	"context"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockDictionaries struct {
	mock.Mock
}

func (m *mockDictionaries) LoadKeywords(ctx context.Context) ([]models.Keyword, error) {
	args := m.Called(ctx)
	keywords, _ := args.Get(0).([]models.Keyword)
	return keywords, args.Error(1)
}

func (m *mockDictionaries) LoadCities(ctx context.Context) ([]models.City, error) {
	args := m.Called(ctx)
	cities, _ := args.Get(0).([]models.City)
	return cities, args.Error(1)
}

type mockCommitter struct {
	mock.Mock
}

func (m *mockCommitter) CommitExpenses(ctx context.Context, payloads []models.ExpensePayload) (models.CommitResult, error) {
	args := m.Called(ctx, payloads)
	return args.Get(0).(models.CommitResult), args.Error(1)
}

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) RecordUnrecognizedCity(ctx context.Context, name string, count int) error {
	return m.Called(ctx, name, count).Error(0)
}

type mockExisting struct {
	mock.Mock
}

func (m *mockExisting) ListExpenses(ctx context.Context, from, to string) ([]models.ExistingExpense, error) {
	args := m.Called(ctx, from, to)
	existing, _ := args.Get(0).([]models.ExistingExpense)
	return existing, args.Error(1)
}

type mockMappings struct {
	mock.Mock
}

func (m *mockMappings) LoadMapping(ctx context.Context) ([]models.ColumnMapping, error) {
	args := m.Called(ctx)
	cols, _ := args.Get(0).([]models.ColumnMapping)
	return cols, args.Error(1)
}

func (m *mockMappings) SaveMapping(ctx context.Context, columns []models.ColumnMapping) error {
	return m.Called(ctx, columns).Error(0)
}

func testKeywords() []models.Keyword {
	return []models.Keyword{{ID: "k1", CategoryID: "food", Keyword: "kebab"}}
}

func testCities() []models.City {
	return []models.City{
		{ID: "c-minsk", Name: "Минск", Synonyms: []string{"Minsk"}},
		{ID: "c-brest", Name: "Брест", Synonyms: []string{"Brest"}},
	}
}

func newDictionaries() *mockDictionaries {
	d := &mockDictionaries{}
	d.On("LoadKeywords", mock.Anything).Return(testKeywords(), nil)
	d.On("LoadCities", mock.Anything).Return(testCities(), nil)
	return d
}
