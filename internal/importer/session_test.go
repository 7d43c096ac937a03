package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/factory"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/mapping"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const bankCSV = "Дата;Описание;Сумма\n" +
	"15.03.2024;BY KEBAB FACTORY, MINSK;12,50\n" +
	"16.03.2024;Coffee LOGOYSK;3,20\n"

const plainCSV = "Date;Description;Amount\n" +
	"2024-03-15;Bakery;3.20\n" +
	"2024-03-16;Pharmacy;10\n"

func payloadCount(n int) interface{} {
	return mock.MatchedBy(func(p []models.ExpensePayload) bool { return len(p) == n })
}

func loadAndOpen(t *testing.T, s *Session, name, data string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, name, []byte(data), factory.DefaultOptions()))
	require.Equal(t, StateLoaded, s.State())
	require.NoError(t, s.OpenMapping(ctx))
	require.Equal(t, StateMapping, s.State())
}

func TestSession_EndToEndPreview(t *testing.T) {
	ctx := context.Background()

	committer := &mockCommitter{}
	committer.On("CommitExpenses", mock.Anything, payloadCount(2)).
		Return(models.CommitResult{Success: true, Stats: models.CommitStats{Success: 2, Total: 2, Uncategorized: 1}}, nil).Once()
	tracker := &mockTracker{}
	tracker.On("RecordUnrecognizedCity", mock.Anything, "Logoysk", 1).Return(nil).Once()
	mappings := &mockMappings{}
	mappings.On("LoadMapping", mock.Anything).Return(nil, nil)
	mappings.On("SaveMapping", mock.Anything, mock.Anything).Return(nil)

	s := NewSession(Deps{
		Dictionaries: newDictionaries(),
		Committer:    committer,
		Tracker:      tracker,
		Mappings:     mappings,
	}, logging.NewMockLogger())

	loadAndOpen(t, s, "bank.csv", bankCSV)

	snap := s.Snapshot()
	assert.True(t, snap.HasHeader)
	assert.False(t, snap.MappingReused)
	assert.Equal(t, 3, snap.ColumnCount)
	require.Len(t, snap.Mapping, 3)
	assert.Equal(t, []models.Field{models.FieldDate}, snap.Mapping[0].TargetFields)
	assert.Equal(t, []models.Field{models.FieldDescription}, snap.Mapping[1].TargetFields)
	assert.Equal(t, []models.Field{models.FieldAmount}, snap.Mapping[2].TargetFields)
	assert.Equal(t, "A", snap.Labels[0])

	require.NoError(t, s.ApplyMapping(ctx, snap.Mapping, ModePreview))
	assert.Equal(t, StateReviewPending, s.State())
	snap = s.Snapshot()
	assert.Len(t, snap.ReviewItems, 2)
	assert.Equal(t, 2, snap.Stats.ImportedRows)

	require.NoError(t, s.Confirm(ctx, nil))
	assert.Equal(t, StatePreviewing, s.State())
	snap = s.Snapshot()
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, "Kebab Factory", snap.Rows[0].Description)
	assert.Equal(t, "Минск", snap.Rows[0].City)
	assert.Equal(t, "Coffee", snap.Rows[1].Description)
	assert.Equal(t, "Logoysk", snap.Rows[1].City)
	assert.Equal(t, "2024-03-16", snap.Rows[1].ExpenseDate)

	require.NoError(t, s.Commit(ctx))
	assert.Equal(t, StateDone, s.State())
	snap = s.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, 2, snap.Result.Stats.Success)
	assert.Empty(t, snap.Rows)

	committer.AssertExpectations(t)
	tracker.AssertExpectations(t)
	mappings.AssertCalled(t, "SaveMapping", mock.Anything, mock.Anything)
}

func TestSession_CommaDelimitedRowResolvesCity(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Deps{Dictionaries: newDictionaries(), Committer: &mockCommitter{}}, nil)

	loadAndOpen(t, s, "single.csv", "01.01.2024,100.50,Coffee Minsk\n")
	snap := s.Snapshot()
	assert.False(t, snap.HasHeader)
	require.Equal(t, 3, snap.ColumnCount)

	columns := []models.ColumnMapping{
		{SourceIndex: 0, TargetFields: []models.Field{models.FieldDate}, Enabled: true},
		{SourceIndex: 1, TargetFields: []models.Field{models.FieldAmount}, Enabled: true},
		{SourceIndex: 2, TargetFields: []models.Field{models.FieldDescription}, Enabled: true},
	}
	require.NoError(t, s.ApplyMapping(ctx, columns, ModePreview))
	require.Equal(t, StateReviewPending, s.State())
	require.NoError(t, s.Confirm(ctx, nil))
	require.Equal(t, StatePreviewing, s.State())

	snap = s.Snapshot()
	require.Len(t, snap.Rows, 1)
	row := snap.Rows[0]
	assert.Equal(t, "2024-01-01", row.ExpenseDate)
	assert.True(t, decimal.RequireFromString("100.5").Equal(row.Amount))
	require.NotNil(t, row.CityID)
	assert.Equal(t, "c-minsk", *row.CityID)
	assert.Equal(t, 0, snap.Stats.SkippedRows)
}

func TestSession_PlainDescriptionsSkipReview(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Deps{Dictionaries: newDictionaries(), Committer: &mockCommitter{}}, nil)

	loadAndOpen(t, s, "plain.csv", "Date;Description;Amount\n"+
		"2024-03-15;Grocery store purchase;10\n"+
		"2024-03-16;Mobile phone topup;5\n")
	require.NoError(t, s.ApplyMapping(ctx, s.Snapshot().Mapping, ModePreview))

	assert.Equal(t, StatePreviewing, s.State())
	snap := s.Snapshot()
	assert.Empty(t, snap.ReviewItems)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, "", snap.Rows[0].City)
	assert.Equal(t, "Grocery store purchase", snap.Rows[0].Description)
}

func TestSession_DirectModeSkipsDuplicates(t *testing.T) {
	ctx := context.Background()

	existing := &mockExisting{}
	existing.On("ListExpenses", mock.Anything, "2024-03-15", "2024-03-16").Return([]models.ExistingExpense{
		{ID: "e1", ExpenseDate: "2024-03-15", Amount: decimal.RequireFromString("3.21"), Description: "bakery"},
	}, nil)

	committer := &mockCommitter{}
	committer.On("CommitExpenses", mock.Anything, mock.MatchedBy(func(p []models.ExpensePayload) bool {
		return len(p) == 1 && p[0].Description == "Pharmacy" && p[0].InputMethod == models.InputMethodBulkImport
	})).Return(models.CommitResult{Success: true, Stats: models.CommitStats{Success: 1, Total: 1}}, nil).Once()

	opts := DefaultOptions()
	opts.SkipDuplicates = true
	s := NewSession(Deps{
		Dictionaries: newDictionaries(),
		Committer:    committer,
		Existing:     existing,
		Options:      opts,
	}, nil)

	loadAndOpen(t, s, "plain.csv", plainCSV)
	require.NoError(t, s.ApplyMapping(ctx, s.Snapshot().Mapping, ModeDirect))

	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, 1, s.Snapshot().Stats.DuplicateRows)
	committer.AssertExpectations(t)
}

func TestSession_FailedCommitKeepsRowsAndRetries(t *testing.T) {
	ctx := context.Background()

	committer := &mockCommitter{}
	committer.On("CommitExpenses", mock.Anything, payloadCount(2)).
		Return(models.CommitResult{}, errors.New("connection reset")).Once()
	committer.On("CommitExpenses", mock.Anything, payloadCount(2)).
		Return(models.CommitResult{
			Success: false,
			Stats:   models.CommitStats{Success: 1, Failed: 1, Total: 2},
			Errors:  []models.CommitError{{Row: 2, Message: "amount too large"}},
		}, nil).Once()

	s := NewSession(Deps{Dictionaries: newDictionaries(), Committer: committer}, nil)
	loadAndOpen(t, s, "plain.csv", plainCSV)
	require.NoError(t, s.ApplyMapping(ctx, s.Snapshot().Mapping, ModePreview))
	require.Equal(t, StatePreviewing, s.State())

	err := s.Commit(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, StateFailed, s.State())
	snap := s.Snapshot()
	assert.Len(t, snap.Rows, 2)
	assert.Equal(t, "connection reset", snap.Error)

	require.NoError(t, s.Commit(ctx))
	assert.Equal(t, StateDone, s.State())
	snap = s.Snapshot()
	require.Len(t, snap.Result.Errors, 1)
	assert.Equal(t, 2, snap.Result.Errors[0].Row)
	committer.AssertExpectations(t)
}

func TestSession_Cancel(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Deps{Dictionaries: newDictionaries(), Committer: &mockCommitter{}}, nil)

	loadAndOpen(t, s, "bank.csv", bankCSV)
	require.NoError(t, s.ApplyMapping(ctx, s.Snapshot().Mapping, ModeDirect))
	require.Equal(t, StateReviewPending, s.State())

	require.NoError(t, s.Cancel())
	assert.Equal(t, StateMapping, s.State())
	assert.Empty(t, s.Snapshot().Rows)

	require.NoError(t, s.Cancel())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, s.Snapshot().ColumnCount)
}

func TestSession_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Deps{Dictionaries: newDictionaries()}, nil)

	assert.ErrorIs(t, s.Commit(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, s.OpenMapping(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, s.Confirm(ctx, nil), ErrInvalidTransition)
	assert.ErrorIs(t, s.ApplyMapping(ctx, nil, ModePreview), ErrInvalidTransition)
	_, err := s.UpdateRow("x", RowPatch{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, IsUserError(err))
}

func TestSession_LoadErrorsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Deps{}, nil)

	err := s.Load(ctx, "statement.xls", []byte{0xD0, 0xCF, 0x11, 0xE0}, factory.DefaultOptions())
	var unsupported *parsererror.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, StateIdle, s.State())

	err = s.Load(ctx, "empty.csv", []byte("Date;Amount\n"), factory.DefaultOptions())
	assert.ErrorIs(t, err, ErrNoRows)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_ApplyMappingValidation(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Deps{Dictionaries: newDictionaries()}, nil)
	loadAndOpen(t, s, "plain.csv", plainCSV)

	err := s.ApplyMapping(ctx, []models.ColumnMapping{col(0, models.FieldDate), col(1, models.FieldAmount)}, ModePreview)
	assert.ErrorIs(t, err, ErrIncompatibleMapping)

	err = s.ApplyMapping(ctx, []models.ColumnMapping{
		col(0, models.FieldDate), col(1, models.FieldDescription), col(2),
	}, ModePreview)
	var missing *mapping.MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []models.Field{models.FieldAmount}, missing.Fields)
	assert.Equal(t, StateMapping, s.State())
}

func TestSession_SavedMappingReused(t *testing.T) {
	ctx := context.Background()

	saved := []models.ColumnMapping{
		col(0, models.FieldDate),
		col(1, models.FieldNotes),
		col(2, models.FieldAmount, models.FieldDescription),
	}
	mappings := &mockMappings{}
	mappings.On("LoadMapping", mock.Anything).Return(saved, nil)

	s := NewSession(Deps{Dictionaries: newDictionaries(), Mappings: mappings}, nil)
	require.NoError(t, s.Load(ctx, "plain.csv", []byte(plainCSV), factory.DefaultOptions()))
	require.NoError(t, s.OpenMapping(ctx))

	snap := s.Snapshot()
	assert.True(t, snap.MappingReused)
	assert.Equal(t, []models.Field{models.FieldNotes}, snap.Mapping[1].TargetFields)
}

func TestSession_GridEdits(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Deps{Dictionaries: newDictionaries()}, nil)
	loadAndOpen(t, s, "plain.csv", plainCSV)
	require.NoError(t, s.ApplyMapping(ctx, s.Snapshot().Mapping, ModePreview))

	rows := s.Snapshot().Rows
	require.Len(t, rows, 2)

	amount, city, tod := "(4,10)", "minsk", "7:15"
	row, err := s.UpdateRow(rows[0].TempID, RowPatch{Amount: &amount, City: &city, ExpenseTime: &tod})
	require.NoError(t, err)
	assert.Equal(t, "4.1", row.Amount.String())
	assert.Equal(t, "Минск", row.City)
	assert.Equal(t, "07:15", *row.ExpenseTime)

	badDate := "someday"
	_, err = s.UpdateRow(rows[0].TempID, RowPatch{ExpenseDate: &badDate})
	var validation *parsererror.ValidationError
	require.True(t, errors.As(err, &validation))

	empty := ""
	_, err = s.UpdateRow(rows[0].TempID, RowPatch{Description: &empty})
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "Bakery", s.Snapshot().Rows[0].Description)

	require.NoError(t, s.RemoveRow(rows[1].TempID))
	assert.Len(t, s.Snapshot().Rows, 1)
	assert.ErrorIs(t, s.RemoveRow(rows[1].TempID), ErrRowNotFound)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePreview, m)

	m, err = ParseMode("direct")
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, m)

	_, err = ParseMode("later")
	assert.Error(t, err)
}
