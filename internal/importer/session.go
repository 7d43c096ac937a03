package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/categorizer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/cityresolver"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/dedup"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/factory"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/mapping"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/normalizer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parser"

	"github.com/google/uuid"
)

// State is a step of the import state machine.
type State string

const (
	StateIdle          State = "Idle"
	StateLoaded        State = "Loaded"
	StateMapping       State = "Mapping"
	StatePreviewing    State = "Previewing"
	StateDirectSaving  State = "DirectSaving"
	StateReviewPending State = "ReviewPending"
	StateCommitting    State = "Committing"
	StateDone          State = "Done"
	StateFailed        State = "Failed"
)

// Mode selects what happens to built rows once review is over.
type Mode string

const (
	// ModePreview appends rows to the editable grid.
	ModePreview Mode = "preview"
	// ModeDirect commits rows straight away.
	ModeDirect Mode = "direct"
)

// ParseMode returns the Mode named s; empty means preview.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePreview:
		return ModePreview, nil
	case ModeDirect:
		return ModeDirect, nil
	default:
		return "", fmt.Errorf("unknown import mode %q", s)
	}
}

// Session is one user's import. All methods are safe for concurrent use;
// operations on one session are serialized.
type Session struct {
	mu     sync.Mutex
	id     string
	deps   Deps
	logger logging.Logger

	state      State
	mode       Mode
	source     string
	parserType parser.ParserType
	table      normalizer.Table
	editor     *mapping.Editor
	reused     bool

	builder *Builder
	pending *BuildResult
	grid    []models.BulkExpenseRow
	stats   models.ImportStats

	result    *models.CommitResult
	lastError string
	updatedAt time.Time
}

// NewSession returns an idle session.
func NewSession(deps Deps, logger logging.Logger) *Session {
	if deps.Options.InputMethod == "" {
		deps.Options = DefaultOptions()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		deps:      deps,
		logger:    logging.OrDefault(logger).WithField(logging.FieldSession, id),
		state:     StateIdle,
		updatedAt: time.Now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UpdatedAt returns the time of the last transition or edit.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Load parses data and moves to Loaded. Parse failures leave the session
// untouched. Rows already in the grid are kept when loading from
// Previewing, so several files can be gathered before one commit.
func (s *Session) Load(ctx context.Context, name string, data []byte, opts factory.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("load", StateIdle, StateLoaded, StatePreviewing, StateDone); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, parserType, err := factory.Parse(name, data, opts, s.logger)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", displayName(name), err)
	}
	table := normalizer.Normalize(raw)
	if len(table.Rows) == 0 {
		return fmt.Errorf("%s: %w", displayName(name), ErrNoRows)
	}

	if s.state != StatePreviewing {
		s.grid = nil
	}
	s.source = name
	s.parserType = parserType
	s.table = table
	s.editor = nil
	s.pending = nil
	s.result = nil
	s.lastError = ""
	s.logger.Info("Input loaded",
		logging.F(logging.FieldInputFile, name),
		logging.F(logging.FieldParser, parserType),
		logging.F(logging.FieldCount, len(table.Rows)),
		logging.F(logging.FieldColumns, table.ColumnCount))
	s.transition(StateLoaded)
	return nil
}

// OpenMapping prepares the mapping editor from the saved mapping when it
// fits the table, from header and content hints otherwise.
func (s *Session) OpenMapping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("open mapping", StateLoaded, StateMapping); err != nil {
		return err
	}

	var saved []models.ColumnMapping
	if s.deps.Mappings != nil {
		var err error
		saved, err = s.deps.Mappings.LoadMapping(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load saved mapping")
		}
	}

	editor, reused := mapping.Load(saved, s.table.ColumnCount)
	if !reused {
		editor = mapping.Suggest(s.table.Header, s.table.Rows, s.table.ColumnCount)
		if len(saved) > 0 {
			s.logger.Info("Saved mapping ignored",
				logging.F("saved_columns", len(saved)),
				logging.F(logging.FieldColumns, s.table.ColumnCount))
		}
	}
	s.editor = editor
	s.reused = reused
	s.transition(StateMapping)
	return nil
}

// ApplyMapping validates and saves columns, builds the rows and moves to
// Previewing or DirectSaving. Rows with review items stop in
// ReviewPending until Confirm; otherwise the mode's action runs at once.
func (s *Session) ApplyMapping(ctx context.Context, columns []models.ColumnMapping, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("apply mapping", StateMapping); err != nil {
		return err
	}

	editor, ok := mapping.Load(columns, s.table.ColumnCount)
	if !ok {
		return fmt.Errorf("%w: got %d columns, table has %d", ErrIncompatibleMapping, len(columns), s.table.ColumnCount)
	}
	if err := editor.Validate(); err != nil {
		return err
	}
	columns = editor.Serialize(firstRow(s.table))
	if mode != ModeDirect {
		mode = ModePreview
	}

	builder, err := s.loadBuilder(ctx)
	if err != nil {
		return err
	}

	if s.deps.Mappings != nil {
		if err := s.deps.Mappings.SaveMapping(ctx, columns); err != nil {
			s.logger.WithError(err).Warn("Failed to save mapping")
		}
	}

	result := builder.Build(s.table, columns)
	s.markDuplicates(ctx, &result)
	result.Stats.LogSummary(s.logger, s.source)

	s.editor = editor
	s.builder = builder
	s.mode = mode
	s.pending = &result
	s.stats = result.Stats

	if mode == ModeDirect {
		s.transition(StateDirectSaving)
	} else {
		s.transition(StatePreviewing)
	}

	if len(result.ReviewItems) > 0 {
		s.transition(StateReviewPending)
		return nil
	}
	return s.finish(ctx)
}

// Confirm applies review decisions and continues with the mode's action.
func (s *Session) Confirm(ctx context.Context, decisions []models.ReviewDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("confirm", StateReviewPending); err != nil {
		return err
	}
	if err := s.builder.applyDecisions(s.pending, decisions); err != nil {
		return err
	}
	s.stats = s.pending.Stats
	if s.mode == ModeDirect {
		s.transition(StateDirectSaving)
	} else {
		s.transition(StatePreviewing)
	}
	return s.finish(ctx)
}

// finish runs the mode's action on the pending rows.
func (s *Session) finish(ctx context.Context) error {
	rows := s.pending.Rows
	s.pending = nil
	s.grid = append(s.grid, rows...)
	if s.mode == ModeDirect {
		return s.commit(ctx)
	}
	return nil
}

// Cancel leaves review for the mapping step, and discards the import from
// any other state. A running commit cannot be cancelled.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCommitting:
		return fmt.Errorf("%w: cannot cancel while committing", ErrInvalidTransition)
	case StateReviewPending:
		s.pending = nil
		s.transition(StateMapping)
	default:
		s.reset()
		s.transition(StateIdle)
	}
	return nil
}

// Commit sends the grid to the committer. It is also the retry after a
// failed commit, which keeps every row.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("commit", StatePreviewing, StateFailed); err != nil {
		return err
	}
	return s.commit(ctx)
}

func (s *Session) commit(ctx context.Context) error {
	if s.deps.Committer == nil {
		s.lastError = ErrNoCommitter.Error()
		s.transition(StateFailed)
		return ErrNoCommitter
	}

	rows := make([]models.BulkExpenseRow, 0, len(s.grid))
	for _, row := range s.grid {
		if s.deps.Options.SkipDuplicates && row.Duplicate {
			continue
		}
		rows = append(rows, row)
	}
	payloads := make([]models.ExpensePayload, len(rows))
	for i, row := range rows {
		payloads[i] = row.ToPayload(s.deps.Options.InputMethod)
	}

	s.transition(StateCommitting)
	start := time.Now()
	result, err := s.deps.Committer.CommitExpenses(ctx, payloads)
	if err != nil {
		s.lastError = err.Error()
		s.logger.WithError(err).Error("Commit failed", logging.F(logging.FieldCount, len(payloads)))
		s.transition(StateFailed)
		return fmt.Errorf("failed to commit expenses: %w", err)
	}

	s.result = &result
	s.lastError = ""
	s.logger.Info("Expenses committed",
		logging.F(logging.FieldCount, result.Stats.Success),
		logging.F("failed", result.Stats.Failed),
		logging.F("uncategorized", result.Stats.Uncategorized),
		logging.F(logging.FieldDuration, time.Since(start).String()))

	s.flushUnrecognized(ctx, rows, result.Errors)
	s.grid = nil
	s.transition(StateDone)
	return nil
}

// flushUnrecognized records cities of stored rows that are not in the
// catalog. Tracker failures are logged; the commit already happened.
func (s *Session) flushUnrecognized(ctx context.Context, rows []models.BulkExpenseRow, failures []models.CommitError) {
	if s.deps.Tracker == nil {
		return
	}
	failed := make(map[int]bool, len(failures))
	for _, f := range failures {
		failed[f.Row-1] = true
	}

	tally := cityresolver.NewTally()
	for i, row := range rows {
		if failed[i] || row.CityID != nil || row.City == "" {
			continue
		}
		tally.Add(row.City)
	}
	if tally.Len() == 0 {
		return
	}
	if err := tally.Flush(ctx, s.deps.Tracker); err != nil {
		s.logger.WithError(err).Warn("Failed to record unrecognized cities")
	}
}

// RowPatch is a partial update of a grid row. Nil fields are unchanged;
// an empty CategoryID, ExpenseTime or City clears the value.
type RowPatch struct {
	Amount      *string `json:"amount,omitempty"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	ExpenseDate *string `json:"expense_date,omitempty"`
	ExpenseTime *string `json:"expense_time,omitempty"`
	City        *string `json:"city,omitempty"`
}

// UpdateRow edits the grid row with tempID.
func (s *Session) UpdateRow(tempID string, patch RowPatch) (models.BulkExpenseRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("update row", StatePreviewing, StateFailed); err != nil {
		return models.BulkExpenseRow{}, err
	}
	i := s.rowIndex(tempID)
	if i < 0 {
		return models.BulkExpenseRow{}, fmt.Errorf("%w: %s", ErrRowNotFound, tempID)
	}

	row := s.grid[i]
	if err := applyPatch(&row, patch, s.builder); err != nil {
		return models.BulkExpenseRow{}, err
	}
	s.grid[i] = row
	s.touch()
	return row, nil
}

// RemoveRow drops the grid row with tempID.
func (s *Session) RemoveRow(tempID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require("remove row", StatePreviewing, StateFailed); err != nil {
		return err
	}
	i := s.rowIndex(tempID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, tempID)
	}
	s.grid = append(s.grid[:i], s.grid[i+1:]...)
	s.touch()
	return nil
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID            string                  `json:"id"`
	State         State                   `json:"state"`
	Mode          Mode                    `json:"mode,omitempty"`
	Source        string                  `json:"source,omitempty"`
	Format        parser.ParserType       `json:"format,omitempty"`
	Header        []string                `json:"header,omitempty"`
	HasHeader     bool                    `json:"hasHeader"`
	SampleRows    [][]string              `json:"sampleRows,omitempty"`
	ColumnCount   int                     `json:"columnCount"`
	Mapping       []models.ColumnMapping  `json:"mapping,omitempty"`
	Labels        map[int]string          `json:"labels,omitempty"`
	Slots         []mapping.Slot          `json:"slots,omitempty"`
	MappingReused bool                    `json:"mappingReused"`
	Rows          []models.BulkExpenseRow `json:"rows"`
	ReviewItems   []models.ReviewItem     `json:"reviewItems,omitempty"`
	Stats         models.ImportStats      `json:"stats"`
	Result        *models.CommitResult    `json:"result,omitempty"`
	Error         string                  `json:"error,omitempty"`
}

const sampleSize = 5

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.id,
		State:         s.state,
		Mode:          s.mode,
		Source:        s.source,
		Format:        s.parserType,
		Header:        s.table.Header,
		HasHeader:     s.table.HasHeader,
		ColumnCount:   s.table.ColumnCount,
		MappingReused: s.reused,
		Stats:         s.stats,
		Result:        s.result,
		Error:         s.lastError,
	}
	if n := len(s.table.Rows); n > 0 {
		if n > sampleSize {
			n = sampleSize
		}
		snap.SampleRows = s.table.Rows[:n]
	}
	if s.editor != nil {
		snap.Mapping = s.editor.Serialize(firstRow(s.table))
		snap.Slots = s.editor.Slots()
		snap.Labels = make(map[int]string)
		for _, col := range s.editor.VisibleColumns() {
			snap.Labels[col] = s.editor.Label(col)
		}
	}
	if s.pending != nil {
		snap.Rows = append([]models.BulkExpenseRow(nil), s.pending.Rows...)
		snap.ReviewItems = s.pending.ReviewItems
	} else {
		snap.Rows = append([]models.BulkExpenseRow(nil), s.grid...)
	}
	if snap.Rows == nil {
		snap.Rows = []models.BulkExpenseRow{}
	}
	return snap
}

// loadBuilder loads the dictionaries, keywords first, and builds the
// categorizer and city resolver for this run.
func (s *Session) loadBuilder(ctx context.Context) (*Builder, error) {
	if s.deps.Dictionaries == nil {
		return NewBuilder(nil, nil, s.deps.Options, s.logger), nil
	}
	keywords, err := categorizer.LoadKeywordStrategy(ctx, s.deps.Dictionaries, s.logger)
	if err != nil {
		return nil, err
	}
	cities, err := s.deps.Dictionaries.LoadCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cities: %w", err)
	}
	return NewBuilder(keywords, cityresolver.New(cities, s.logger), s.deps.Options, s.logger), nil
}

// markDuplicates flags rows that repeat stored expenses in the same date
// range. Lookup failures leave every row unflagged.
func (s *Session) markDuplicates(ctx context.Context, result *BuildResult) {
	if s.deps.Existing == nil || len(result.Rows) == 0 {
		return
	}
	from, to := result.Rows[0].ExpenseDate, result.Rows[0].ExpenseDate
	for _, row := range result.Rows[1:] {
		if row.ExpenseDate < from {
			from = row.ExpenseDate
		}
		if row.ExpenseDate > to {
			to = row.ExpenseDate
		}
	}
	existing, err := s.deps.Existing.ListExpenses(ctx, from, to)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load existing expenses for duplicate check")
		return
	}
	checker := dedup.New(existing, s.deps.Options.DuplicateTolerance, s.logger)
	result.Stats.DuplicateRows = checker.Mark(result.Rows)
}

func (s *Session) require(op string, allowed ...State) error {
	for _, st := range allowed {
		if s.state == st {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidTransition, op, s.state)
}

func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	s.touch()
	s.logger.Debug("Import state changed", logging.F("from", from), logging.F(logging.FieldState, to))
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

func (s *Session) reset() {
	s.mode = ""
	s.source = ""
	s.parserType = ""
	s.table = normalizer.Table{}
	s.editor = nil
	s.reused = false
	s.builder = nil
	s.pending = nil
	s.grid = nil
	s.stats = models.ImportStats{}
	s.result = nil
	s.lastError = ""
}

func (s *Session) rowIndex(tempID string) int {
	for i, row := range s.grid {
		if row.TempID == tempID {
			return i
		}
	}
	return -1
}

func firstRow(t normalizer.Table) []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

func displayName(name string) string {
	if name == "" {
		return "pasted input"
	}
	return name
}

// IsUserError reports whether err comes from bad input rather than a
// failing collaborator.
func IsUserError(err error) bool {
	var missing *mapping.MissingFieldsError
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrIncompatibleMapping) ||
		errors.Is(err, ErrNoRows) ||
		errors.Is(err, ErrRowNotFound) ||
		errors.As(err, &missing)
}
