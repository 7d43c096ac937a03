// Package importer drives one import from raw bytes to committed expenses:
// parse, normalize, map, build rows, review and commit.
package importer

import (
	"context"
	"errors"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/cityresolver"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/dedup"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransition   = errors.New("invalid import state transition")
	ErrIncompatibleMapping = errors.New("mapping does not match the table columns")
	ErrNoRows              = errors.New("table has no data rows")
	ErrRowNotFound         = errors.New("row not found")
	ErrSessionNotFound     = errors.New("import session not found")
	ErrNoCommitter         = errors.New("no committer configured")
)

// Options holds the tunables of the build and commit steps.
type Options struct {
	// AutoAcceptThreshold is the confidence from which an extracted city is
	// applied to the row before review.
	AutoAcceptThreshold float64
	// NoReviewThreshold is the confidence above which no review item is
	// raised. Scores are capped at 1.0, so the default reviews everything.
	NoReviewThreshold  float64
	DuplicateTolerance decimal.Decimal
	SkipDuplicates     bool
	InputMethod        string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		AutoAcceptThreshold: 0.5,
		NoReviewThreshold:   1.0,
		DuplicateTolerance:  dedup.DefaultTolerance,
		InputMethod:         models.InputMethodBulkImport,
	}
}

// Dictionaries supplies the catalogs a build needs. Keywords come most
// recently created first.
type Dictionaries interface {
	LoadKeywords(ctx context.Context) ([]models.Keyword, error)
	LoadCities(ctx context.Context) ([]models.City, error)
}

// Committer persists expenses in bulk. Per-row validation failures are
// reported in the result; a returned error means the whole call failed.
type Committer interface {
	CommitExpenses(ctx context.Context, payloads []models.ExpensePayload) (models.CommitResult, error)
}

// UnrecognizedCityTracker records city names missing from the catalog.
type UnrecognizedCityTracker interface {
	cityresolver.Tracker
}

// ExistingExpenses lists stored expenses dated between from and to
// inclusive, both YYYY-MM-DD.
type ExistingExpenses interface {
	ListExpenses(ctx context.Context, from, to string) ([]models.ExistingExpense, error)
}

// MappingStore persists the last column mapping the user applied.
type MappingStore interface {
	LoadMapping(ctx context.Context) ([]models.ColumnMapping, error)
	SaveMapping(ctx context.Context, columns []models.ColumnMapping) error
}

// Deps are the collaborators of a session. Only Dictionaries and Committer
// are required.
type Deps struct {
	Dictionaries Dictionaries
	Committer    Committer
	Tracker      UnrecognizedCityTracker
	Existing     ExistingExpenses
	Mappings     MappingStore
	Options      Options
}
