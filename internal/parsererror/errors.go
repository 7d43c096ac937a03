// Package parsererror defines the typed errors returned by the format parsers
// and the import pipeline. Callers inspect them with errors.As.
package parsererror

import (
	"fmt"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// ParseError represents an error during parsing of a single value.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure of one payload or input.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}

// InvalidFormatError represents an error where the input does not conform
// to the expected format for a specific parser.
type InvalidFormatError struct {
	Source               string
	ExpectedFormat       string
	ActualContentSnippet string // Optional: a snippet of the actual content for debugging
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in '%s': %s. Expected: %s. Content snippet: '%s'",
			e.Source, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in '%s': %s. Expected: %s",
		e.Source, e.Msg, e.ExpectedFormat)
}

// DataExtractionError represents an error where required data could not be
// extracted, even if the format itself looks valid.
type DataExtractionError struct {
	Source         string
	FieldName      string
	RawDataSnippet string // Optional: a snippet of the raw data where extraction failed
	Reason         string
	Msg            string
}

func (e *DataExtractionError) Error() string {
	if e.RawDataSnippet != "" {
		return fmt.Sprintf("data extraction failed in '%s' for field '%s': %s. Reason: %s. Raw data snippet: '%s'",
			e.Source, e.FieldName, e.Msg, e.Reason, e.RawDataSnippet)
	}
	return fmt.Sprintf("data extraction failed in '%s' for field '%s': %s. Reason: %s",
		e.Source, e.FieldName, e.Msg, e.Reason)
}

// UnsupportedFormatError is returned for inputs the pipeline refuses to read,
// such as binary spreadsheets. Guidance is shown to the user verbatim.
type UnsupportedFormatError struct {
	Format   string
	Guidance string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %s: %s", e.Format, e.Guidance)
}

// TableSelectionError is returned when a multi-table source needs the caller
// to pick one of the discovered tables.
type TableSelectionError struct {
	Tables []models.TableInfo
}

func (e *TableSelectionError) Error() string {
	return fmt.Sprintf("found %d tables, select one with a table index", len(e.Tables))
}
