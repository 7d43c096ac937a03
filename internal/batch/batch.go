// Package batch gathers the statement files of a directory into one import
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// Extensions are the file extensions read as statements.
var Extensions = []string{
	".csv", ".tsv", ".txt",
	".htm", ".html", ".mht",
	".ofx", ".qfx",
	".xls", ".xlsx", ".xlsm", ".ods",
}

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format("2006-01-02"),
		dr.End.Format("2006-01-02"))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start := dr.Start
	end := dr.End

	if dr.Start.IsZero() {
		start = other.Start
	} else if !other.Start.IsZero() && other.Start.Before(start) {
		start = other.Start
	}

	if dr.End.IsZero() {
		end = other.End
	} else if !other.End.IsZero() && other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// RangeOf returns the span of the rows' expense dates. Rows with an
// unparseable date are ignored.
func RangeOf(rows []models.BulkExpenseRow) DateRange {
	var dr DateRange
	for _, row := range rows {
		day, err := time.Parse("2006-01-02", row.ExpenseDate)
		if err != nil {
			continue
		}
		dr = dr.Merge(DateRange{Start: day, End: day})
	}
	return dr
}

// OutputFilename names the export of a batch: {prefix}_{start}_{end}.csv,
// or {prefix}.csv without a date range.
func OutputFilename(prefix string, dr DateRange) string {
	if prefix == "" {
		prefix = "expenses"
	}
	if s := dr.String(); s != "" {
		return fmt.Sprintf("%s_%s.csv", prefix, s)
	}
	return prefix + ".csv"
}

// ListStatements returns the statement files directly inside dir, sorted by
// name. Hidden files and subdirectories are skipped.
func ListStatements(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if isStatement(name) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

func isStatement(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FileFunc brings one file into the shared import.
type FileFunc func(ctx context.Context, file string) error

// Result lists the files gathered so far.
type Result struct {
	Files []string
}

// Aggregator feeds files one after another into a single import
type Aggregator struct {
	logger logging.Logger
}

// NewAggregator creates a new Aggregator instance
func NewAggregator(logger logging.Logger) *Aggregator {
	return &Aggregator{logger: logging.OrDefault(logger)}
}

// Gather calls load for every file in order. It stops at the first failure,
// since the import then waits on that file; the error names it.
func (a *Aggregator) Gather(ctx context.Context, files []string, load FileFunc) (Result, error) {
	var res Result
	if len(files) == 0 {
		return res, fmt.Errorf("no statement files to import")
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		a.logger.Info("Processing file",
			logging.F(logging.FieldFile, filepath.Base(file)),
			logging.F("position", fmt.Sprintf("%d/%d", i+1, len(files))))

		if err := load(ctx, file); err != nil {
			return res, fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
		res.Files = append(res.Files, file)
	}

	a.logger.Info("Gathered statement files", logging.F(logging.FieldCount, len(res.Files)))
	return res, nil
}
