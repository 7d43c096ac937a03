// Package export writes built expense rows to CSV for offline review.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter separates exported fields unless configured otherwise.
const DefaultDelimiter = ','

// Record is the CSV shape of one expense row.
type Record struct {
	Date           string `csv:"Date"`
	Time           string `csv:"Time"`
	Amount         string `csv:"Amount"`
	Description    string `csv:"Description"`
	City           string `csv:"City"`
	CityID         string `csv:"CityID"`
	CategoryID     string `csv:"CategoryID"`
	MatchedKeyword string `csv:"MatchedKeyword"`
	Notes          string `csv:"Notes"`
	Duplicate      bool   `csv:"Duplicate"`
	SourceRow      int    `csv:"SourceRow"`
}

// FromRow converts a built row. Amounts keep two decimal places.
func FromRow(row models.BulkExpenseRow) Record {
	return Record{
		Date:           row.ExpenseDate,
		Time:           deref(row.ExpenseTime),
		Amount:         row.Amount.StringFixed(2),
		Description:    row.Description,
		City:           row.City,
		CityID:         deref(row.CityID),
		CategoryID:     deref(row.CategoryID),
		MatchedKeyword: row.MatchedKeyword,
		Notes:          row.Notes,
		Duplicate:      row.Duplicate,
		SourceRow:      row.SourceRow + 1,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Write marshals rows as CSV with a header line.
func Write(w io.Writer, rows []models.BulkExpenseRow, delimiter rune) error {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, FromRow(row))
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(records, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, creating its directory.
func WriteFile(path string, rows []models.BulkExpenseRow, delimiter rune, logger logging.Logger) error {
	logger = logging.OrDefault(logger)

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := Write(file, rows, delimiter); err != nil {
		return err
	}

	logger.Info("Wrote expense rows to CSV file",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldCount, len(rows)))
	return nil
}
