package models

import (
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
)

// ImportStats is the aggregate outcome of one build pass. It is derived
// data, recomputed on every build and never persisted.
type ImportStats struct {
	TotalRows          int `json:"totalRows"`
	ImportedRows       int `json:"importedRows"`
	SkippedRows        int `json:"skippedRows"`
	AutoDetectedCities int `json:"autoDetectedCities"`
	ManualCities       int `json:"manualCities"`
	DetectedTimes      int `json:"detectedTimes"`
	ManualTimes        int `json:"manualTimes"`
	CategorizedRows    int `json:"categorizedRows"`
	DuplicateRows      int `json:"duplicateRows"`
}

// LogSummary logs the statistics at info level.
func (s ImportStats) LogSummary(logger logging.Logger, source string) {
	if logger == nil {
		return
	}

	logger.Info("Import build summary",
		logging.Field{Key: "source", Value: source},
		logging.Field{Key: "total_rows", Value: s.TotalRows},
		logging.Field{Key: "imported", Value: s.ImportedRows},
		logging.Field{Key: "skipped", Value: s.SkippedRows},
		logging.Field{Key: "auto_cities", Value: s.AutoDetectedCities},
		logging.Field{Key: "manual_cities", Value: s.ManualCities},
		logging.Field{Key: "detected_times", Value: s.DetectedTimes},
		logging.Field{Key: "manual_times", Value: s.ManualTimes},
		logging.Field{Key: "categorized", Value: s.CategorizedRows},
		logging.Field{Key: "duplicates", Value: s.DuplicateRows},
	)
}

// ImportRate returns the share of imported rows as a percentage.
func (s ImportStats) ImportRate() float64 {
	if s.TotalRows == 0 {
		return 0.0
	}
	return float64(s.ImportedRows) / float64(s.TotalRows) * 100.0
}
