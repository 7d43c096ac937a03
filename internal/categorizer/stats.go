package categorizer

import (
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
)

// Stats tracks categorization outcomes over one import.
type Stats struct {
	Total         int // Rows offered to the strategy
	Successful    int // Rows that matched a keyword
	Uncategorized int // Rows left without a category
}

// LogSummary logs a summary of categorization statistics
func (cs Stats) LogSummary(logger logging.Logger, source string) {
	if logger == nil {
		return
	}

	logger.Info("Categorization summary",
		logging.F(logging.FieldFile, source),
		logging.F("total_rows", cs.Total),
		logging.F("successful", cs.Successful),
		logging.F("uncategorized", cs.Uncategorized),
		logging.F("success_rate", cs.SuccessRate()),
	)
}

// SuccessRate calculates the success rate as a percentage
func (cs Stats) SuccessRate() float64 {
	if cs.Total == 0 {
		return 0.0
	}
	return float64(cs.Successful) / float64(cs.Total) * 100.0
}

// IncrementTotal increments the total row count
func (cs *Stats) IncrementTotal() {
	cs.Total++
}

// IncrementSuccessful increments the matched row count
func (cs *Stats) IncrementSuccessful() {
	cs.Successful++
}

// IncrementUncategorized increments the uncategorized count
func (cs *Stats) IncrementUncategorized() {
	cs.Uncategorized++
}
