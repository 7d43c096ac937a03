// Package dedup flags imported rows that repeat an expense already stored.
package dedup

import (
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/currencyutils"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the largest amount difference still treated as equal.
var DefaultTolerance = decimal.NewFromFloat(0.01)

// Checker matches rows against existing expenses. Existing records are
// indexed by date so each lookup only compares same-day expenses.
type Checker struct {
	byDate    map[string][]models.ExistingExpense
	tolerance decimal.Decimal
	logger    logging.Logger
}

// New indexes existing. A negative tolerance is replaced by DefaultTolerance.
func New(existing []models.ExistingExpense, tolerance decimal.Decimal, logger logging.Logger) *Checker {
	if tolerance.IsNegative() {
		tolerance = DefaultTolerance
	}
	c := &Checker{
		byDate:    make(map[string][]models.ExistingExpense),
		tolerance: tolerance,
		logger:    logging.OrDefault(logger),
	}
	for _, e := range existing {
		c.byDate[e.ExpenseDate] = append(c.byDate[e.ExpenseDate], e)
	}
	return c
}

// Find returns the existing expense row duplicates. Two records are
// duplicates when they share the date, their amounts differ by at most the
// tolerance and their descriptions are equal after trimming and case folding.
func (c *Checker) Find(row models.BulkExpenseRow) (models.ExistingExpense, bool) {
	candidates := c.byDate[row.ExpenseDate]
	if len(candidates) == 0 {
		return models.ExistingExpense{}, false
	}

	key := descriptionKey(row.Description)
	for _, e := range candidates {
		if !currencyutils.WithinTolerance(row.Amount, e.Amount, c.tolerance) {
			continue
		}
		if descriptionKey(e.Description) != key {
			continue
		}
		return e, true
	}
	return models.ExistingExpense{}, false
}

// IsDuplicate reports whether row repeats an existing expense.
func (c *Checker) IsDuplicate(row models.BulkExpenseRow) bool {
	_, ok := c.Find(row)
	return ok
}

// Mark sets Duplicate on every row and returns how many were flagged. Rows
// are never removed here.
func (c *Checker) Mark(rows []models.BulkExpenseRow) int {
	flagged := 0
	for i := range rows {
		existing, dup := c.Find(rows[i])
		rows[i].Duplicate = dup
		if !dup {
			continue
		}
		flagged++
		c.logger.Debug("Potential duplicate expense",
			logging.F("date", rows[i].ExpenseDate),
			logging.F("amount", rows[i].Amount.String()),
			logging.F("existing_id", existing.ID))
	}
	if flagged > 0 {
		c.logger.Warn("Found potential duplicate expenses", logging.F(logging.FieldCount, flagged))
	}
	return flagged
}

func descriptionKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
