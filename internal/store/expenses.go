package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/google/uuid"
)

// CommitExpenses validates and stores each payload. A payload that fails
// validation or insertion is reported in the result's errors with its
// one-based position; the remaining payloads are still stored. The returned
// error is reserved for failures of the database itself.
func (db *DB) CommitExpenses(ctx context.Context, payloads []models.ExpensePayload) (models.CommitResult, error) {
	result := models.CommitResult{Stats: models.CommitStats{Total: len(payloads)}}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.CommitResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, p := range payloads {
		if err := validatePayload(ctx, tx, p); err != nil {
			result.Errors = append(result.Errors, models.CommitError{Row: i + 1, Message: err.Error()})
			result.Stats.Failed++
			continue
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, amount, description, notes, category_id, expense_date, expense_time,
				city_id, city_input, input_method, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), p.Amount.String(), strings.TrimSpace(p.Description), p.Notes, p.CategoryID,
			p.ExpenseDate, p.ExpenseTime, p.CityID, p.CityInput, inputMethod(p), db.now())
		if err != nil {
			result.Errors = append(result.Errors, models.CommitError{Row: i + 1, Message: fmt.Sprintf("insert expense: %v", err)})
			result.Stats.Failed++
			continue
		}

		result.Stats.Success++
		if p.CategoryID == nil {
			result.Stats.Uncategorized++
		}
	}

	if err := tx.Commit(); err != nil {
		return models.CommitResult{}, fmt.Errorf("commit expenses: %w", err)
	}

	result.Success = result.Stats.Failed == 0
	db.logger.WithFields(
		logging.F("success", result.Stats.Success),
		logging.F("failed", result.Stats.Failed),
		logging.F("uncategorized", result.Stats.Uncategorized),
	).Info("Committed expenses")
	return result, nil
}

func validatePayload(ctx context.Context, q rowQuerier, p models.ExpensePayload) error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := time.Parse("2006-01-02", p.ExpenseDate); err != nil {
		return fmt.Errorf("invalid expense date %q", p.ExpenseDate)
	}
	if p.ExpenseTime != nil {
		if _, err := time.Parse("15:04", *p.ExpenseTime); err != nil {
			return fmt.Errorf("invalid expense time %q", *p.ExpenseTime)
		}
	}
	if p.CategoryID != nil {
		if err := requireCategory(ctx, q, *p.CategoryID); err != nil {
			return err
		}
	}
	if p.CityID != nil {
		if err := requireCity(ctx, q, *p.CityID); err != nil {
			return err
		}
	}
	return nil
}

func inputMethod(p models.ExpensePayload) string {
	if p.InputMethod == "" {
		return models.InputMethodBulkImport
	}
	return p.InputMethod
}

// ListExpenses returns stored expenses dated between from and to inclusive.
// Empty bounds are open.
func (db *DB) ListExpenses(ctx context.Context, from, to string) ([]models.ExistingExpense, error) {
	query := `SELECT id, expense_date, amount, description FROM expenses WHERE 1=1`
	var args []interface{}

	if from != "" {
		query += " AND expense_date >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND expense_date <= ?"
		args = append(args, to)
	}
	query += " ORDER BY expense_date, rowid"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.ExistingExpense
	for rows.Next() {
		var e models.ExistingExpense
		if err := rows.Scan(&e.ID, &e.ExpenseDate, &e.Amount, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
