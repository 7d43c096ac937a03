package models

import (
	"github.com/shopspring/decimal"
)

// InputMethodBulkImport marks expenses created by the import pipeline.
const InputMethodBulkImport = "bulk_import"

// BulkExpenseRow is one row ready for commit. Rows are editable in the
// review grid until they are committed.
type BulkExpenseRow struct {
	TempID      string          `json:"tempId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Notes       string          `json:"notes"`
	CategoryID  *string         `json:"category_id,omitempty"`
	ExpenseDate string          `json:"expense_date"`
	ExpenseTime *string         `json:"expense_time,omitempty"`
	City        string          `json:"city"`
	CityID      *string         `json:"city_id,omitempty"`

	// MatchedKeyword is the keyword or synonym literal that set CategoryID.
	MatchedKeyword string `json:"matched_keyword,omitempty"`
	// Duplicate is set when an existing expense has the same date,
	// description and an amount within tolerance.
	Duplicate bool `json:"duplicate"`
	// SourceRow is the zero-based data row the expense was built from.
	SourceRow int `json:"source_row"`
}

// Valid reports whether the row satisfies the emission rule: a positive
// amount and a non-empty description.
func (r BulkExpenseRow) Valid() bool {
	return r.Amount.IsPositive() && r.Description != ""
}

// ToPayload converts the row into the commit payload.
func (r BulkExpenseRow) ToPayload(inputMethod string) ExpensePayload {
	p := ExpensePayload{
		Amount:      r.Amount,
		Description: r.Description,
		Notes:       r.Notes,
		CategoryID:  r.CategoryID,
		ExpenseDate: r.ExpenseDate,
		ExpenseTime: r.ExpenseTime,
		CityID:      r.CityID,
		InputMethod: inputMethod,
	}
	if r.CityID == nil && r.City != "" {
		city := r.City
		p.CityInput = &city
	}
	return p
}

// ExpensePayload is the normalized record handed to the persistence layer.
type ExpensePayload struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Notes       string          `json:"notes"`
	CategoryID  *string         `json:"category_id,omitempty"`
	ExpenseDate string          `json:"expense_date"`
	ExpenseTime *string         `json:"expense_time,omitempty"`
	CityID      *string         `json:"city_id,omitempty"`
	CityInput   *string         `json:"city_input,omitempty"`
	InputMethod string          `json:"input_method"`
}

// CommitStats summarizes one bulk commit.
type CommitStats struct {
	Success       int `json:"success"`
	Failed        int `json:"failed"`
	Uncategorized int `json:"uncategorized"`
	Total         int `json:"total"`
}

// CommitError is a per-row failure. Row is one-based.
type CommitError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// CommitResult is the persistence layer's answer to a bulk commit.
type CommitResult struct {
	Success bool          `json:"success"`
	Stats   CommitStats   `json:"stats"`
	Errors  []CommitError `json:"errors,omitempty"`
}

// ExistingExpense is the subset of a stored expense the deduplicator needs.
type ExistingExpense struct {
	ID          string          `json:"id"`
	ExpenseDate string          `json:"expense_date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}
