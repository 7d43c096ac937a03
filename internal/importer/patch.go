package importer

import (
	"fmt"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/currencyutils"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/dateutils"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parsererror"
)

// applyPatch validates patch and writes it into row. The row is left
// unchanged when any field is invalid.
func applyPatch(row *models.BulkExpenseRow, patch RowPatch, builder *Builder) error {
	updated := *row
	subject := fmt.Sprintf("row %s", row.TempID)

	if patch.Amount != nil {
		amount, err := currencyutils.ParseAmount(*patch.Amount)
		if err != nil {
			return &parsererror.ValidationError{Subject: subject, Reason: fmt.Sprintf("invalid amount %q", *patch.Amount)}
		}
		updated.Amount = amount.Abs()
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Notes != nil {
		updated.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.CategoryID != nil {
		updated.MatchedKeyword = ""
		if id := strings.TrimSpace(*patch.CategoryID); id != "" {
			updated.CategoryID = &id
		} else {
			updated.CategoryID = nil
		}
	}
	if patch.ExpenseDate != nil {
		date, _, ok := dateutils.TryParseDateTime(*patch.ExpenseDate)
		if !ok {
			return &parsererror.ValidationError{Subject: subject, Reason: fmt.Sprintf("invalid date %q", *patch.ExpenseDate)}
		}
		updated.ExpenseDate = date
	}
	if patch.ExpenseTime != nil {
		if strings.TrimSpace(*patch.ExpenseTime) == "" {
			updated.ExpenseTime = nil
		} else {
			tod, ok := dateutils.ParseTime(*patch.ExpenseTime)
			if !ok {
				return &parsererror.ValidationError{Subject: subject, Reason: fmt.Sprintf("invalid time %q", *patch.ExpenseTime)}
			}
			updated.ExpenseTime = &tod
		}
	}
	if patch.City != nil {
		city := strings.TrimSpace(*patch.City)
		switch {
		case city == "":
			updated.City = ""
			updated.CityID = nil
		case builder != nil:
			builder.applyCity(&updated, city)
		default:
			updated.City = city
			updated.CityID = nil
		}
	}

	if !updated.Valid() {
		return &parsererror.ValidationError{Subject: subject, Reason: "amount must be positive and description non-empty"}
	}
	*row = updated
	return nil
}
