package mapping

import (
	"strings"
	"unicode"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/currencyutils"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/dateutils"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// sampleRows bounds how many data rows content-based suggestion inspects.
const sampleRows = 10

type headerHint struct {
	field    models.Field
	keywords []string
}

// headerHints is checked in order and each header cell takes at most one
// field, so "Сумма операции" becomes amount rather than description.
var headerHints = []headerHint{
	{models.FieldDate, []string{"date", "дата", "datum", "fecha"}},
	{models.FieldTime, []string{"time", "время", "час", "zeit", "heure"}},
	{models.FieldAmount, []string{"amount", "sum", "сумма", "betrag", "montant", "importe"}},
	{models.FieldDescription, []string{"description", "details", "merchant", "payee", "описание", "назначение", "операци", "beschreibung", "libellé"}},
	{models.FieldCity, []string{"city", "город", "горад", "место", "stadt", "ville"}},
	{models.FieldNotes, []string{"note", "comment", "memo", "примечание", "комментарий", "заметка", "notiz", "remarque"}},
}

// Suggest pre-assigns fields for a table that has no saved mapping. Header
// keywords are used when a header was detected, cell contents otherwise.
func Suggest(header []string, rows [][]string, columnCount int) *Editor {
	e := NewEditor(columnCount)
	if len(header) > 0 {
		suggestFromHeader(e, header)
	}
	if _, ok := e.assigned[models.FieldAmount]; !ok || len(header) == 0 {
		suggestFromData(e, rows)
	}
	return e
}

func suggestFromHeader(e *Editor, header []string) {
	taken := make(map[int]bool)
	for _, hint := range headerHints {
		for col, cell := range header {
			if col >= e.columnCount || taken[col] {
				continue
			}
			if containsAny(strings.ToLower(cell), hint.keywords) {
				e.assigned[hint.field] = col
				taken[col] = true
				break
			}
		}
	}
}

// suggestFromData fills date, amount and description from cell contents,
// leaving fields already assigned alone.
func suggestFromData(e *Editor, rows [][]string) {
	if len(rows) > sampleRows {
		rows = rows[:sampleRows]
	}
	if len(rows) == 0 {
		return
	}

	used := make(map[int]bool)
	for _, col := range e.assigned {
		used[col] = true
	}

	majority := func(col int, pred func(string) bool) bool {
		hits, filled := 0, 0
		for _, row := range rows {
			if col >= len(row) || strings.TrimSpace(row[col]) == "" {
				continue
			}
			filled++
			if pred(row[col]) {
				hits++
			}
		}
		return filled > 0 && hits*2 > filled
	}

	if _, ok := e.assigned[models.FieldDate]; !ok {
		for col := 0; col < e.columnCount; col++ {
			if !used[col] && majority(col, isDateCell) {
				e.assigned[models.FieldDate] = col
				used[col] = true
				break
			}
		}
	}

	if _, ok := e.assigned[models.FieldAmount]; !ok {
		for col := 0; col < e.columnCount; col++ {
			if !used[col] && majority(col, isAmountCell) {
				e.assigned[models.FieldAmount] = col
				used[col] = true
				break
			}
		}
	}

	if _, ok := e.assigned[models.FieldDescription]; !ok {
		best, bestLen := -1, 0
		for col := 0; col < e.columnCount; col++ {
			if used[col] || !majority(col, hasLetter) {
				continue
			}
			total := 0
			for _, row := range rows {
				if col < len(row) {
					total += len([]rune(row[col]))
				}
			}
			if total > bestLen {
				best, bestLen = col, total
			}
		}
		if best >= 0 {
			e.assigned[models.FieldDescription] = best
		}
	}
}

func isDateCell(s string) bool {
	_, _, ok := dateutils.TryParseDateTime(s)
	return ok
}

func isAmountCell(s string) bool {
	if hasLetterCount(s) > 3 || isDateCell(s) {
		return false
	}
	amount, err := currencyutils.ParseAmount(s)
	return err == nil && !amount.IsZero()
}

func hasLetter(s string) bool {
	return hasLetterCount(s) > 0
}

func hasLetterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
