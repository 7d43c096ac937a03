// Package normalizer cleans parser output and decides whether its first row
// is a header.
package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/textutils"
)

// HeaderKeywords are matched case-insensitively against the words of header
// cells, allowing a short inflected ending ("notes", "суммы"). They cover the mapped fields in the languages banks export in.
var HeaderKeywords = []string{
	"amount", "sum", "date", "description", "details", "city", "time", "note", "memo", "payee", "merchant",
	"сумма", "дата", "описание", "город", "время", "примечание", "назначение", "комментарий", "операция",
	"betrag", "datum", "montant",
}

// Table is the normalized form of a RawTable. Every row, and the header when
// present, is padded to ColumnCount cells.
type Table struct {
	Header      []string
	Rows        [][]string
	HasHeader   bool
	ColumnCount int
}

// Normalize trims every cell, drops rows whose cells are all empty and
// detects the header. Without a detected header the first row is data.
func Normalize(raw *models.RawTable) Table {
	if raw == nil {
		return Table{}
	}

	header := trimRow(raw.Headers)
	var data [][]string
	for _, row := range raw.Rows {
		trimmed := trimRow(row)
		if !isEmpty(trimmed) {
			data = append(data, trimmed)
		}
	}

	var firstData []string
	if len(data) > 0 {
		firstData = data[0]
	}

	t := Table{HasHeader: DetectHeader(header, firstData)}
	if t.HasHeader {
		t.Header = header
		t.Rows = data
	} else {
		if !isEmpty(header) {
			t.Rows = append(t.Rows, header)
		}
		t.Rows = append(t.Rows, data...)
	}

	t.ColumnCount = len(t.Header)
	for _, row := range t.Rows {
		if len(row) > t.ColumnCount {
			t.ColumnCount = len(row)
		}
	}
	if t.HasHeader {
		t.Header = pad(t.Header, t.ColumnCount)
	}
	for i, row := range t.Rows {
		t.Rows[i] = pad(row, t.ColumnCount)
	}
	return t
}

// DetectHeader reports whether header is a header row: one of its cells
// names a known field, or it has no digits while firstData has some.
func DetectHeader(header, firstData []string) bool {
	if isEmpty(header) {
		return false
	}

	for _, cell := range header {
		if cell == "" || textutils.ContainsDigit(cell) {
			continue
		}
		if hasHeaderKeyword(cell) {
			return true
		}
	}

	return !rowHasDigit(header) && rowHasDigit(firstData)
}

// maxKeywordSuffix bounds the ending a word may add to a keyword.
const maxKeywordSuffix = 2

func hasHeaderKeyword(cell string) bool {
	words := strings.FieldsFunc(strings.ToLower(cell), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		for _, kw := range HeaderKeywords {
			if strings.HasPrefix(word, kw) && utf8.RuneCountInString(word)-utf8.RuneCountInString(kw) <= maxKeywordSuffix {
				return true
			}
		}
	}
	return false
}

// Column returns the cells of column index across rows; short rows yield "".
func (t Table) Column(index int) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if index < len(row) {
			values = append(values, row[index])
		} else {
			values = append(values, "")
		}
	}
	return values
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = textutils.CollapseWhitespace(cell)
	}
	return out
}

func isEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

func rowHasDigit(row []string) bool {
	for _, cell := range row {
		if textutils.ContainsDigit(cell) {
			return true
		}
	}
	return false
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
