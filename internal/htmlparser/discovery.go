package htmlparser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/textutils"

	"golang.org/x/net/html"
)

const (
	previewRows      = 4
	previewCellRunes = 40
	maxLabelRunes    = 80
	siblingLookback  = 3
	ancestorLookback = 3
)

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "b": true, "strong": true, "div": true, "span": true, "label": true,
}

type labelHint struct {
	keywords []string
	label    string
}

var attrHints = []labelHint{
	{[]string{"oper", "transact", "txn", "movement"}, "Operations"},
	{[]string{"balance", "ostat", "saldo"}, "Balance"},
	{[]string{"statement", "vypiska", "extract"}, "Statement"},
	{[]string{"summary", "total", "itog"}, "Summary"},
}

var headerHints = []labelHint{
	{[]string{"операц", "operation"}, "Operations"},
	{[]string{"остаток", "сальдо", "balance"}, "Balance summary"},
	{[]string{"транзакц", "transaction"}, "Transactions"},
}

func describeTables(tables []*html.Node) []models.TableInfo {
	infos := make([]models.TableInfo, 0, len(tables))
	for i, t := range tables {
		extracted := extractTable(t)

		width := len(extracted.headers)
		for _, row := range extracted.rows {
			if len(row) > width {
				width = len(row)
			}
		}

		infos = append(infos, models.TableInfo{
			Index:       i,
			Description: describe(t, i, extracted.headers),
			RowCount:    len(extracted.rows),
			ColumnCount: width,
			HasHeaders:  extracted.hasHead || looksLikeHeader(extracted.headers),
			Preview:     preview(extracted),
		})
	}
	return infos
}

// describe derives a label for the table from, in order: its caption, a
// heading-like element just before it, class/id hints and its header text.
func describe(table *html.Node, index int, headers []string) string {
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "caption" {
			if text := nodeText(c); plausibleLabel(text) {
				return text
			}
		}
	}
	if text := precedingHeading(table); text != "" {
		return text
	}
	if label := matchHint(strings.ToLower(attr(table, "class")+" "+attr(table, "id")), attrHints); label != "" {
		return label
	}
	joined := strings.ToLower(strings.Join(headers, " "))
	if label := matchHint(joined, headerHints); label != "" {
		return label
	}
	hasDate := strings.Contains(joined, "date") || strings.Contains(joined, "дата")
	hasAmount := strings.Contains(joined, "amount") || strings.Contains(joined, "sum") || strings.Contains(joined, "сумма")
	if hasDate && hasAmount {
		return "Transactions (date / amount)"
	}
	return fmt.Sprintf("Table %d", index+1)
}

func precedingHeading(table *html.Node) string {
	node := table
	for depth := 0; node != nil && depth < ancestorLookback; depth++ {
		seen := 0
		for s := node.PrevSibling; s != nil && seen < siblingLookback; s = s.PrevSibling {
			switch s.Type {
			case html.TextNode:
				if text := textutils.CollapseWhitespace(s.Data); plausibleLabel(text) {
					return text
				}
			case html.ElementNode:
				if s.Data == "table" {
					return ""
				}
				seen++
				if headingTags[s.Data] {
					if text := nodeText(s); plausibleLabel(text) {
						return text
					}
				}
			}
		}
		node = node.Parent
	}
	return ""
}

func plausibleLabel(text string) bool {
	n := utf8.RuneCountInString(text)
	return n >= 3 && n <= maxLabelRunes && strings.IndexFunc(text, unicode.IsLetter) >= 0
}

func matchHint(text string, hints []labelHint) string {
	for _, h := range hints {
		for _, kw := range h.keywords {
			if strings.Contains(text, kw) {
				return h.label
			}
		}
	}
	return ""
}

func looksLikeHeader(headers []string) bool {
	if len(headers) == 0 {
		return false
	}
	for _, h := range headers {
		if textutils.ContainsDigit(h) {
			return false
		}
	}
	return true
}

func preview(t extractedTable) [][]string {
	var rows [][]string
	if len(t.headers) > 0 {
		rows = append(rows, t.headers)
	}
	rows = append(rows, t.rows...)
	if len(rows) > previewRows {
		rows = rows[:previewRows]
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = textutils.Truncate(v, previewCellRunes)
		}
	}
	return out
}
