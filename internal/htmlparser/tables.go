package htmlparser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/textutils"

	"golang.org/x/net/html"
)

// rowLengthTolerance is how many columns a data row may miss before it is
// treated as layout noise rather than data.
const rowLengthTolerance = 1

var (
	currencyRe  = regexp.MustCompile(`(?i)\b(?:BYN|BYR|RUB|RUR|USD|EUR|PLN|UAH|KZT|GBP|CHF)\b|руб\.?|р\.|[€$£₽]`)
	numericRe   = regexp.MustCompile(`^[-+−]?\(?\s*[-+−]?\s*\d[\d\s.,' ]*\)?$`)
	moneyJunkRe = regexp.MustCompile(`[^\d\s.,'()+\-−]`)
	footerRe    = regexp.MustCompile(`(?i)итого|всего|total|balance|остаток|сальдо|count|количество|оборот`)
	dateTokenRe = regexp.MustCompile(`\d{1,4}[./-]\d{1,2}[./-]\d{2,4}`)
)

// moneyClassWords are class name words banks use on amount cells. They are
// matched as whole words of the class attribute, so "summary" is not one.
var moneyClassWords = map[string]bool{
	"money": true, "amount": true, "amt": true, "sum": true, "summa": true,
	"price": true, "currency": true, "сумма": true, "суммы": true,
}

type rowNode struct {
	node    *html.Node
	section string
}

type cell struct {
	text  string
	span  int
	money bool
}

type extractedTable struct {
	headers  []string
	rows     [][]string
	hasHead  bool
	excluded int
}

func findTables(n *html.Node) []*html.Node {
	var tables []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return tables
}

// rowsOf returns the rows belonging to table itself, skipping nested tables.
func rowsOf(table *html.Node) []rowNode {
	var rows []rowNode
	var walk func(n *html.Node, section string)
	walk = func(n *html.Node, section string) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
			case "thead", "tbody", "tfoot":
				walk(c, c.Data)
			case "tr":
				rows = append(rows, rowNode{node: c, section: section})
			default:
				walk(c, section)
			}
		}
	}
	walk(table, "")
	return rows
}

// cellsOf reads the cells of tr. Amount cells of data rows lose their
// currency decoration; header rows keep their text.
func cellsOf(tr *html.Node, header bool) []cell {
	var cells []cell
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		span := 1
		if v, err := strconv.Atoi(attr(c, "colspan")); err == nil && v > 1 {
			span = v
		}
		text := nodeText(c)
		money := !header && c.Data == "td" && isMoney(text, hasMoneyClass(attr(c, "class")))
		if money {
			text = cleanMoney(text)
		}
		cells = append(cells, cell{text: text, span: span, money: money})
	}
	return cells
}

// expand lays cells out on the column grid, a colspan cell occupying its
// first column and leaving the rest empty.
func expand(cells []cell) []string {
	var values []string
	for _, c := range cells {
		values = append(values, c.text)
		for i := 1; i < c.span; i++ {
			values = append(values, "")
		}
	}
	return values
}

func looksLikeMoney(text string) bool {
	return isMoney(text, false)
}

// isMoney reports whether text is a number once currency markers are
// removed. Without a money class the text must carry a currency marker.
func isMoney(text string, classed bool) bool {
	if !classed && !currencyRe.MatchString(text) {
		return false
	}
	rest := strings.TrimSpace(currencyRe.ReplaceAllString(text, ""))
	return numericRe.MatchString(rest)
}

func hasMoneyClass(class string) bool {
	words := strings.FieldsFunc(strings.ToLower(class), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if moneyClassWords[w] {
			return true
		}
	}
	return false
}

// cleanMoney strips currency decoration, keeping digits, separators and the
// sign or parentheses.
func cleanMoney(text string) string {
	text = currencyRe.ReplaceAllString(text, "")
	text = moneyJunkRe.ReplaceAllString(text, "")
	text = textutils.CollapseWhitespace(text)
	return strings.NewReplacer("( ", "(", " )", ")").Replace(text)
}

func isBlankRow(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

// isSectionRow matches a lone cell spanning several columns, used by banks
// for titles and group headers inside the table.
func isSectionRow(cells []cell) bool {
	return len(cells) == 1 && cells[0].span > 1
}

func isFooterRow(values []string) bool {
	joined := strings.Join(values, " ")
	return footerRe.MatchString(joined) && !dateTokenRe.MatchString(joined)
}

func extractTable(table *html.Node) extractedTable {
	var out extractedTable
	rows := rowsOf(table)

	headerIdx := -1
	for i, r := range rows {
		if r.section == "thead" {
			headerIdx = i
			out.hasHead = true
			break
		}
	}
	if headerIdx < 0 {
		for i, r := range rows {
			cells := cellsOf(r.node, true)
			if !isBlankRow(expand(cells)) && !isSectionRow(cells) {
				headerIdx = i
				break
			}
		}
	}
	if headerIdx < 0 {
		return out
	}
	out.headers = expand(cellsOf(rows[headerIdx].node, true))

	for i, r := range rows {
		if i <= headerIdx || r.section == "thead" {
			continue
		}
		cells := cellsOf(r.node, false)
		values := expand(cells)
		switch {
		case isBlankRow(values),
			isSectionRow(cells),
			isFooterRow(values),
			len(values) < len(out.headers)-rowLengthTolerance:
			out.excluded++
			continue
		}
		out.rows = append(out.rows, values)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// nodeText returns the collapsed text content of n; <br> counts as a space.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteString(" ")
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return textutils.CollapseWhitespace(b.String())
}
