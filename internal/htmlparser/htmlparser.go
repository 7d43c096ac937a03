// Package htmlparser extracts transaction tables from HTML documents such as
// bank statement pages or spreadsheets saved as a web page.
package htmlparser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"unicode/utf8"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parsererror"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

// AutoSelect lets the parser pick the table; it succeeds only when the
// document holds exactly one table.
const AutoSelect = -1

// Parser implements parser.Parser for HTML tables.
type Parser struct {
	parser.BaseParser
	tableIndex int
}

// New creates an HTML parser that auto-selects the table.
func New(logger logging.Logger) *Parser {
	return &Parser{
		BaseParser: parser.NewBaseParser("HTML", logger),
		tableIndex: AutoSelect,
	}
}

// WithTable returns a copy of the parser reading the table at index.
func (p *Parser) WithTable(index int) *Parser {
	clone := *p
	clone.tableIndex = index
	return &clone
}

// frameExportRe matches the companion-file references left by a spreadsheet
// saved as a multi-file web page.
var frameExportRe = regexp.MustCompile(`(?i)filelist\.xml|sheet\d{3}\.html?|tabstrip\.html?|<frameset|<frame\s`)

// Parse reads one table. With several tables and no explicit index it
// returns a *parsererror.TableSelectionError listing them.
func (p *Parser) Parse(r io.Reader) (*models.RawTable, error) {
	doc, raw, err := parseDocument(r)
	if err != nil {
		return nil, err
	}

	tables := findTables(doc)
	if len(tables) == 0 {
		return nil, noTablesError(raw)
	}

	infos := describeTables(tables)
	index := p.tableIndex
	if index == AutoSelect {
		if len(tables) > 1 {
			p.GetLogger().Info("Several tables found, selection required",
				logging.F(logging.FieldCount, len(tables)))
			return nil, &parsererror.TableSelectionError{Tables: infos}
		}
		index = 0
	}
	if index < 0 || index >= len(tables) {
		return nil, &parsererror.ValidationError{
			Subject: "table index",
			Reason:  fmt.Sprintf("%d is out of range, the document has %d tables", index, len(tables)),
		}
	}

	extracted := extractTable(tables[index])
	if len(extracted.headers) == 0 {
		return nil, &parsererror.DataExtractionError{
			Source:    "html",
			FieldName: "tr",
			Msg:       fmt.Sprintf("table %d has no rows", index+1),
			Reason:    "empty table",
		}
	}

	records := append([][]string{extracted.headers}, extracted.rows...)
	table := p.NewTable(models.FormatHTML, records)
	table.Tables = infos

	p.GetLogger().Info("Extracted HTML table",
		logging.F(logging.FieldTableIndex, index),
		logging.F(logging.FieldCount, len(extracted.rows)),
		logging.F("excluded_rows", extracted.excluded))
	return table, nil
}

// Discover lists every table of the document without extracting one.
func Discover(r io.Reader) ([]models.TableInfo, error) {
	doc, raw, err := parseDocument(r)
	if err != nil {
		return nil, err
	}
	tables := findTables(doc)
	if len(tables) == 0 {
		return nil, noTablesError(raw)
	}
	return describeTables(tables), nil
}

func parseDocument(r io.Reader) (*html.Node, []byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading HTML input: %w", err)
	}
	doc, err := html.Parse(decodeReader(raw))
	if err != nil {
		return nil, nil, &parsererror.InvalidFormatError{Source: "html", ExpectedFormat: "HTML", Msg: err.Error()}
	}
	return doc, raw, nil
}

// decodeReader returns raw as UTF-8. Documents that are not valid UTF-8 use
// their declared charset; undeclared ones are read as Windows-1251.
func decodeReader(raw []byte) io.Reader {
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	enc, name, _ := charset.DetermineEncoding(raw, "text/html")
	if name == "windows-1252" {
		enc = charmap.Windows1251
	}
	return enc.NewDecoder().Reader(bytes.NewReader(raw))
}

func noTablesError(raw []byte) error {
	if frameExportRe.Match(raw) {
		return &parsererror.InvalidFormatError{
			Source:         "html",
			ExpectedFormat: "HTML page with <table> elements",
			Msg: "this is a spreadsheet saved as a multi-file web page; open it in the spreadsheet " +
				"program and save it again as a full web page (single file)",
		}
	}
	return &parsererror.DataExtractionError{
		Source:    "html",
		FieldName: "table",
		Msg:       "no tables found",
		Reason:    "the document contains no <table> element",
	}
}
