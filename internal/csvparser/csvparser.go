// Package csvparser reads delimited text (comma, semicolon or tab separated)
// as pasted from a spreadsheet or exported by a bank.
package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parsererror"

	"golang.org/x/text/encoding/charmap"
)

// ErrEmptyInput is returned when the input holds no non-blank line.
var ErrEmptyInput = errors.New("input is empty")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser implements parser.Parser for delimited text.
type Parser struct {
	parser.BaseParser
}

// New creates a delimited-text parser.
func New(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser("Delimited", logger)}
}

// Parse reads the whole input. The delimiter is detected on the first
// non-blank line; quoted cells may contain the delimiter. Input that is not
// valid UTF-8 is decoded as Windows-1251.
func (p *Parser) Parse(r io.Reader) (*models.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading delimited input: %w", err)
	}

	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	line := firstNonBlankLine(text)
	if line == "" {
		return nil, ErrEmptyInput
	}
	delimiter := DetectDelimiter(line)
	p.GetLogger().Debug("Detected delimiter", logging.F(logging.FieldDelimiter, string(delimiter)))

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &parsererror.ParseError{
					Parser: p.Name(),
					Field:  fmt.Sprintf("line %d", csvErr.Line),
					Value:  "",
					Err:    csvErr.Err,
				}
			}
			return nil, fmt.Errorf("error reading delimited input: %w", err)
		}
		if isBlank(record) {
			continue
		}
		for i, cell := range record {
			record[i] = unquote(cell)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	return p.NewTable(models.FormatDelimited, records), nil
}

// DetectDelimiter returns ';' if line contains one, else tab if present,
// else ','.
func DetectDelimiter(line string) rune {
	switch {
	case strings.ContainsRune(line, ';'):
		return ';'
	case strings.ContainsRune(line, '\t'):
		return '\t'
	default:
		return ','
	}
}

func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return "", &parsererror.InvalidFormatError{
			Source:         "input",
			ExpectedFormat: "UTF-8 or Windows-1251 text",
			Msg:            err.Error(),
		}
	}
	return string(decoded), nil
}

func firstNonBlankLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// unquote strips one pair of wrapping quotes left by lazy quoting, e.g. a
// quoted cell preceded by a space.
func unquote(cell string) string {
	trimmed := strings.TrimSpace(cell)
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		return strings.ReplaceAll(trimmed[1:len(trimmed)-1], `""`, `"`)
	}
	return cell
}
