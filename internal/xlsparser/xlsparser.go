// Package xlsparser rejects binary spreadsheet uploads with guidance instead
// of guessing at their content.
package xlsparser

import (
	"io"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parsererror"
)

// Guidance is shown to the user when a spreadsheet is uploaded.
const Guidance = "spreadsheet files are not supported; save the sheet as CSV (delimited text) or as a web page and import that file"

// Parser implements parser.Parser and always fails.
type Parser struct {
	parser.BaseParser
}

// New creates the spreadsheet parser.
func New(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser("Spreadsheet", logger)}
}

// Parse returns a *parsererror.UnsupportedFormatError without reading r.
func (p *Parser) Parse(_ io.Reader) (*models.RawTable, error) {
	p.GetLogger().Warn("Rejected spreadsheet upload", logging.F(logging.FieldFormat, models.FormatSpreadsheet))
	return nil, &parsererror.UnsupportedFormatError{
		Format:   string(models.FormatSpreadsheet),
		Guidance: Guidance,
	}
}
