package factory

import (
	"errors"
	"testing"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/csvparser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/htmlparser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/ofxparser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parsererror"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/xlsparser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetParserWithLogger(t *testing.T) {
	tests := []struct {
		name         string
		parserType   parser.ParserType
		expectedType interface{}
		expectError  bool
	}{
		{"Delimited", parser.Delimited, &csvparser.Parser{}, false},
		{"HTML", parser.HTML, &htmlparser.Parser{}, false},
		{"OFX", parser.OFX, &ofxparser.Parser{}, false},
		{"Spreadsheet", parser.Spreadsheet, &xlsparser.Parser{}, false},
		{"Unknown", parser.ParserType("pdf"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := GetParserWithLogger(tt.parserType, logging.NewMockLogger(), DefaultOptions())
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expectedType, p)
		})
	}
}

func TestParse_DetectsFormat(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		data       string
		expected   parser.ParserType
		format     models.SourceFormat
		headerCell string
	}{
		{"pasted csv", "", "Date;Amount\n01.01.2024;5", parser.Delimited, models.FormatDelimited, "Date"},
		{"html page", "page.html", "<table><tr><td>Date</td></tr><tr><td>01.01.2024</td></tr></table>", parser.HTML, models.FormatHTML, "Date"},
		{"ofx text", "", "<OFX><STMTTRN><DTPOSTED>20240101<TRNAMT>1<MEMO>x</STMTTRN>", parser.OFX, models.FormatOFX, "Date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, detected, err := Parse(tt.file, []byte(tt.data), DefaultOptions(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, detected)
			assert.Equal(t, tt.format, table.Format)
			assert.Equal(t, tt.headerCell, table.Headers[0])
		})
	}
}

func TestParse_SpreadsheetRejected(t *testing.T) {
	_, detected, err := Parse("book.xlsx", []byte("PK\x03\x04"), DefaultOptions(), nil)
	assert.Equal(t, parser.Spreadsheet, detected)

	var unsupported *parsererror.UnsupportedFormatError
	assert.True(t, errors.As(err, &unsupported))
}

func TestParse_HTMLTableIndexPassedThrough(t *testing.T) {
	page := "<table><tr><td>A</td></tr></table><table><tr><td>B</td></tr><tr><td>1</td></tr></table>"

	_, _, err := Parse("x.html", []byte(page), DefaultOptions(), nil)
	var selErr *parsererror.TableSelectionError
	require.True(t, errors.As(err, &selErr))

	table, _, err := Parse("x.html", []byte(page), Options{TableIndex: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, table.Headers)
}
