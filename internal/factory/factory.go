// Package factory builds the parser for an input and runs it.
package factory

import (
	"bytes"
	"fmt"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/csvparser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/htmlparser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/ofxparser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/xlsparser"
)

// sniffLength is how many leading bytes format detection looks at.
const sniffLength = 4096

// Options tune parser construction.
type Options struct {
	// TableIndex selects the HTML table; htmlparser.AutoSelect (-1) picks
	// the only table or asks for a selection.
	TableIndex int
}

// DefaultOptions returns options with automatic table selection.
func DefaultOptions() Options {
	return Options{TableIndex: htmlparser.AutoSelect}
}

// GetParserWithLogger returns a new instance of the appropriate parser for
// the given type with the provided logger.
func GetParserWithLogger(parserType parser.ParserType, logger logging.Logger, opts Options) (parser.Parser, error) {
	switch parserType {
	case parser.Delimited:
		return csvparser.New(logger), nil
	case parser.HTML:
		return htmlparser.New(logger).WithTable(opts.TableIndex), nil
	case parser.OFX:
		return ofxparser.New(logger), nil
	case parser.Spreadsheet:
		return xlsparser.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown parser type: %s", parserType)
	}
}

// Parse detects the format of data (named name, which may be empty for
// pasted text) and parses it.
func Parse(name string, data []byte, opts Options, logger logging.Logger) (*models.RawTable, parser.ParserType, error) {
	logger = logging.OrDefault(logger)

	head := data
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	parserType := parser.Detect(name, head)
	logger.Debug("Detected input format",
		logging.F(logging.FieldInputFile, name),
		logging.F(logging.FieldFormat, parserType))

	p, err := GetParserWithLogger(parserType, logger, opts)
	if err != nil {
		return nil, parserType, err
	}
	table, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, parserType, err
	}
	return table, parserType, nil
}
