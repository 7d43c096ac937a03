// Package parser provides the Parser interface, format detection and the
// BaseParser embedded by every format-specific parser.
package parser

import (
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// BaseParser provides common functionality for all parser implementations.
// Parsers embed it:
//
//	type MyParser struct {
//		parser.BaseParser
//		// parser-specific fields
//	}
type BaseParser struct {
	name   string
	logger logging.Logger
}

// NewBaseParser creates a BaseParser for the named format. If logger is nil,
// a default logger is used.
func NewBaseParser(name string, logger logging.Logger) BaseParser {
	return BaseParser{
		name:   name,
		logger: logging.OrDefault(logger).WithField(logging.FieldParser, name),
	}
}

// SetLogger replaces the logger; nil is ignored.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger.WithField(logging.FieldParser, b.name)
	}
}

// GetLogger returns the current logger instance.
func (b *BaseParser) GetLogger() logging.Logger {
	if b.logger == nil {
		b.logger = logging.OrDefault(nil)
	}
	return b.logger
}

// Name returns the parser's format name.
func (b *BaseParser) Name() string {
	return b.name
}

// NewTable splits records into headers and rows. Records must be non-empty.
func (b *BaseParser) NewTable(format models.SourceFormat, records [][]string) *models.RawTable {
	table := &models.RawTable{
		Headers: records[0],
		Rows:    records[1:],
		Format:  format,
	}
	table.TotalRows = len(table.Rows)

	b.GetLogger().Debug("Parsed table",
		logging.F(logging.FieldColumns, table.ColumnCount()),
		logging.F(logging.FieldCount, table.TotalRows))
	return table
}
