package parser

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// Parser turns raw file or clipboard bytes into a RawTable.
type Parser interface {
	// Parse reads the whole input and returns its first row as headers and
	// the rest as rows. Implementations return parsererror types for
	// format-specific failures.
	Parse(r io.Reader) (*models.RawTable, error)
}

// ParserType defines the types of parsers available.
type ParserType string

const (
	Delimited   ParserType = "delimited"
	HTML        ParserType = "html"
	OFX         ParserType = "ofx"
	Spreadsheet ParserType = "spreadsheet"
)

// Types lists every parser type in detection order.
var Types = []ParserType{Spreadsheet, HTML, OFX, Delimited}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Detect picks a parser type from the file name and the first bytes of the
// content. Anything unrecognized is read as delimited text.
func Detect(name string, head []byte) ParserType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls", ".xlsx", ".xlsm", ".ods":
		return Spreadsheet
	case ".htm", ".html", ".mht":
		return HTML
	case ".ofx", ".qfx":
		return OFX
	}

	if bytes.HasPrefix(head, zipMagic) || bytes.HasPrefix(head, oleMagic) {
		return Spreadsheet
	}

	lower := bytes.ToLower(head)
	switch {
	case bytes.Contains(lower, []byte("<stmttrn>")), bytes.Contains(lower, []byte("<ofx>")),
		bytes.Contains(lower, []byte("ofxheader")):
		return OFX
	case bytes.Contains(lower, []byte("<table")), bytes.Contains(lower, []byte("<html")),
		bytes.Contains(lower, []byte("<frameset")):
		return HTML
	}
	return Delimited
}
