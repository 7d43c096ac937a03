// Package ofxparser reads the STMTTRN transaction blocks of OFX/QFX
// statements, both the SGML (1.x) and the XML (2.x) flavours.
package ofxparser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parser"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parsererror"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/textutils"

	"gopkg.in/xmlpath.v2"
)

// Headers are the column names of every table this parser produces.
var Headers = []string{"Date", "Amount", "Description"}

var (
	blockRe   = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	digitsRe  = regexp.MustCompile(`^\d{8}`)
	xmlDeclRe = regexp.MustCompile(`(?i)^\s*(?:\x{FEFF})?<\?xml`)

	xpathTransactions = xmlpath.MustCompile("//STMTTRN")
	xpathPosted       = xmlpath.MustCompile("DTPOSTED")
	xpathAmount       = xmlpath.MustCompile("TRNAMT")
	xpathMemo         = xmlpath.MustCompile("MEMO")
	xpathName         = xmlpath.MustCompile("NAME")
)

type transaction struct {
	posted, amount, memo, name string
}

// Parser implements parser.Parser for OFX statements.
type Parser struct {
	parser.BaseParser
}

// New creates an OFX parser.
func New(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser("OFX", logger)}
}

// Parse extracts one row per STMTTRN block: the posted date as YYYY-MM-DD,
// the amount as written and MEMO (or NAME when MEMO is empty).
func (p *Parser) Parse(r io.Reader) (*models.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading OFX input: %w", err)
	}

	var txs []transaction
	if xmlDeclRe.Match(data) {
		txs, err = p.parseXML(data)
		if err != nil {
			p.GetLogger().WithError(err).Debug("OFX document is not well-formed XML, using tag scan")
		}
	}
	if len(txs) == 0 {
		txs = parseSGML(data)
	}

	if len(txs) == 0 {
		return nil, &parsererror.DataExtractionError{
			Source:         "ofx",
			FieldName:      "STMTTRN",
			RawDataSnippet: snippet(data),
			Msg:            "no transaction blocks found",
			Reason:         "the statement contains no <STMTTRN> element",
		}
	}

	records := [][]string{append([]string(nil), Headers...)}
	for _, tx := range txs {
		description := tx.memo
		if description == "" {
			description = tx.name
		}
		records = append(records, []string{
			formatPosted(tx.posted),
			tx.amount,
			description,
		})
	}

	p.GetLogger().Info("Extracted OFX transactions", logging.F(logging.FieldCount, len(txs)))
	return p.NewTable(models.FormatOFX, records), nil
}

func (p *Parser) parseXML(data []byte) ([]transaction, error) {
	root, err := xmlpath.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var txs []transaction
	iter := xpathTransactions.Iter(root)
	for iter.Next() {
		node := iter.Node()
		txs = append(txs, transaction{
			posted: xmlValue(xpathPosted, node),
			amount: xmlValue(xpathAmount, node),
			memo:   xmlValue(xpathMemo, node),
			name:   xmlValue(xpathName, node),
		})
	}
	return txs, nil
}

func xmlValue(path *xmlpath.Path, node *xmlpath.Node) string {
	if value, ok := path.String(node); ok {
		return textutils.CleanCell(value)
	}
	return ""
}

func parseSGML(data []byte) []transaction {
	var txs []transaction
	for _, m := range blockRe.FindAllSubmatch(data, -1) {
		block := m[1]
		txs = append(txs, transaction{
			posted: tagValue(block, "DTPOSTED"),
			amount: tagValue(block, "TRNAMT"),
			memo:   tagValue(block, "MEMO"),
			name:   tagValue(block, "NAME"),
		})
	}
	return txs
}

var tagPatterns = map[string]*regexp.Regexp{
	"DTPOSTED": regexp.MustCompile(`(?i)<DTPOSTED>([^<\r\n]*)`),
	"TRNAMT":   regexp.MustCompile(`(?i)<TRNAMT>([^<\r\n]*)`),
	"MEMO":     regexp.MustCompile(`(?i)<MEMO>([^<\r\n]*)`),
	"NAME":     regexp.MustCompile(`(?i)<NAME>([^<\r\n]*)`),
}

// tagValue reads an SGML element value, which runs until the next tag or
// line break since SGML OFX leaves leaf elements unclosed.
func tagValue(block []byte, tag string) string {
	m := tagPatterns[tag].FindSubmatch(block)
	if m == nil {
		return ""
	}
	return textutils.CleanCell(string(m[1]))
}

// formatPosted turns a DTPOSTED value such as 20240131120000[-5:EST] into
// 2024-01-31. Values without eight leading digits are returned unchanged.
func formatPosted(posted string) string {
	digits := digitsRe.FindString(posted)
	if digits == "" {
		return posted
	}
	return digits[0:4] + "-" + digits[4:6] + "-" + digits[6:8]
}

func snippet(data []byte) string {
	const max = 80
	s := textutils.CollapseWhitespace(string(data))
	return textutils.Truncate(s, max)
}
