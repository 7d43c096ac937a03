// Package models provides the data structures shared by the parsers, the
// mapping engine and the import orchestrator.
package models

// SourceFormat names the parser that produced a RawTable.
type SourceFormat string

const (
	FormatDelimited   SourceFormat = "delimited"
	FormatHTML        SourceFormat = "html"
	FormatOFX         SourceFormat = "ofx"
	FormatSpreadsheet SourceFormat = "spreadsheet"
)

// RawTable is the shape every parser produces: the first row as Headers and
// the remaining rows as Rows. Whether Headers really is a header row is
// decided later by the normalizer.
type RawTable struct {
	Headers   []string     `json:"headers"`
	Rows      [][]string   `json:"rows"`
	TotalRows int          `json:"totalRows"`
	Format    SourceFormat `json:"format"`
	// Tables lists every table discovered in a multi-table source.
	Tables []TableInfo `json:"tables,omitempty"`
}

// ColumnCount returns the widest row width, headers included.
func (t *RawTable) ColumnCount() int {
	if t == nil {
		return 0
	}
	width := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// TableInfo describes one candidate table inside a multi-table source.
type TableInfo struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	RowCount    int        `json:"rowCount"`
	ColumnCount int        `json:"columnCount"`
	HasHeaders  bool       `json:"hasHeaders"`
	Preview     [][]string `json:"preview"`
}
