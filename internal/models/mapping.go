package models

import (
	"encoding/json"
)

// ColumnMapping is one table column's role. It is also the persisted record
// format: a saved mapping is a JSON array of these, one per column.
type ColumnMapping struct {
	SourceIndex  int     `json:"sourceIndex"`
	TargetFields []Field `json:"targetFields"`
	Enabled      bool    `json:"enabled"`
	Preview      string  `json:"preview"`
	Hidden       bool    `json:"hidden"`
}

// UnmarshalJSON accepts both the current multi-field shape and the legacy
// single "targetField" string, dropping field names it does not know.
func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	var raw struct {
		SourceIndex  int      `json:"sourceIndex"`
		TargetFields []string `json:"targetFields"`
		TargetField  *string  `json:"targetField"`
		Enabled      *bool    `json:"enabled"`
		Preview      string   `json:"preview"`
		Hidden       bool     `json:"hidden"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	names := raw.TargetFields
	if len(names) == 0 && raw.TargetField != nil && *raw.TargetField != "" {
		names = []string{*raw.TargetField}
	}

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		if f, ok := ParseField(name); ok {
			fields = append(fields, f)
		}
	}

	m.SourceIndex = raw.SourceIndex
	m.TargetFields = fields
	m.Preview = raw.Preview
	m.Hidden = raw.Hidden
	if raw.Enabled != nil {
		m.Enabled = *raw.Enabled && len(fields) > 0
	} else {
		m.Enabled = len(fields) > 0
	}
	return nil
}

// Has reports whether f is among the column's target fields.
func (m ColumnMapping) Has(f Field) bool {
	for _, tf := range m.TargetFields {
		if tf == f {
			return true
		}
	}
	return false
}
