// Package mapping holds the column-to-field assignment a user edits before
// rows are built, and its persisted form.
package mapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

var (
	ErrColumnOutOfRange = errors.New("column index out of range")
	ErrColumnHidden     = errors.New("column is hidden")
	ErrUnknownField     = errors.New("unknown field")
)

// MissingFieldsError lists required fields that have no enabled column.
type MissingFieldsError struct {
	Fields []models.Field
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("required fields not mapped: %s", strings.Join(names, ", "))
}

// Slot is one entry of the field vocabulary with its current column.
// Column is -1 when the field is unassigned.
type Slot struct {
	Field    models.Field `json:"field"`
	Column   int          `json:"column"`
	Label    string       `json:"label,omitempty"`
	Required bool         `json:"required"`
}

// Editor is the mutable mapping state for one table. A field is assigned to
// at most one column; a column may carry several fields.
type Editor struct {
	columnCount int
	assigned    map[models.Field]int
	hidden      map[int]bool
	order       []int
}

// NewEditor returns an empty mapping over columnCount columns in source order.
func NewEditor(columnCount int) *Editor {
	if columnCount < 0 {
		columnCount = 0
	}
	order := make([]int, columnCount)
	for i := range order {
		order[i] = i
	}
	return &Editor{
		columnCount: columnCount,
		assigned:    make(map[models.Field]int),
		hidden:      make(map[int]bool),
		order:       order,
	}
}

// ColumnCount returns the number of columns the editor was built for.
func (e *Editor) ColumnCount() int {
	return e.columnCount
}

// Assign toggles field on column: assigning to the column that already holds
// it clears it, any other column takes it over.
func (e *Editor) Assign(field models.Field, column int) error {
	if _, ok := models.ParseField(string(field)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err := e.checkColumn(column); err != nil {
		return err
	}
	if e.hidden[column] {
		return fmt.Errorf("%w: %d", ErrColumnHidden, column)
	}

	if current, ok := e.assigned[field]; ok && current == column {
		delete(e.assigned, field)
		return nil
	}
	e.assigned[field] = column
	return nil
}

// Unassign clears field wherever it is.
func (e *Editor) Unassign(field models.Field) {
	delete(e.assigned, field)
}

// AssignedColumn returns the column holding field.
func (e *Editor) AssignedColumn(field models.Field) (int, bool) {
	col, ok := e.assigned[field]
	return col, ok
}

// FieldsOf returns the fields assigned to column in vocabulary order.
func (e *Editor) FieldsOf(column int) []models.Field {
	fields := make([]models.Field, 0)
	for _, f := range models.Fields {
		if col, ok := e.assigned[f]; ok && col == column {
			fields = append(fields, f)
		}
	}
	return fields
}

// Hide removes column from the visible set and clears every field that
// pointed at it.
func (e *Editor) Hide(column int) error {
	if err := e.checkColumn(column); err != nil {
		return err
	}
	e.hidden[column] = true
	for f, col := range e.assigned {
		if col == column {
			delete(e.assigned, f)
		}
	}
	return nil
}

// Show makes column visible again. Cleared assignments are not restored.
func (e *Editor) Show(column int) error {
	if err := e.checkColumn(column); err != nil {
		return err
	}
	delete(e.hidden, column)
	return nil
}

// IsHidden reports whether column is hidden.
func (e *Editor) IsHidden(column int) bool {
	return e.hidden[column]
}

// Move relocates the column shown at display position from to position to.
func (e *Editor) Move(from, to int) error {
	if from < 0 || from >= len(e.order) || to < 0 || to >= len(e.order) {
		return fmt.Errorf("%w: move %d -> %d", ErrColumnOutOfRange, from, to)
	}
	if from == to {
		return nil
	}
	col := e.order[from]
	order := append(e.order[:from:from], e.order[from+1:]...)
	order = append(order[:to], append([]int{col}, order[to:]...)...)
	e.order = order
	return nil
}

// Order returns the source column indexes in display order.
func (e *Editor) Order() []int {
	out := make([]int, len(e.order))
	copy(out, e.order)
	return out
}

// VisibleColumns returns the non-hidden columns in display order.
func (e *Editor) VisibleColumns() []int {
	visible := make([]int, 0, len(e.order))
	for _, col := range e.order {
		if !e.hidden[col] {
			visible = append(visible, col)
		}
	}
	return visible
}

// Label returns the positional label of column among the visible columns:
// A to Z, then 27, 28 and so on. Hidden columns have no label.
func (e *Editor) Label(column int) string {
	for pos, col := range e.VisibleColumns() {
		if col == column {
			return PositionLabel(pos)
		}
	}
	return ""
}

// PositionLabel returns the label shown for a zero-based visible position.
func PositionLabel(pos int) string {
	if pos < 0 {
		return ""
	}
	if pos < 26 {
		return string(rune('A' + pos))
	}
	return strconv.Itoa(pos + 1)
}

// Slots returns the vocabulary with current assignments.
func (e *Editor) Slots() []Slot {
	slots := make([]Slot, 0, len(models.Fields))
	for _, f := range models.Fields {
		slot := Slot{Field: f, Column: -1, Required: f.Required()}
		if col, ok := e.assigned[f]; ok {
			slot.Column = col
			slot.Label = e.Label(col)
		}
		slots = append(slots, slot)
	}
	return slots
}

// Validate reports required fields without a column.
func (e *Editor) Validate() error {
	var missing []models.Field
	for _, f := range models.Fields {
		if !f.Required() {
			continue
		}
		if _, ok := e.assigned[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Resolve returns the column for each assigned field.
func (e *Editor) Resolve() map[models.Field]int {
	resolved := make(map[models.Field]int, len(e.assigned))
	for f, col := range e.assigned {
		if !e.hidden[col] {
			resolved[f] = col
		}
	}
	return resolved
}

// Serialize returns one record per column in display order. previewRow
// supplies the one-cell preview and may be shorter than the column count.
func (e *Editor) Serialize(previewRow []string) []models.ColumnMapping {
	out := make([]models.ColumnMapping, 0, len(e.order))
	for _, col := range e.order {
		fields := e.FieldsOf(col)
		preview := ""
		if col < len(previewRow) {
			preview = previewRow[col]
		}
		out = append(out, models.ColumnMapping{
			SourceIndex:  col,
			TargetFields: fields,
			Enabled:      len(fields) > 0,
			Preview:      preview,
			Hidden:       e.hidden[col],
		})
	}
	return out
}

// Load rebuilds an editor from a saved mapping. The saved mapping is only
// reused when it describes exactly columnCount distinct columns; otherwise an
// empty editor is returned with ok false.
func Load(saved []models.ColumnMapping, columnCount int) (*Editor, bool) {
	if len(saved) == 0 || len(saved) != columnCount {
		return NewEditor(columnCount), false
	}

	seen := make(map[int]bool, len(saved))
	for _, m := range saved {
		if m.SourceIndex < 0 || m.SourceIndex >= columnCount || seen[m.SourceIndex] {
			return NewEditor(columnCount), false
		}
		seen[m.SourceIndex] = true
	}

	e := NewEditor(columnCount)
	e.order = e.order[:0]
	for _, m := range saved {
		e.order = append(e.order, m.SourceIndex)
		if m.Hidden {
			e.hidden[m.SourceIndex] = true
		}
	}

	for _, m := range saved {
		if m.Hidden || !m.Enabled {
			continue
		}
		for _, f := range m.TargetFields {
			if _, ok := models.ParseField(string(f)); !ok {
				continue
			}
			if _, taken := e.assigned[f]; taken {
				continue
			}
			e.assigned[f] = m.SourceIndex
		}
	}
	return e, true
}

// ResolveMappings derives field columns straight from saved records. Hidden
// and disabled columns are ignored and the first claim on a field wins.
func ResolveMappings(columns []models.ColumnMapping) map[models.Field]int {
	resolved := make(map[models.Field]int)
	for _, m := range columns {
		if m.Hidden || !m.Enabled {
			continue
		}
		for _, f := range m.TargetFields {
			if _, ok := models.ParseField(string(f)); !ok {
				continue
			}
			if _, taken := resolved[f]; !taken {
				resolved[f] = m.SourceIndex
			}
		}
	}
	return resolved
}

func (e *Editor) checkColumn(column int) error {
	if column < 0 || column >= e.columnCount {
		return fmt.Errorf("%w: %d (columns: %d)", ErrColumnOutOfRange, column, e.columnCount)
	}
	return nil
}
