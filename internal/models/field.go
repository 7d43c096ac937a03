package models

// Field is a semantic expense field a table column can be mapped to.
type Field string

const (
	FieldAmount      Field = "amount"
	FieldDescription Field = "description"
	FieldCity        Field = "city"
	FieldDate        Field = "date"
	FieldTime        Field = "time"
	FieldNotes       Field = "notes"
)

// Fields is the mapping vocabulary in display order.
var Fields = []Field{FieldAmount, FieldDescription, FieldCity, FieldDate, FieldTime, FieldNotes}

// ParseField returns the Field named s, or false for unknown and legacy names.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Required reports whether a row cannot be built without this field.
func (f Field) Required() bool {
	return f == FieldAmount || f == FieldDescription
}
