package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldFormat     = "format"
	FieldParser     = "parser"
	FieldSession    = "session_id"
	FieldState      = "state"
	FieldTableIndex = "table_index"
	FieldRow        = "row"
	FieldColumns    = "column_count"
	FieldCategory   = "category"
	FieldKeyword    = "keyword"
	FieldCity       = "city"
	FieldConfidence = "confidence"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldDelimiter  = "delimiter"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
)
