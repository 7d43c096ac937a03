package models

import "encoding/json"

// ReviewKind tags the variants of ReviewItem.
type ReviewKind string

const (
	ReviewCityFromDescription ReviewKind = "city-from-description"
)

// ReviewItem is a low-confidence automatic extraction the user confirms
// before commit. Implementations are closed to this package; switch on the
// concrete type to handle every kind.
type ReviewItem interface {
	Kind() ReviewKind
	Row() int
	reviewItem()
}

// CityFromDescription is a city extracted from free description text rather
// than read from a mapped city column.
type CityFromDescription struct {
	RowIndex           int     `json:"rowIndex"`
	ColumnLabel        string  `json:"columnLabel"`
	SourceValue        string  `json:"sourceValue"`
	ExtractedCity      string  `json:"extractedCity"`
	CleanedDescription string  `json:"cleanedDescription"`
	Confidence         float64 `json:"confidence"`
}

func (CityFromDescription) Kind() ReviewKind { return ReviewCityFromDescription }
func (c CityFromDescription) Row() int       { return c.RowIndex }
func (CityFromDescription) reviewItem()      {}

// MarshalJSON adds the kind tag so clients can discriminate variants.
func (c CityFromDescription) MarshalJSON() ([]byte, error) {
	type plain CityFromDescription
	return json.Marshal(struct {
		Type ReviewKind `json:"type"`
		plain
	}{Type: c.Kind(), plain: plain(c)})
}

// ReviewAction is the user's verdict on a review item.
type ReviewAction string

const (
	ReviewAccept   ReviewAction = "accept"
	ReviewReject   ReviewAction = "reject"
	ReviewOverride ReviewAction = "override"
)

// ReviewDecision targets the review item of one row. City is only read for
// ReviewOverride.
type ReviewDecision struct {
	RowIndex int          `json:"rowIndex"`
	Action   ReviewAction `json:"action"`
	City     string       `json:"city,omitempty"`
}
