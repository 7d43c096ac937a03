package models

import "time"

// Category is an expense category from the catalog.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Keyword maps a text fragment (and its synonyms) to a category.
type Keyword struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Keyword    string    `json:"keyword"`
	Synonyms   []string  `json:"synonyms,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// City is a canonical city name with its alternate spellings.
type City struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// UnrecognizedCity is a free-text city the resolver could not match,
// tracked by frequency for later triage.
type UnrecognizedCity struct {
	Name      string    `json:"name"`
	Frequency int       `json:"frequency"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}
