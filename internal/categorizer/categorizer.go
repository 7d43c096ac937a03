// Package categorizer infers an expense category from its description by
// matching a keyword dictionary.
package categorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// KeywordSource supplies the keyword dictionary, most recently created first.
type KeywordSource interface {
	LoadKeywords(ctx context.Context) ([]models.Keyword, error)
}

// Match is the result of a successful categorization.
type Match struct {
	CategoryID string
	KeywordID  string
	// Literal is the keyword or synonym text that fired
	Literal string
}

type entry struct {
	keyword  models.Keyword
	literals []string // keyword first, then synonyms
	folded   []string
}

// KeywordStrategy categorizes by case-insensitive substring match. The first
// keyword whose text or any synonym occurs in the description wins, in the
// order the dictionary was supplied.
type KeywordStrategy struct {
	entries []entry
	stats   Stats
	logger  logging.Logger
}

// NewKeywordStrategy builds a strategy over keywords. Blank literals and
// keywords without a category are ignored.
func NewKeywordStrategy(keywords []models.Keyword, logger logging.Logger) *KeywordStrategy {
	s := &KeywordStrategy{
		entries: make([]entry, 0, len(keywords)),
		logger:  logging.OrDefault(logger),
	}
	for _, kw := range keywords {
		e := entry{keyword: kw}
		for _, lit := range append([]string{kw.Keyword}, kw.Synonyms...) {
			trimmed := strings.TrimSpace(lit)
			if trimmed == "" {
				continue
			}
			e.literals = append(e.literals, trimmed)
			e.folded = append(e.folded, strings.ToLower(trimmed))
		}
		if len(e.folded) > 0 && kw.CategoryID != "" {
			s.entries = append(s.entries, e)
		}
	}
	return s
}

// LoadKeywordStrategy loads the dictionary once from source.
func LoadKeywordStrategy(ctx context.Context, source KeywordSource, logger logging.Logger) (*KeywordStrategy, error) {
	keywords, err := source.LoadKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load keywords: %w", err)
	}
	s := NewKeywordStrategy(keywords, logger)
	s.logger.WithField(logging.FieldCount, len(s.entries)).Debug("Loaded keywords for KeywordStrategy")
	return s, nil
}

// Name returns the name of this strategy for logging.
func (s *KeywordStrategy) Name() string {
	return "Keyword"
}

// Len returns the number of usable keywords.
func (s *KeywordStrategy) Len() int {
	return len(s.entries)
}

// Categorize returns the first keyword match for description.
func (s *KeywordStrategy) Categorize(description string) (Match, bool) {
	s.stats.IncrementTotal()

	text := strings.ToLower(description)
	if strings.TrimSpace(text) == "" {
		s.stats.IncrementUncategorized()
		return Match{}, false
	}

	for _, e := range s.entries {
		for i, lit := range e.folded {
			if !strings.Contains(text, lit) {
				continue
			}
			s.logger.WithFields(
				logging.F("strategy", s.Name()),
				logging.F(logging.FieldKeyword, e.literals[i]),
				logging.F(logging.FieldCategory, e.keyword.CategoryID),
			).Debug("Expense categorized using keyword matching")

			s.stats.IncrementSuccessful()
			return Match{
				CategoryID: e.keyword.CategoryID,
				KeywordID:  e.keyword.ID,
				Literal:    e.literals[i],
			}, true
		}
	}

	s.stats.IncrementUncategorized()
	return Match{}, false
}

// Stats returns the counters accumulated since the strategy was built.
func (s *KeywordStrategy) Stats() Stats {
	return s.stats
}
