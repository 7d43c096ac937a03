package cityresolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/textutils"
)

// Tracker persists unrecognized city names, creating the record or adding
// count to its frequency.
type Tracker interface {
	RecordUnrecognizedCity(ctx context.Context, name string, count int) error
}

// TallyEntry is one unrecognized city and how often it occurred.
type TallyEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Tally counts unrecognized city names case-insensitively, keeping the
// spelling seen first. It is owned by a single import session.
type Tally struct {
	counts map[string]*TallyEntry
	order  []string
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]*TallyEntry)}
}

// Add records one occurrence of name.
func (t *Tally) Add(name string) {
	display := textutils.CollapseWhitespace(name)
	key := textutils.Fold(display)
	if key == "" {
		return
	}
	if e, ok := t.counts[key]; ok {
		e.Count++
		return
	}
	t.counts[key] = &TallyEntry{Name: display, Count: 1}
	t.order = append(t.order, key)
}

// Len returns the number of distinct names.
func (t *Tally) Len() int {
	return len(t.order)
}

// Entries returns the names by descending count, then first appearance.
func (t *Tally) Entries() []TallyEntry {
	out := make([]TallyEntry, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, *t.counts[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Flush sends every entry to tracker and clears the ones that were stored.
// The first failure stops the flush and is returned.
func (t *Tally) Flush(ctx context.Context, tracker Tracker) error {
	for _, entry := range t.Entries() {
		if err := tracker.RecordUnrecognizedCity(ctx, entry.Name, entry.Count); err != nil {
			return fmt.Errorf("failed to record unrecognized city %q: %w", entry.Name, err)
		}
		key := textutils.Fold(entry.Name)
		delete(t.counts, key)
		for i, k := range t.order {
			if k == key {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
	return nil
}
