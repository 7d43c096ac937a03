// Package cityresolver extracts city names from free-text transaction
// descriptions and resolves them against the city catalog.
package cityresolver

import (
	"math"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/textutils"
)

// Extraction is the best city candidate found in a description.
type Extraction struct {
	City               string
	CleanedDescription string
	Confidence         float64
	Pattern            string
	Known              bool
}

// Resolver matches city text against a catalog loaded once per import.
type Resolver struct {
	byName    map[string]models.City
	bySynonym map[string]models.City
	known     map[string]bool
	logger    logging.Logger
}

// New builds a resolver over cities. Catalog names and synonyms count as
// known cities in addition to the built-in list.
func New(cities []models.City, logger logging.Logger) *Resolver {
	r := &Resolver{
		byName:    make(map[string]models.City, len(cities)),
		bySynonym: make(map[string]models.City),
		known:     make(map[string]bool, len(builtinCities)+len(cities)),
		logger:    logging.OrDefault(logger),
	}
	for _, name := range builtinCities {
		r.known[textutils.Fold(name)] = true
	}
	for _, c := range cities {
		key := textutils.Fold(c.Name)
		if key == "" {
			continue
		}
		if _, exists := r.byName[key]; !exists {
			r.byName[key] = c
		}
		r.known[key] = true
		for _, syn := range c.Synonyms {
			sk := textutils.Fold(syn)
			if sk == "" {
				continue
			}
			if _, exists := r.bySynonym[sk]; !exists {
				r.bySynonym[sk] = c
			}
			r.known[sk] = true
		}
	}
	return r
}

// Resolve looks name up case-insensitively, canonical names first, then
// synonyms.
func (r *Resolver) Resolve(name string) (models.City, bool) {
	key := textutils.Fold(textutils.CollapseWhitespace(name))
	if key == "" {
		return models.City{}, false
	}
	if c, ok := r.byName[key]; ok {
		return c, true
	}
	if c, ok := r.bySynonym[key]; ok {
		return c, true
	}
	return models.City{}, false
}

// IsKnown reports whether name is a built-in or catalog city.
func (r *Resolver) IsKnown(name string) bool {
	return r.known[textutils.Fold(textutils.CollapseWhitespace(name))]
}

// Extract runs every pattern over description and returns the highest
// scoring candidate. Known cities get a bonus, capped at 1.0.
func (r *Resolver) Extract(description string) (Extraction, bool) {
	description = textutils.CollapseWhitespace(description)
	if description == "" {
		return Extraction{}, false
	}

	var best Extraction
	found := false
	for _, p := range patterns {
		ext, ok := r.apply(p, description)
		if !ok {
			continue
		}
		if !found || ext.Confidence > best.Confidence {
			best = ext
			found = true
		}
	}

	if found {
		r.logger.Debug("City extracted from description",
			logging.F(logging.FieldCity, best.City),
			logging.F(logging.FieldConfidence, best.Confidence),
			logging.F("pattern", best.Pattern))
	}
	return best, found
}

func (r *Resolver) apply(p pattern, description string) (Extraction, bool) {
	idx := p.re.FindStringSubmatchIndex(description)
	if idx == nil || idx[2*p.city] < 0 {
		return Extraction{}, false
	}

	city := strings.TrimSpace(description[idx[2*p.city]:idx[2*p.city+1]])
	if city == "" || textutils.ContainsDigit(city) || transportWords[textutils.Fold(city)] {
		return Extraction{}, false
	}

	var cleaned string
	if p.merchant > 0 {
		cleaned = description[idx[2*p.merchant]:idx[2*p.merchant+1]]
	} else {
		cleaned = description[:idx[2*p.cut]] + " " + description[idx[2*p.cut+1]:]
	}
	cleaned = cleanDescription(cleaned)
	if cleaned == "" {
		cleaned = textutils.TitleCase(description)
	}

	known := r.IsKnown(city)
	confidence := p.confidence
	if known {
		confidence = math.Min(1.0, confidence+knownCityBonus)
	}
	return Extraction{
		City:               city,
		CleanedDescription: cleaned,
		Confidence:         round2(confidence),
		Pattern:            p.name,
		Known:              known,
	}, true
}

// round2 keeps scores like 0.4+0.3 comparable as 0.7.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
