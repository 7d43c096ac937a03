package importer

import (
	"fmt"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// applyDecisions resolves review items against the user's decisions.
// Items without a decision keep the city the build applied. A row takes
// at most one decision.
func (b *Builder) applyDecisions(result *BuildResult, decisions []models.ReviewDecision) error {
	items := make(map[int]models.CityFromDescription, len(result.ReviewItems))
	for _, item := range result.ReviewItems {
		switch it := item.(type) {
		case models.CityFromDescription:
			items[it.RowIndex] = it
		}
	}

	seen := make(map[int]bool, len(decisions))
	for _, d := range decisions {
		if seen[d.RowIndex] {
			return fmt.Errorf("row %d has more than one review decision", d.RowIndex)
		}
		seen[d.RowIndex] = true

		switch d.Action {
		case models.ReviewAccept, models.ReviewReject:
		case models.ReviewOverride:
			if strings.TrimSpace(d.City) == "" {
				return fmt.Errorf("override for row %d needs a city", d.RowIndex)
			}
		default:
			return fmt.Errorf("unknown review action %q for row %d", d.Action, d.RowIndex)
		}
	}

	for _, d := range decisions {
		item, ok := items[d.RowIndex]
		if !ok || d.RowIndex < 0 || d.RowIndex >= len(result.Rows) {
			b.logger.Warn("Ignoring decision for row without review item", logging.F(logging.FieldRow, d.RowIndex))
			continue
		}
		row := &result.Rows[d.RowIndex]

		// every item was applied at build time and counted as auto-detected
		switch d.Action {
		case models.ReviewAccept:
			b.applyCity(row, item.ExtractedCity)
			row.Description = item.CleanedDescription
		case models.ReviewReject:
			row.City = ""
			row.CityID = nil
			row.Description = item.SourceValue
			result.Stats.AutoDetectedCities--
		case models.ReviewOverride:
			b.applyCity(row, strings.TrimSpace(d.City))
			row.Description = item.CleanedDescription
			result.Stats.AutoDetectedCities--
			result.Stats.ManualCities++
		}
	}
	return nil
}
