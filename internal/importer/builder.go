package importer

import (
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/categorizer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/cityresolver"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/currencyutils"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/dateutils"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/mapping"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/normalizer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/textutils"

	"github.com/google/uuid"
)

// BuildResult is the outcome of turning a mapped table into expense rows.
type BuildResult struct {
	Rows        []models.BulkExpenseRow `json:"rows"`
	Stats       models.ImportStats      `json:"stats"`
	ReviewItems []models.ReviewItem     `json:"reviewItems"`
}

// Builder turns normalized rows into expense rows. It has no side effects;
// the dictionaries it reads are loaded by the caller.
type Builder struct {
	keywords *categorizer.KeywordStrategy
	cities   *cityresolver.Resolver
	opts     Options
	logger   logging.Logger
	newID    func() string
}

// NewBuilder returns a builder over the loaded dictionaries.
func NewBuilder(keywords *categorizer.KeywordStrategy, cities *cityresolver.Resolver, opts Options, logger logging.Logger) *Builder {
	logger = logging.OrDefault(logger)
	if keywords == nil {
		keywords = categorizer.NewKeywordStrategy(nil, logger)
	}
	if cities == nil {
		cities = cityresolver.New(nil, logger)
	}
	return &Builder{
		keywords: keywords,
		cities:   cities,
		opts:     opts,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Resolver returns the city resolver the builder uses.
func (b *Builder) Resolver() *cityresolver.Resolver {
	return b.cities
}

// Build applies columns to every row of table. Rows without a positive
// amount or a description are skipped and counted. When no column carries
// the city, one is extracted from the description and a review item is
// raised for it.
func (b *Builder) Build(table normalizer.Table, columns []models.ColumnMapping) BuildResult {
	resolved := mapping.ResolveMappings(columns)
	descriptionLabel := ""
	if col, ok := resolved[models.FieldDescription]; ok {
		descriptionLabel = columnLabel(columns, col)
	}

	result := BuildResult{
		Rows:        make([]models.BulkExpenseRow, 0, len(table.Rows)),
		ReviewItems: make([]models.ReviewItem, 0),
	}
	result.Stats.TotalRows = len(table.Rows)

	for i, cells := range table.Rows {
		cell := func(f models.Field) (string, bool) {
			col, ok := resolved[f]
			if !ok || col >= len(cells) {
				return "", false
			}
			return textutils.CollapseWhitespace(cells[col]), true
		}

		row, ok := b.buildRow(i, cell, &result.Stats)
		if !ok {
			result.Stats.SkippedRows++
			continue
		}

		if _, cityMapped := resolved[models.FieldCity]; !cityMapped {
			if item, found := b.extractCity(&row, len(result.Rows), descriptionLabel, &result.Stats); found {
				result.ReviewItems = append(result.ReviewItems, item)
			}
		}

		result.Rows = append(result.Rows, row)
	}

	result.Stats.ImportedRows = len(result.Rows)
	b.logger.Debug("Rows built",
		logging.F(logging.FieldCount, result.Stats.ImportedRows),
		logging.F("skipped", result.Stats.SkippedRows),
		logging.F("review_items", len(result.ReviewItems)))
	return result
}

func (b *Builder) buildRow(index int, cell func(models.Field) (string, bool), stats *models.ImportStats) (models.BulkExpenseRow, bool) {
	rawAmount, _ := cell(models.FieldAmount)
	amount, err := currencyutils.ParseAmount(rawAmount)
	if err != nil {
		b.logger.Debug("Skipping row with unparseable amount",
			logging.F(logging.FieldRow, index),
			logging.F("amount", rawAmount))
		return models.BulkExpenseRow{}, false
	}
	amount = amount.Abs()

	description, _ := cell(models.FieldDescription)
	row := models.BulkExpenseRow{
		TempID:      b.newID(),
		Amount:      amount,
		Description: description,
		SourceRow:   index,
	}
	if !row.Valid() {
		b.logger.Debug("Skipping row without amount or description", logging.F(logging.FieldRow, index))
		return models.BulkExpenseRow{}, false
	}

	row.Notes, _ = cell(models.FieldNotes)

	row.ExpenseDate = dateutils.Today()
	if rawDate, ok := cell(models.FieldDate); ok {
		date, tod := dateutils.ParseDateTime(rawDate)
		row.ExpenseDate = date
		if tod != "" {
			row.ExpenseTime = &tod
			stats.DetectedTimes++
		}
	}
	if row.ExpenseTime == nil {
		if rawTime, ok := cell(models.FieldTime); ok {
			if tod, valid := dateutils.ParseTime(rawTime); valid {
				row.ExpenseTime = &tod
				stats.ManualTimes++
			}
		}
	}

	if rawCity, ok := cell(models.FieldCity); ok && rawCity != "" {
		b.applyCity(&row, rawCity)
		stats.ManualCities++
	}

	if match, ok := b.keywords.Categorize(description); ok {
		categoryID := match.CategoryID
		row.CategoryID = &categoryID
		row.MatchedKeyword = match.Literal
		stats.CategorizedRows++
	}
	return row, true
}

// extractCity looks for a city in the row description. Candidates below
// the auto-accept threshold are dropped. The rest are applied right away,
// and those not above the no-review threshold get a review item so the
// user can undo or correct them.
func (b *Builder) extractCity(row *models.BulkExpenseRow, rowIndex int, label string, stats *models.ImportStats) (models.ReviewItem, bool) {
	ext, ok := b.cities.Extract(row.Description)
	if !ok || ext.Confidence < b.opts.AutoAcceptThreshold {
		return nil, false
	}

	item := models.CityFromDescription{
		RowIndex:           rowIndex,
		ColumnLabel:        label,
		SourceValue:        row.Description,
		ExtractedCity:      ext.City,
		CleanedDescription: ext.CleanedDescription,
		Confidence:         ext.Confidence,
	}

	b.applyCity(row, ext.City)
	row.Description = ext.CleanedDescription
	stats.AutoDetectedCities++

	if ext.Confidence > b.opts.NoReviewThreshold {
		return nil, false
	}
	return item, true
}

// applyCity sets the catalog city when name resolves, the raw name
// otherwise.
func (b *Builder) applyCity(row *models.BulkExpenseRow, name string) {
	if c, ok := b.cities.Resolve(name); ok {
		id := c.ID
		row.City = c.Name
		row.CityID = &id
		return
	}
	row.City = textutils.TitleCase(textutils.CollapseWhitespace(name))
	row.CityID = nil
}

// columnLabel returns the positional label of col among the visible
// columns in display order.
func columnLabel(columns []models.ColumnMapping, col int) string {
	pos := 0
	for _, m := range columns {
		if m.Hidden {
			continue
		}
		if m.SourceIndex == col {
			return mapping.PositionLabel(pos)
		}
		pos++
	}
	return ""
}
