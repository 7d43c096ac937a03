package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// RecordUnrecognizedCity creates the tracker entry for name or increments
// its frequency by count. Names compare case-insensitively; the first
// spelling seen is kept.
func (db *DB) RecordUnrecognizedCity(ctx context.Context, name string, count int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("unrecognized city name is required")
	}
	if count < 1 {
		count = 1
	}

	now := db.now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO unrecognized_cities (name, frequency, first_seen, last_seen) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			frequency = frequency + excluded.frequency,
			last_seen = excluded.last_seen
	`, name, count, now, now)
	if err != nil {
		return fmt.Errorf("record unrecognized city: %w", err)
	}

	db.logger.Debug("Recorded unrecognized city",
		logging.F(logging.FieldCity, name),
		logging.F(logging.FieldCount, count))
	return nil
}

// ListUnrecognizedCities returns tracked cities, most frequent first. A
// positive limit caps the result.
func (db *DB) ListUnrecognizedCities(ctx context.Context, limit int) ([]models.UnrecognizedCity, error) {
	query := `
		SELECT name, frequency, first_seen, last_seen
		FROM unrecognized_cities
		ORDER BY frequency DESC, name
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unrecognized cities: %w", err)
	}
	defer rows.Close()

	var cities []models.UnrecognizedCity
	for rows.Next() {
		var c models.UnrecognizedCity
		if err := rows.Scan(&c.Name, &c.Frequency, &c.FirstSeen, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("scan unrecognized city: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}
