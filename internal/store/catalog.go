package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a catalog entry does not exist.
var ErrNotFound = errors.New("not found")

// ListCategories returns all categories ordered by name.
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpsertCategory returns the category called name, creating it when it does
// not exist. An empty id means a generated one.
func (db *DB) UpsertCategory(ctx context.Context, id, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("category name is required")
	}
	if id == "" {
		id = uuid.NewString()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, id, name, db.now())
	if err != nil {
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}

	var c models.Category
	err = db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE name = ?`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		return models.Category{}, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

// AddKeyword attaches keyword and its synonyms to a category. An existing
// keyword keeps its category and only gains the new synonyms.
func (db *DB) AddKeyword(ctx context.Context, categoryID, keyword string, synonyms []string) (models.Keyword, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return models.Keyword{}, fmt.Errorf("keyword is required")
	}
	if err := requireCategory(ctx, db, categoryID); err != nil {
		return models.Keyword{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.Keyword{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO category_keywords (id, category_id, keyword, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(keyword) DO NOTHING
	`, uuid.NewString(), categoryID, keyword, db.now())
	if err != nil {
		return models.Keyword{}, fmt.Errorf("insert keyword: %w", err)
	}

	var k models.Keyword
	err = tx.QueryRowContext(ctx, `
		SELECT id, category_id, keyword, created_at FROM category_keywords WHERE keyword = ?
	`, keyword).Scan(&k.ID, &k.CategoryID, &k.Keyword, &k.CreatedAt)
	if err != nil {
		return models.Keyword{}, fmt.Errorf("query keyword: %w", err)
	}

	for _, syn := range synonyms {
		syn = strings.TrimSpace(syn)
		if syn == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO keyword_synonyms (keyword_id, synonym) VALUES (?, ?)`, k.ID, syn); err != nil {
			return models.Keyword{}, fmt.Errorf("insert keyword synonym: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Keyword{}, fmt.Errorf("commit keyword: %w", err)
	}

	k.Synonyms, err = db.keywordSynonyms(ctx, k.ID)
	if err != nil {
		return models.Keyword{}, err
	}
	return k, nil
}

// LoadKeywords returns every keyword with its synonyms, newest first. The
// order matters: the categorizer takes the first match.
func (db *DB) LoadKeywords(ctx context.Context) ([]models.Keyword, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, category_id, keyword, created_at
		FROM category_keywords
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()

	var keywords []models.Keyword
	for rows.Next() {
		var k models.Keyword
		if err := rows.Scan(&k.ID, &k.CategoryID, &k.Keyword, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	synonyms, err := db.synonymsBy(ctx, `SELECT keyword_id, synonym FROM keyword_synonyms ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query keyword synonyms: %w", err)
	}
	for i := range keywords {
		keywords[i].Synonyms = synonyms[keywords[i].ID]
	}

	db.logger.Debug("Loaded keywords", logging.F(logging.FieldCount, len(keywords)))
	return keywords, nil
}

// AddCity stores a canonical city with its synonyms. An existing city only
// gains the new synonyms.
func (db *DB) AddCity(ctx context.Context, name string, synonyms []string) (models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.City{}, fmt.Errorf("city name is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.City{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cities (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, uuid.NewString(), name, db.now())
	if err != nil {
		return models.City{}, fmt.Errorf("insert city: %w", err)
	}

	var c models.City
	if err := tx.QueryRowContext(ctx, `SELECT id, name FROM cities WHERE name = ?`, name).Scan(&c.ID, &c.Name); err != nil {
		return models.City{}, fmt.Errorf("query city: %w", err)
	}

	for _, syn := range synonyms {
		syn = strings.TrimSpace(syn)
		if syn == "" || strings.EqualFold(syn, c.Name) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO city_synonyms (city_id, synonym) VALUES (?, ?)`, c.ID, syn); err != nil {
			return models.City{}, fmt.Errorf("insert city synonym: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.City{}, fmt.Errorf("commit city: %w", err)
	}

	synonymsByCity, err := db.synonymsBy(ctx, `SELECT city_id, synonym FROM city_synonyms WHERE city_id = ? ORDER BY rowid`, c.ID)
	if err != nil {
		return models.City{}, fmt.Errorf("query city synonyms: %w", err)
	}
	c.Synonyms = synonymsByCity[c.ID]
	return c, nil
}

// LoadCities returns the city catalog with synonyms, ordered by name.
func (db *DB) LoadCities(ctx context.Context) ([]models.City, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []models.City
	for rows.Next() {
		var c models.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	synonyms, err := db.synonymsBy(ctx, `SELECT city_id, synonym FROM city_synonyms ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query city synonyms: %w", err)
	}
	for i := range cities {
		cities[i].Synonyms = synonyms[cities[i].ID]
	}

	db.logger.Debug("Loaded cities", logging.F(logging.FieldCount, len(cities)))
	return cities, nil
}

func (db *DB) keywordSynonyms(ctx context.Context, keywordID string) ([]string, error) {
	synonyms, err := db.synonymsBy(ctx, `SELECT keyword_id, synonym FROM keyword_synonyms WHERE keyword_id = ? ORDER BY rowid`, keywordID)
	if err != nil {
		return nil, fmt.Errorf("query keyword synonyms: %w", err)
	}
	return synonyms[keywordID], nil
}

// synonymsBy runs a two-column (owner id, synonym) query and groups the
// synonyms by owner.
func (db *DB) synonymsBy(ctx context.Context, query string, args ...interface{}) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var owner, synonym string
		if err := rows.Scan(&owner, &synonym); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], synonym)
	}
	return out, rows.Err()
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func requireCategory(ctx context.Context, q rowQuerier, id string) error {
	return requireRow(ctx, q, `SELECT 1 FROM categories WHERE id = ?`, "category", id)
}

func requireCity(ctx context.Context, q rowQuerier, id string) error {
	return requireRow(ctx, q, `SELECT 1 FROM cities WHERE id = ?`, "city", id)
}

func requireRow(ctx context.Context, q rowQuerier, query, kind, id string) error {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query %s: %w", kind, err)
	}
	return nil
}
