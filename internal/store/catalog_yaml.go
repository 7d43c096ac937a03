package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	"gopkg.in/yaml.v3"
)

// CatalogFile is the YAML seed format:
//
//	categories:
//	  - id: food
//	    name: Food
//	    keywords:
//	      - keyword: kebab
//	        synonyms: [шаурма]
//	cities:
//	  - name: Минск
//	    synonyms: [Minsk]
type CatalogFile struct {
	Categories []CatalogCategory `yaml:"categories"`
	Cities     []CatalogCity     `yaml:"cities"`
}

// CatalogCategory is a category entry of the seed file.
type CatalogCategory struct {
	ID       string           `yaml:"id"`
	Name     string           `yaml:"name"`
	Keywords []CatalogKeyword `yaml:"keywords"`
}

// CatalogKeyword is a keyword entry of the seed file.
type CatalogKeyword struct {
	Keyword  string   `yaml:"keyword"`
	Synonyms []string `yaml:"synonyms"`
}

// CatalogCity is a city entry of the seed file.
type CatalogCity struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

// SeedResult counts what a seed run touched.
type SeedResult struct {
	Categories int
	Keywords   int
	Cities     int
}

// FindCatalogFile resolves filename against the working directory, a
// config/ or database/ subdirectory, then ~/.expense-import.
func FindCatalogFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err != nil {
			return "", err
		}
		return filename, nil
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".expense-import", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", fmt.Errorf("catalog file %s: %w", filename, os.ErrNotExist)
}

// LoadCatalogFile reads and decodes a YAML seed file.
func LoadCatalogFile(path string) (CatalogFile, error) {
	resolved, err := FindCatalogFile(path)
	if err != nil {
		return CatalogFile{}, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return CatalogFile{}, fmt.Errorf("read catalog file: %w", err)
	}

	var catalog CatalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return CatalogFile{}, fmt.Errorf("parse catalog file %s: %w", resolved, err)
	}
	return catalog, nil
}

// Seed upserts every category, keyword and city of catalog. Running it
// twice is harmless.
func (db *DB) Seed(ctx context.Context, catalog CatalogFile) (SeedResult, error) {
	var res SeedResult

	for _, cc := range catalog.Categories {
		category, err := db.UpsertCategory(ctx, cc.ID, cc.Name)
		if err != nil {
			return res, fmt.Errorf("seed category %q: %w", cc.Name, err)
		}
		res.Categories++

		for _, ck := range cc.Keywords {
			if _, err := db.AddKeyword(ctx, category.ID, ck.Keyword, ck.Synonyms); err != nil {
				return res, fmt.Errorf("seed keyword %q: %w", ck.Keyword, err)
			}
			res.Keywords++
		}
	}

	for _, city := range catalog.Cities {
		if _, err := db.AddCity(ctx, city.Name, city.Synonyms); err != nil {
			return res, fmt.Errorf("seed city %q: %w", city.Name, err)
		}
		res.Cities++
	}

	db.logger.WithFields(
		logging.F("categories", res.Categories),
		logging.F("keywords", res.Keywords),
		logging.F("cities", res.Cities),
	).Info("Seeded catalog")
	return res, nil
}
