// Package store persists the expense catalog and committed expenses in
// SQLite. A *DB serves as the dictionary source, the commit target, the
// unrecognized-city tracker and the duplicate lookup for import sessions.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
	logger logging.Logger
	now    func() time.Time
}

// Open opens or creates the database at dbPath.
func Open(dbPath string, logger logging.Logger) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: db, logger: logging.OrDefault(logger), now: time.Now}, nil
}

// Init creates tables if they don't exist.
func (db *DB) Init() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// OpenAndInit opens the database and applies the schema.
func OpenAndInit(dbPath string, logger logging.Logger) (*DB, error) {
	db, err := Open(dbPath, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
