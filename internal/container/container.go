// Package container provides dependency injection for the expense importer.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/config"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/factory"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/importer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/store"

	"github.com/shopspring/decimal"
)

// The store is the persistence collaborator of every session.
var (
	_ importer.Dictionaries            = (*store.DB)(nil)
	_ importer.Committer               = (*store.DB)(nil)
	_ importer.UnrecognizedCityTracker = (*store.DB)(nil)
	_ importer.ExistingExpenses        = (*store.DB)(nil)
	_ importer.MappingStore            = (*store.MappingFile)(nil)
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation; all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	db       *store.DB
	mappings *store.MappingFile
	manager  *importer.Manager
}

// NewContainer creates and wires all application dependencies: logger,
// database, mapping store and the import session manager.
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithLogger(cfg, nil)
}

// NewContainerWithLogger is NewContainer with a preconfigured logger. A nil
// logger is built from cfg.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	if logger == nil {
		logger = config.ConfigureLoggingFromConfig(cfg)
	}

	db, err := store.OpenAndInit(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	mappings := store.NewMappingFile(cfg.Mapping.File)

	manager := importer.NewManager(importer.Deps{
		Dictionaries: db,
		Committer:    db,
		Tracker:      db,
		Existing:     db,
		Mappings:     mappings,
		Options:      ImportOptions(cfg),
	}, logger)

	logger.Info("Container initialized successfully",
		logging.F(logging.FieldFile, cfg.Database.Path),
		logging.F("mapping_file", cfg.Mapping.File))

	return &Container{
		logger:   logger,
		config:   cfg,
		db:       db,
		mappings: mappings,
		manager:  manager,
	}, nil
}

// ImportOptions converts the import section of cfg.
func ImportOptions(cfg *config.Config) importer.Options {
	opts := importer.DefaultOptions()
	opts.AutoAcceptThreshold = cfg.Import.AutoAcceptThreshold
	opts.NoReviewThreshold = cfg.Import.NoReviewThreshold
	opts.DuplicateTolerance = decimal.NewFromFloat(cfg.Import.DuplicateTolerance)
	opts.SkipDuplicates = cfg.Import.SkipDuplicates
	if cfg.Import.InputMethod != "" {
		opts.InputMethod = cfg.Import.InputMethod
	}
	return opts
}

// ParseOptions returns the parser options from cfg.
func (c *Container) ParseOptions() factory.Options {
	return factory.Options{TableIndex: c.config.Import.TableIndex}
}

// GetLogger returns the logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the application configuration.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the database.
func (c *Container) GetStore() *store.DB {
	return c.db
}

// GetMappingStore returns the saved-mapping store.
func (c *Container) GetMappingStore() *store.MappingFile {
	return c.mappings
}

// GetManager returns the import session registry.
func (c *Container) GetManager() *importer.Manager {
	return c.manager
}

// Close releases the database.
func (c *Container) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
