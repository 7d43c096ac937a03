// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, e.g.
// EXPENSE_IMPORT_SKIP_DUPLICATES.
const EnvPrefix = "EXPENSE"

// LogConfig selects the log level and formatter.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// CatalogConfig locates the YAML catalog seed file.
type CatalogConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// MappingConfig locates the saved column mapping.
type MappingConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// ImportConfig tunes row building and commit.
type ImportConfig struct {
	AutoAcceptThreshold float64 `mapstructure:"auto_accept_threshold" yaml:"auto_accept_threshold"`
	NoReviewThreshold   float64 `mapstructure:"no_review_threshold" yaml:"no_review_threshold"`
	DuplicateTolerance  float64 `mapstructure:"duplicate_tolerance" yaml:"duplicate_tolerance"`
	SkipDuplicates      bool    `mapstructure:"skip_duplicates" yaml:"skip_duplicates"`
	InputMethod         string  `mapstructure:"input_method" yaml:"input_method"`
	TableIndex          int     `mapstructure:"table_index" yaml:"table_index"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address        string        `mapstructure:"address" yaml:"address"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// CSVConfig configures exported CSV files.
type CSVConfig struct {
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

// Config represents the complete application configuration
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Mapping  MappingConfig  `mapstructure:"mapping" yaml:"mapping"`
	Import   ImportConfig   `mapstructure:"import" yaml:"import"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	CSV      CSVConfig      `mapstructure:"csv" yaml:"csv"`
}

// InitializeConfig loads defaults, then config.yaml from the standard
// locations (or configFile when set), then EXPENSE_* environment variables.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.expense-import")
		v.AddConfigPath(".expense-import")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", ".expense-import/expenses.db")
	v.SetDefault("catalog.file", "catalog.yaml")
	v.SetDefault("mapping.file", ".expense-import/mapping.json")

	v.SetDefault("import.auto_accept_threshold", 0.5)
	v.SetDefault("import.no_review_threshold", 1.0)
	v.SetDefault("import.duplicate_tolerance", 0.01)
	v.SetDefault("import.skip_duplicates", false)
	v.SetDefault("import.input_method", "bulk_import")
	v.SetDefault("import.table_index", -1)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.session_ttl", "1h")
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("csv.delimiter", ",")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	imp := config.Import
	if imp.AutoAcceptThreshold < 0.0 || imp.AutoAcceptThreshold > 1.0 {
		return fmt.Errorf("import.auto_accept_threshold must be between 0.0 and 1.0, got: %f", imp.AutoAcceptThreshold)
	}
	if imp.NoReviewThreshold < imp.AutoAcceptThreshold {
		return fmt.Errorf("import.no_review_threshold must not be below import.auto_accept_threshold, got: %f", imp.NoReviewThreshold)
	}
	if imp.DuplicateTolerance < 0 {
		return fmt.Errorf("import.duplicate_tolerance must not be negative, got: %f", imp.DuplicateTolerance)
	}
	if imp.InputMethod == "" {
		return fmt.Errorf("import.input_method is required")
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if config.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.session_ttl must be positive, got: %s", config.Server.SessionTTL)
	}

	return nil
}

// Delimiter returns the configured CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	return []rune(c.CSV.Delimiter)[0]
}

// ConfigureLoggingFromConfig builds the application logger from the Config
// struct.
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
