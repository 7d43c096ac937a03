package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(originalDir))
	})
}

func TestInitializeConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, ".expense-import/expenses.db", config.Database.Path)
	assert.Equal(t, "catalog.yaml", config.Catalog.File)
	assert.Equal(t, ".expense-import/mapping.json", config.Mapping.File)
	assert.Equal(t, 0.5, config.Import.AutoAcceptThreshold)
	assert.Equal(t, 1.0, config.Import.NoReviewThreshold)
	assert.Equal(t, 0.01, config.Import.DuplicateTolerance)
	assert.False(t, config.Import.SkipDuplicates)
	assert.Equal(t, "bulk_import", config.Import.InputMethod)
	assert.Equal(t, -1, config.Import.TableIndex)
	assert.Equal(t, ":8080", config.Server.Address)
	assert.Equal(t, []string{"http://localhost:3000"}, config.Server.AllowedOrigins)
	assert.Equal(t, time.Hour, config.Server.SessionTTL)
	assert.Equal(t, int64(10<<20), config.Server.MaxUploadBytes)
	assert.Equal(t, ',', config.Delimiter())
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	testEnvVars := map[string]string{
		"EXPENSE_LOG_LEVEL":                    "debug",
		"EXPENSE_LOG_FORMAT":                   "json",
		"EXPENSE_DATABASE_PATH":                "/tmp/other.db",
		"EXPENSE_IMPORT_SKIP_DUPLICATES":       "true",
		"EXPENSE_IMPORT_AUTO_ACCEPT_THRESHOLD": "0.7",
		"EXPENSE_SERVER_SESSION_TTL":           "15m",
		"EXPENSE_CSV_DELIMITER":                ";",
	}
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "/tmp/other.db", config.Database.Path)
	assert.True(t, config.Import.SkipDuplicates)
	assert.Equal(t, 0.7, config.Import.AutoAcceptThreshold)
	assert.Equal(t, 15*time.Minute, config.Server.SessionTTL)
	assert.Equal(t, ';', config.Delimiter())
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)
	t.Setenv("HOME", t.TempDir())

	configContent := `
log:
  level: "warn"
  format: "json"
database:
  path: "data/test.db"
import:
  duplicate_tolerance: 0.05
  skip_duplicates: true
server:
  address: "127.0.0.1:9000"
  allowed_origins: ["https://example.org"]
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0644))

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "data/test.db", config.Database.Path)
	assert.Equal(t, 0.05, config.Import.DuplicateTolerance)
	assert.True(t, config.Import.SkipDuplicates)
	assert.Equal(t, "127.0.0.1:9000", config.Server.Address)
	assert.Equal(t, []string{"https://example.org"}, config.Server.AllowedOrigins)
}

func TestInitializeConfig_HierarchicalPrecedence(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)
	t.Setenv("HOME", t.TempDir())

	configContent := `
log:
  level: "warn"
import:
  input_method: "file"
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0644))
	t.Setenv("EXPENSE_LOG_LEVEL", "error")

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "error", config.Log.Level)         // env var wins
	assert.Equal(t, "file", config.Import.InputMethod) // config file value
}

func TestInitializeConfig_ExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mapping:\n  file: saved.json\n"), 0644))

	config, err := InitializeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "saved.json", config.Mapping.File)

	_, err = InitializeConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func validConfig() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Path: "x.db"},
		Import: ImportConfig{
			AutoAcceptThreshold: 0.5,
			NoReviewThreshold:   1.0,
			DuplicateTolerance:  0.01,
			InputMethod:         "bulk_import",
		},
		Server: ServerConfig{SessionTTL: time.Hour},
		CSV:    CSVConfig{Delimiter: ","},
	}
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  string
	}{
		{"invalid log level", func(c *Config) { c.Log.Level = "invalid" }, "invalid log level"},
		{"invalid log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"missing database", func(c *Config) { c.Database.Path = "" }, "database.path is required"},
		{"auto accept out of range", func(c *Config) { c.Import.AutoAcceptThreshold = 1.5 }, "import.auto_accept_threshold"},
		{"no review below auto accept", func(c *Config) { c.Import.NoReviewThreshold = 0.2 }, "import.no_review_threshold"},
		{"negative tolerance", func(c *Config) { c.Import.DuplicateTolerance = -1 }, "import.duplicate_tolerance"},
		{"missing input method", func(c *Config) { c.Import.InputMethod = "" }, "import.input_method is required"},
		{"invalid CSV delimiter", func(c *Config) { c.CSV.Delimiter = "ab" }, "CSV delimiter must be a single character"},
		{"zero session ttl", func(c *Config) { c.Server.SessionTTL = 0 }, "server.session_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modifyConfig(config)
			err := validateConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}

	assert.NoError(t, validateConfig(validConfig()))
}

func TestConfigureLoggingFromConfig(t *testing.T) {
	config := validConfig()
	config.Log.Format = "json"
	logger := ConfigureLoggingFromConfig(config)
	require.NotNil(t, logger)

	adapter, ok := logger.(*logging.LogrusAdapter)
	require.True(t, ok)
	assert.Equal(t, "info", adapter.Logrus().GetLevel().String())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	assert.Equal(t, "", LoadEnv(logging.NewMockLogger()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EXPENSE_TEST_DOTENV=loaded\n"), 0600))
	t.Setenv("EXPENSE_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("EXPENSE_TEST_DOTENV"))

	chdir(t, filepath.Join(dir, "sub"))
	assert.Equal(t, filepath.Join("..", ".env"), LoadEnv(nil))
	assert.Equal(t, "loaded", os.Getenv("EXPENSE_TEST_DOTENV"))
}
