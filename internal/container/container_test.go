package container

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/config"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Log:      config.LogConfig{Level: "info", Format: "text"},
		Database: config.DatabaseConfig{Path: filepath.Join(dir, "db", "expenses.db")},
		Mapping:  config.MappingConfig{File: filepath.Join(dir, "mapping.json")},
		Import: config.ImportConfig{
			AutoAcceptThreshold: 0.6,
			NoReviewThreshold:   0.9,
			DuplicateTolerance:  0.05,
			SkipDuplicates:      true,
			InputMethod:         "file_import",
			TableIndex:          2,
		},
		Server: config.ServerConfig{SessionTTL: time.Hour},
		CSV:    config.CSVConfig{Delimiter: ","},
	}
}

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name        string
		config      func(t *testing.T) *config.Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      func(*testing.T) *config.Config { return nil },
			expectError: true,
			errorMsg:    "configuration cannot be nil",
		},
		{
			name:   "valid config",
			config: testConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContainerWithLogger(tt.config(t), logging.NewMockLogger())
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })

			assert.NotNil(t, c.GetLogger())
			assert.NotNil(t, c.GetConfig())
			assert.NotNil(t, c.GetStore())
			assert.NotNil(t, c.GetMappingStore())
			assert.NotNil(t, c.GetManager())
			assert.Equal(t, 2, c.ParseOptions().TableIndex)
		})
	}
}

func TestImportOptions(t *testing.T) {
	opts := ImportOptions(testConfig(t))
	assert.Equal(t, 0.6, opts.AutoAcceptThreshold)
	assert.Equal(t, 0.9, opts.NoReviewThreshold)
	assert.Equal(t, "0.05", opts.DuplicateTolerance.String())
	assert.True(t, opts.SkipDuplicates)
	assert.Equal(t, "file_import", opts.InputMethod)
}

func TestNewContainer_ManagerUsesStore(t *testing.T) {
	c, err := NewContainerWithLogger(testConfig(t), logging.NewMockLogger())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	s := c.GetManager().Create()
	got, err := c.GetManager().Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
}
