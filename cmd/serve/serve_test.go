package serve_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/root"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/serve"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/config"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/container"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "serve", serve.Cmd.Use)
	assert.Contains(t, serve.Cmd.Short, "HTTP")
	assert.Contains(t, serve.Cmd.Long, "session_ttl")
	assert.NotNil(t, serve.Cmd.Run)
	assert.NotNil(t, serve.Cmd.Flags().Lookup("addr"))
}

func TestServeCommand_Run_NilContainer(t *testing.T) {
	originalContainer := root.AppContainer
	originalLog := root.Log
	defer func() {
		root.AppContainer = originalContainer
		root.Log = originalLog
	}()

	logger := logging.NewMockLogger()
	root.Log = logger
	root.AppContainer = nil

	assert.NotPanics(t, func() {
		serve.Cmd.Run(&cobra.Command{}, []string{})
	})
	assert.True(t, logger.HasEntry("FATAL", "Application container not initialized"))
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Database.Path = filepath.Join(dir, "expenses.db")
	cfg.Mapping.File = filepath.Join(dir, "mapping.json")
	cfg.Import.InputMethod = "bulk_import"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Server.SessionTTL = time.Hour
	cfg.CSV.Delimiter = ","

	logger := logging.NewMockLogger()
	c, err := container.NewContainerWithLogger(cfg, logger)
	require.NoError(t, err)
	defer c.Close()

	originalContainer := root.AppContainer
	originalLog := root.Log
	defer func() {
		root.AppContainer = originalContainer
		root.Log = originalLog
	}()
	root.AppContainer = c
	root.Log = logger

	rec := httptest.NewRecorder()
	serve.NewServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/categories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
