package root_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/root"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "expense-import", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "import bank statements")
	assert.Contains(t, root.Cmd.Long, "SQLite database")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	root.Init()
	root.Init()

	flags := root.Cmd.PersistentFlags()
	require.NotNil(t, flags.Lookup("input"))
	assert.Equal(t, "i", flags.Lookup("input").Shorthand)
	require.NotNil(t, flags.Lookup("output"))
	assert.Equal(t, "o", flags.Lookup("output").Shorthand)
	assert.NotNil(t, flags.Lookup("config"))
	assert.NotNil(t, flags.Lookup("db"))
}

func TestRootCommand_Run(t *testing.T) {
	assert.NotPanics(t, func() {
		root.Cmd.Run(&cobra.Command{}, []string{})
	})
}

func TestRootCommand_PreRunSkipsBareRoot(t *testing.T) {
	original := root.AppContainer
	defer func() { root.AppContainer = original }()
	root.AppContainer = nil

	require.NoError(t, root.Cmd.PersistentPreRunE(root.Cmd, nil))
	assert.Nil(t, root.AppContainer)
}

func TestSetupAndTeardown(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"log:\n  level: warn\n"+
			"database:\n  path: "+filepath.Join(dir, "from-config.db")+"\n"+
			"mapping:\n  file: "+filepath.Join(dir, "mapping.json")+"\n"), 0600))

	originalFlags := root.SharedFlags
	originalLog := root.Log
	defer func() {
		root.SharedFlags = originalFlags
		root.Log = originalLog
	}()

	root.SharedFlags.ConfigFile = cfgFile
	root.SharedFlags.DB = filepath.Join(dir, "override.db")

	require.NoError(t, root.Setup())
	require.NotNil(t, root.AppContainer)
	assert.Equal(t, root.SharedFlags.DB, root.AppContainer.GetConfig().Database.Path)
	assert.FileExists(t, root.SharedFlags.DB)

	root.Teardown()
	assert.Nil(t, root.AppContainer)
	assert.NotPanics(t, root.Teardown)
}

func TestSetup_MissingConfigFile(t *testing.T) {
	originalFlags := root.SharedFlags
	defer func() { root.SharedFlags = originalFlags }()

	root.SharedFlags.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	assert.Error(t, root.Setup())
}

func TestSharedFlags_Access(t *testing.T) {
	original := root.SharedFlags
	defer func() { root.SharedFlags = original }()

	root.SharedFlags.Input = "statement.csv"
	root.SharedFlags.Output = "preview.csv"

	assert.Equal(t, "statement.csv", root.SharedFlags.Input)
	assert.Equal(t, "preview.csv", root.SharedFlags.Output)
}
