// Package root contains the root command for the application
package root

import (
	"fmt"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/config"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/container"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input      string
	Output     string
	ConfigFile string
	DB         string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// AppContainer holds the wired dependencies once PersistentPreRunE ran.
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "expense-import",
		Short: "A CLI tool to import bank statements as categorized expenses.",
		Long: `expense-import is a CLI tool that imports expenses from bank statement exports
(CSV, HTML, OFX, XLS). It maps columns, resolves cities, assigns categories from
a keyword dictionary and stores the result in a SQLite database.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to expense-import!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The bare root command only prints help; it needs no database.
			if cmd == cmd.Root() {
				return nil
			}
			return Setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			Teardown()
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	if Cmd.PersistentFlags().Lookup("input") != nil {
		return
	}
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
	Cmd.PersistentFlags().StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default: config.yaml in $HOME/.expense-import, .expense-import or .)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.DB, "db", "", "SQLite database path (overrides database.path)")
}

// Setup loads the environment and configuration and builds AppContainer.
func Setup() error {
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfig(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.DB != "" {
		cfg.Database.Path = SharedFlags.DB
	}
	Log = config.ConfigureLoggingFromConfig(cfg)

	c, err := container.NewContainerWithLogger(cfg, Log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	AppContainer = c
	return nil
}

// Teardown releases AppContainer.
func Teardown() {
	if AppContainer == nil {
		return
	}
	if err := AppContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close application container")
	}
	AppContainer = nil
}
