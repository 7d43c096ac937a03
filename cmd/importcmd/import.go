// Package importcmd handles the direct import command
package importcmd

import (
	"context"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/common"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/root"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/batch"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/importer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	"github.com/spf13/cobra"
)

var (
	tableIndex int
	policy     = common.ReviewKeep
	columns    map[string]int
	inputDir   string
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a statement straight into the database",
	Long: `Import a statement straight into the database. Columns are mapped with the
proposed mapping, adjusted with --column field=index. Cities found in descriptions
are resolved with the --review policy: keep (leave them as detected), accept or reject.
With --dir, every statement of the directory is gathered and committed at once.`,
	Run: importFunc,
}

func init() {
	Cmd.Flags().IntVar(&tableIndex, "table", -1, "HTML table to read (-1 picks the only transaction table)")
	Cmd.Flags().Var(&policy, "review", "How to resolve cities found in descriptions: keep, accept or reject")
	Cmd.Flags().StringToIntVar(&columns, "column", nil, "Map a field to a zero-based column, e.g. --column amount=2")
	Cmd.Flags().StringVarP(&inputDir, "dir", "d", "", "Import every statement in this directory as one batch")
}

func importFunc(cmd *cobra.Command, args []string) {
	root.Log.Info("Import command called", logging.F(logging.FieldInputFile, root.SharedFlags.Input))

	if root.AppContainer == nil {
		root.Log.Fatal("Application container not initialized")
		return
	}

	opts := common.ProcessOptions{
		Parse:   root.AppContainer.ParseOptions(),
		Mode:    importer.ModeDirect,
		Policy:  policy,
		Columns: columns,
	}
	if cmd.Flags().Changed("table") {
		opts.Parse.TableIndex = tableIndex
	}

	manager := root.AppContainer.GetManager()
	session := manager.Create()
	defer manager.Delete(session.ID())

	var (
		snap importer.Snapshot
		dr   batch.DateRange
		err  error
	)
	if inputDir != "" {
		snap, dr, err = common.ProcessDir(context.Background(), session, inputDir, opts, root.Log)
	} else {
		snap, err = common.ProcessFile(context.Background(), session, root.SharedFlags.Input, opts, root.Log)
	}
	if snap.Result != nil {
		for _, failure := range snap.Result.Errors {
			root.Log.Error("Row rejected",
				logging.F(logging.FieldRow, failure.Row),
				logging.F(logging.FieldError, failure.Message))
		}
	}
	if err != nil {
		root.Log.Fatalf("Error importing file: %v", err)
		return
	}

	if snap.Result == nil {
		root.Log.Warn("Nothing was committed", logging.F(logging.FieldState, string(snap.State)))
		return
	}
	stats := snap.Result.Stats
	if !snap.Result.Success {
		root.Log.Warn("Some rows were not imported", logging.F("failed", stats.Failed))
	}
	root.Log.Info("Import completed",
		logging.F(logging.FieldCount, stats.Success),
		logging.F("uncategorized", stats.Uncategorized),
		logging.F("duplicates", snap.Stats.DuplicateRows),
		logging.F("skipped", snap.Stats.SkippedRows),
		logging.F("range", dr.String()))
}
