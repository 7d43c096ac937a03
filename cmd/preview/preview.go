// Package preview handles the preview export command
package preview

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/common"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/root"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/batch"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/export"
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

// Cmd represents the preview command
var Cmd = &cobra.Command{
	Use:   "preview",
	Short: "Build expense rows and write them to CSV without saving",
	Long: `Build expense rows from a statement and write them to a CSV file for checking.
Nothing is stored in the database. Rows are written to stdout when --output is not set.
When --output is a directory, the file is named after the date range of the rows.`,
	Run: previewFunc,
}

func init() {
	Cmd.Flags().IntVar(&tableIndex, "table", -1, "HTML table to read (-1 picks the only transaction table)")
	Cmd.Flags().Var(&policy, "review", "How to resolve cities found in descriptions: keep, accept or reject")
	Cmd.Flags().StringToIntVar(&columns, "column", nil, "Map a field to a zero-based column, e.g. --column amount=2")
	Cmd.Flags().StringVarP(&inputDir, "dir", "d", "", "Preview every statement in this directory as one batch")
}

func previewFunc(cmd *cobra.Command, args []string) {
	root.Log.Info("Preview command called",
		logging.F(logging.FieldInputFile, root.SharedFlags.Input),
		logging.F(logging.FieldOutputFile, root.SharedFlags.Output))

	if root.AppContainer == nil {
		root.Log.Fatal("Application container not initialized")
		return
	}

	opts := common.ProcessOptions{
		Parse:   root.AppContainer.ParseOptions(),
		Mode:    importer.ModePreview,
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
		err  error
	)
	if inputDir != "" {
		snap, _, err = common.ProcessDir(context.Background(), session, inputDir, opts, root.Log)
	} else {
		snap, err = common.ProcessFile(context.Background(), session, root.SharedFlags.Input, opts, root.Log)
	}
	if err != nil {
		root.Log.Fatalf("Error building preview: %v", err)
		return
	}

	delimiter := root.AppContainer.GetConfig().Delimiter()
	if root.SharedFlags.Output == "" {
		if err := export.Write(cmd.OutOrStdout(), snap.Rows, delimiter); err != nil {
			root.Log.Fatalf("Error writing preview: %v", err)
		}
		return
	}
	output := root.SharedFlags.Output
	if info, statErr := os.Stat(output); statErr == nil && info.IsDir() {
		output = filepath.Join(output, batch.OutputFilename("expenses", batch.RangeOf(snap.Rows)))
	}
	if err := export.WriteFile(output, snap.Rows, delimiter, root.Log); err != nil {
		root.Log.Fatalf("Error writing preview: %v", err)
		return
	}
	root.Log.Info("Preview written successfully!", logging.F(logging.FieldCount, len(snap.Rows)))
}
