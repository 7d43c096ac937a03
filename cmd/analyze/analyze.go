// Package analyze handles the statement inspection command
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/root"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/importer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"

	"github.com/spf13/cobra"
)

var (
	tableIndex int
	asJSON     bool
)

// Cmd represents the analyze command
var Cmd = &cobra.Command{
	Use:   "analyze",
	Short: "Inspect a statement and propose a column mapping",
	Long: `Inspect a statement file without importing it. Prints the detected format,
the header, a few sample rows and the proposed column mapping. The last applied
mapping is reused when the file has the same number of columns.`,
	Run: analyzeFunc,
}

func init() {
	Cmd.Flags().IntVar(&tableIndex, "table", -1, "HTML table to read (-1 picks the only transaction table)")
	Cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
}

func analyzeFunc(cmd *cobra.Command, args []string) {
	root.Log.Info("Analyze command called", logging.F(logging.FieldInputFile, root.SharedFlags.Input))

	if root.AppContainer == nil {
		root.Log.Fatal("Application container not initialized")
		return
	}
	if root.SharedFlags.Input == "" {
		root.Log.Fatal("Input file is required (--input)")
		return
	}

	data, err := os.ReadFile(root.SharedFlags.Input)
	if err != nil {
		root.Log.Fatalf("Error reading input file: %v", err)
		return
	}

	opts := root.AppContainer.ParseOptions()
	if cmd.Flags().Changed("table") {
		opts.TableIndex = tableIndex
	}

	snap, err := importer.Analyze(context.Background(), filepath.Base(root.SharedFlags.Input), data, opts,
		root.AppContainer.GetMappingStore(), root.Log)
	if err != nil {
		root.Log.Fatalf("Error analyzing file: %v", err)
		return
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			root.Log.Fatalf("Error encoding analysis: %v", err)
		}
		return
	}
	if err := Report(cmd.OutOrStdout(), snap); err != nil {
		root.Log.Fatalf("Error writing analysis: %v", err)
	}
}

// Report prints a human-readable analysis of snap.
func Report(w io.Writer, snap importer.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "File:\t%s\n", snap.Source)
	fmt.Fprintf(tw, "Format:\t%s\n", snap.Format)
	fmt.Fprintf(tw, "Columns:\t%d\n", snap.ColumnCount)
	if snap.HasHeader {
		fmt.Fprintf(tw, "Header:\t%s\n", strings.Join(snap.Header, " | "))
	}
	if snap.MappingReused {
		fmt.Fprintln(tw, "Mapping:\treused from the last import")
	} else {
		fmt.Fprintln(tw, "Mapping:\tsuggested")
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "FIELD\tCOLUMN\tREQUIRED")
	for _, slot := range snap.Slots {
		column := "-"
		if slot.Column >= 0 {
			column = slot.Label
		}
		required := ""
		if slot.Required {
			required = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", slot.Field, column, required)
	}

	if len(snap.SampleRows) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Sample rows:")
		for _, row := range snap.SampleRows {
			fmt.Fprintf(tw, "\t%s\n", strings.Join(row, "\t"))
		}
	}
	return tw.Flush()
}
