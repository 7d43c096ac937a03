// Package catalog handles the category and city dictionary commands
package catalog

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/root"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/store"

	"github.com/spf13/cobra"
)

var limit int

// Cmd represents the catalog command
var Cmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the category and city dictionaries",
	Long: `Manage the category and city dictionaries used to categorize expenses and
resolve cities.`,
}

// SeedCmd loads the YAML catalog into the database.
var SeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load categories, keywords and cities from a YAML file",
	Long: `Load categories, keywords and cities from a YAML file into the database.
The file is --input, or catalog.file from the configuration. Seeding twice is harmless.`,
	Run: seedFunc,
}

// UnrecognizedCmd lists city names the resolver could not match.
var UnrecognizedCmd = &cobra.Command{
	Use:   "unrecognized",
	Short: "List unrecognized cities by frequency",
	Long: `List city names seen during imports that match no catalog city, most frequent
first. Add them as cities or synonyms to have them resolved next time.`,
	Run: unrecognizedFunc,
}

func init() {
	UnrecognizedCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of cities to list (0 for all)")
	Cmd.AddCommand(SeedCmd)
	Cmd.AddCommand(UnrecognizedCmd)
}

func seedFunc(cmd *cobra.Command, args []string) {
	if root.AppContainer == nil {
		root.Log.Fatal("Application container not initialized")
		return
	}

	path := root.SharedFlags.Input
	if path == "" {
		path = root.AppContainer.GetConfig().Catalog.File
	}
	root.Log.Info("Seeding catalog", logging.F(logging.FieldFile, path))

	catalog, err := store.LoadCatalogFile(path)
	if err != nil {
		root.Log.Fatalf("Error loading catalog file: %v", err)
		return
	}

	res, err := root.AppContainer.GetStore().Seed(context.Background(), catalog)
	if err != nil {
		root.Log.Fatalf("Error seeding catalog: %v", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories, %d keywords, %d cities\n",
		res.Categories, res.Keywords, res.Cities)
}

func unrecognizedFunc(cmd *cobra.Command, args []string) {
	if root.AppContainer == nil {
		root.Log.Fatal("Application container not initialized")
		return
	}

	cities, err := root.AppContainer.GetStore().ListUnrecognizedCities(context.Background(), limit)
	if err != nil {
		root.Log.Fatalf("Error listing unrecognized cities: %v", err)
		return
	}
	if err := WriteUnrecognized(cmd.OutOrStdout(), cities); err != nil {
		root.Log.Fatalf("Error writing unrecognized cities: %v", err)
	}
}

// WriteUnrecognized prints cities as an aligned table.
func WriteUnrecognized(w io.Writer, cities []models.UnrecognizedCity) error {
	if len(cities) == 0 {
		_, err := fmt.Fprintln(w, "No unrecognized cities")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tSEEN\tFIRST\tLAST")
	for _, c := range cities {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.Name, c.Frequency,
			c.FirstSeen.Format("2006-01-02"), c.LastSeen.Format("2006-01-02"))
	}
	return tw.Flush()
}
