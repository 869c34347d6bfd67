package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rustyeddy/bondrisk/journal"
	"github.com/rustyeddy/bondrisk/market"
	"github.com/spf13/cobra"
)

var curvesCmd = &cobra.Command{
	Use:   "curves",
	Short: "Manage stored yield curve history",
	Long: `Import yield curve history into the SQLite store and inspect it.

Subcommands:
  import - Load a long-format curve CSV (curve,date,tenor,rate)
  show   - List stored curves, or print one curve's tenors

Examples:
  bondrisk curves import data/yield_curves.csv --percent
  bondrisk curves show
  bondrisk curves show UST`,
}

var curvesImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import a curve CSV into the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runCurvesImport,
}

var curvesShowCmd = &cobra.Command{
	Use:   "show [curve]",
	Short: "List stored curves or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCurvesShow,
}

var (
	curvesDBPath  string
	curvesPercent bool
)

func init() {
	rootCmd.AddCommand(curvesCmd)
	curvesCmd.AddCommand(curvesImportCmd)
	curvesCmd.AddCommand(curvesShowCmd)

	curvesCmd.PersistentFlags().StringVarP(&curvesDBPath, "db", "d", "./bondrisk.db", "path to SQLite store")
	curvesImportCmd.Flags().BoolVar(&curvesPercent, "percent", false, "rates are in percent")
}

func runCurvesImport(cmd *cobra.Command, args []string) error {
	series, err := loadCurvesCSV(args[0], curvesPercent)
	if err != nil {
		return fmt.Errorf("read curves: %w", err)
	}

	db, err := journal.NewSQLite(curvesDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	all := make([]*market.CurveSeries, 0, len(series))
	for _, cs := range series {
		all = append(all, cs)
	}
	n, err := db.ImportCurves(all...)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d rates for %d curves into %s\n", n, len(series), curvesDBPath)
	return nil
}

func runCurvesShow(cmd *cobra.Command, args []string) error {
	db, err := journal.NewSQLite(curvesDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		infos, err := db.ListCurves()
		if err != nil {
			return fmt.Errorf("list curves: %w", err)
		}
		table := tablewriter.NewWriter(out)
		table.Header("Curve", "First", "Last", "Dates", "Tenors")
		for _, ci := range infos {
			table.Append(ci.Name, ci.First, ci.Last, fmt.Sprint(ci.Dates), fmt.Sprint(ci.Tenors))
		}
		table.Render()
		return nil
	}

	cs, err := db.LoadCurve(args[0], time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("load curve: %w", err)
	}
	last := cs.Observations[len(cs.Observations)-1]
	c, err := cs.Snapshot(last.Date)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d observations, latest %s\n", cs.Name, len(cs.Observations), last.Date.Format(time.DateOnly))
	var seen []string
	for _, t := range cs.Tenors() {
		seen = append(seen, t.String())
	}
	fmt.Fprintf(out, "Tenors in history: %s\n", strings.Join(seen, ", "))
	table := tablewriter.NewWriter(out)
	table.Header("Tenor", "Years", "Rate")
	for _, p := range c.Points {
		table.Append(p.Tenor.String(), fmt.Sprintf("%.2f", p.Tenor.Years()), fmt.Sprintf("%.4f%%", p.Rate*100))
	}
	table.Render()
	return nil
}
