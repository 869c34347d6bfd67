package cmd

import (
	"fmt"
	"slices"

	"github.com/rustyeddy/bondrisk/journal"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the risk run journal",
	Long: `Query and display risk runs recorded in the SQLite journal.

Subcommands:
  list - List recent runs
  show - Show one run and its PnL distribution
  best - Find the least risky portfolio journaled under a spec

Examples:
  bondrisk runs list -n 20
  bondrisk runs show 01JF3Q...
  bondrisk runs best --spec "var|historical|full_revaluation^ytm|var_type^1^99"`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show details of a single run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsBestCmd = &cobra.Command{
	Use:   "best",
	Short: "Show the run with the lowest risk value for a spec",
	Args:  cobra.NoArgs,
	RunE:  runRunsBest,
}

var (
	runsDBPath   string
	runsLimit    int
	runsShowPnL  bool
	runsBestSpec string
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsBestCmd)

	runsCmd.PersistentFlags().StringVarP(&runsDBPath, "db", "d", "./bondrisk.db", "path to SQLite journal DB")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list (0 for all)")
	runsShowCmd.Flags().BoolVar(&runsShowPnL, "pnl", false, "print the full PnL vector")
	runsBestCmd.Flags().StringVar(&runsBestSpec, "spec", "", "run config spec to compare portfolios under (required)")
	runsBestCmd.MarkFlagRequired("spec")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListRuns(runsLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	journal.PrintSummary(cmd.OutOrStdout(), recs)
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetRun(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	pnl, err := j.LoadPnL(rec.RunID)
	if err != nil {
		return fmt.Errorf("load pnl: %w", err)
	}

	book := &journal.RunBook{
		Title:     rec.ConfigID,
		AsOf:      rec.Created,
		Portfolio: rec.Portfolio,
		Runs:      []journal.RunRecord{rec},
		Created:   rec.Created,
	}
	if note := pnlNote(pnl); note != "" {
		book.Notes = append(book.Notes, note)
	}
	s, err := book.FormatOrg()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, s)
	if runsShowPnL {
		for i, v := range pnl {
			fmt.Fprintf(out, "%d\t%.2f\n", i, v)
		}
	}
	return nil
}

func runRunsBest(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.BestRun(runsBestSpec)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	portfolio := rec.Portfolio
	if portfolio == "" {
		portfolio = "(untagged)"
	}
	fmt.Fprintf(out, "Best portfolio: %s\n", portfolio)
	fmt.Fprintf(out, "Config: %s  Run: %s  %s: %.2f\n", rec.ConfigID, rec.RunID, rec.Metric, rec.Value)
	journal.PrintSummary(out, []journal.RunRecord{rec})
	return nil
}

// pnlNote summarises a PnL vector. The sample std dev needs two scenarios.
func pnlNote(pnl []float64) string {
	switch len(pnl) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("PnL over 1 scenario: %.2f", pnl[0])
	}
	mean, sd := stat.MeanStdDev(pnl, nil)
	return fmt.Sprintf("PnL over %d scenarios: worst %.2f, best %.2f, mean %.2f, std dev %.2f",
		len(pnl), slices.Min(pnl), slices.Max(pnl), mean, sd)
}
