package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bondrisk",
	Short: "Value at Risk and stress testing for fixed-income portfolios",
	Long: `Bondrisk measures the market risk of a bond portfolio.

It provides tools for:
  - Building a portfolio from an instrument file and a fund size
  - Historical, Monte Carlo and stress scenarios on yield curves
  - Full revaluation or DV01/duration approximation
  - VaR and expected shortfall at any horizon and confidence
  - Storing curve history and run results in SQLite`,
	SilenceUsage: true,
}

var logLevel string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}
