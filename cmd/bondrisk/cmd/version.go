package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the bondrisk CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bondrisk version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "Value at Risk and stress testing for fixed-income portfolios")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
