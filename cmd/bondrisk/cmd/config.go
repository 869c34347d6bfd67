package cmd

import (
	"fmt"

	"github.com/rustyeddy/bondrisk/config"
	"github.com/rustyeddy/bondrisk/engine"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for risk runs.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  bondrisk config init -o risk.yaml
  bondrisk config validate -f risk.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  bondrisk config init -o risk.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and every run config parses.

Example:
  bondrisk config validate -f risk.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "bondrisk.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  bondrisk run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	runs, err := cfg.RunConfigs()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  As of: %s\n", cfg.AsOf)
	fmt.Fprintf(out, "  Portfolio: $%.2f, %s\n", cfg.Portfolio.TotalFund, cfg.Portfolio.Weighting)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	for _, rc := range runs {
		if rc.Kind == engine.KindStress {
			fmt.Fprintf(out, "  %s: stress %s (%s, %s)\n", rc.ID, rc.Stress, rc.Reval, rc.Model)
			continue
		}
		fmt.Fprintf(out, "  %s: %s %s (%s, %s)\n", rc.ID, rc.Metric, rc.Method, rc.Reval, rc.Model)
	}
	return nil
}
