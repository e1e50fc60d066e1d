package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply environment variable overrides,
and report every validation error at once.

Examples:
  # Validate the default config file
  saturn validate

  # Validate a specific file
  saturn validate --config /etc/saturn/saturn.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("Configuration %s is invalid:\n", cfgFile)
			for _, fe := range verr.Errors {
				fmt.Printf("  - %s\n", fe.Error())
			}
			return fmt.Errorf("%d validation error(s)", len(verr.Errors))
		}
		return err
	}

	fmt.Printf("Configuration %s is valid.\n", cfgFile)
	fmt.Printf("  graph ref:       %s\n", cfg.Reporting.GraphRef)
	fmt.Printf("  endpoint:        %s\n", cfg.Reporting.EndpointURL)
	fmt.Printf("  report interval: %s\n", cfg.Reporting.ReportInterval)
	fmt.Printf("  max report size: %d bytes\n", cfg.Reporting.MaxUncompressedReportSize)
	if cfg.Journal.Enabled {
		fmt.Printf("  journal:         %s backend, %d day retention\n",
			cfg.Journal.Backend, cfg.Journal.Retention.Days)
	} else {
		fmt.Printf("  journal:         disabled\n")
	}
	return nil
}
