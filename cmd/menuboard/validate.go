package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/menuboard"
	"github.com/jpalmerr/menuboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a menuboard configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  menuboard validate -c config.yaml
  menuboard validate --config /etc/menuboard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// build the dashboard too, so field bindings are checked as well
	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	d, err := menuboard.New(opts...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	mqttTarget := "disabled"
	if cfg.MQTT.Enabled() {
		mqttTarget = cfg.MQTT.Broker + " " + cfg.MQTT.Topic
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Source:        %s\n", d.SourceURL())
	fmt.Fprintf(out, "  Port:          %d\n", d.Port())
	fmt.Fprintf(out, "  Poll interval: %s\n", d.PollingInterval())
	fmt.Fprintf(out, "  Locale:        %s\n", cfg.Locale)
	fmt.Fprintf(out, "  Fields:        %d extra\n", len(cfg.Fields))
	fmt.Fprintf(out, "  MQTT:          %s\n", mqttTarget)

	return nil
}
