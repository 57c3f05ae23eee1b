// Package app provides the command line interface of catalog-sync.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/versions"
)

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "catalog-sync",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Delta sync of the ERP catalog into the e-shop",
		Long: `catalog-sync reads the ERP product export, normalizes it and sends only new
or changed products to the e-shop API, respecting its rate limit.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "catalog-sync %s (commit %s, built %s, %s %s)\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// addConfigFlag registers the required --config flag
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
}

// loadConfig reads the file named by the --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"source", cfg.Source.GetType(),
		"storage", cfg.GetStorageType())
	return cfg, nil
}
