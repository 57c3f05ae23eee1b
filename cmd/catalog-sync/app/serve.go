package app

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/catalog-sync/internal/app"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled sync and the ops API",
		Long: `Run the sync coordinator, which checks the source at the configured interval
and syncs when it changed, together with the ops API serving health probes,
the last run status and manual triggers.

See the examples/ directory for a sample configuration.`,
		RunE: runServe,
	}
	cmd.Flags().String("address", ":8080", "Address to listen on")
	addConfigFlag(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	address, err := cmd.Flags().GetString("address")
	if err != nil {
		return fmt.Errorf("failed to get address flag: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := catalogapp.NewCatalogSyncApp(ctx,
		catalogapp.WithConfig(cfg),
		catalogapp.WithAddress(address),
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	slog.Info("Starting catalog-sync", "address", address)
	return app.Run(ctx)
}
