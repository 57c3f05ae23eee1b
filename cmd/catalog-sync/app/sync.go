package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/catalog-sync/internal/app"
	pkgsync "github.com/stacklok/catalog-sync/internal/sync"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync and print its result",
		Long: `Run a single sync and print the result as JSON. Products the e-shop
rejected are counted in "errors" and listed in "diagnostics"; they do not make
the command fail. A non-zero exit code means the run could not be performed.`,
		RunE: runSync,
	}
	addConfigFlag(cmd)
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := catalogapp.NewCatalogSyncApp(ctx, catalogapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	result, runErr := app.RunOnce(ctx)
	// An interrupted run still reports what it did
	if result != nil {
		if err := printResult(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("sync failed: %w", runErr)
	}
	return nil
}

func printResult(w io.Writer, result *pkgsync.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}
	return nil
}
