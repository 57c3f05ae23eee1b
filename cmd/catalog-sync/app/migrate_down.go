package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/stacklok/catalog-sync/database"
)

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.

WARNING: This operation drops the recorded sync state. The next run will send
every product again.

Examples:
  # Migrate down by 1 step
  catalog-sync migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way
  catalog-sync migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	}
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	target, err := setupMigration(cmd)
	if err != nil {
		return err
	}

	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}

	if !yes && !isInteractive(cmd.InOrStdin()) {
		return fmt.Errorf("stdin is not a terminal, pass --yes to migrate down")
	}
	if !yes {
		prompt := "WARNING: This will migrate down ALL steps and remove the sync state. Continue?"
		if numSteps > 0 {
			prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may remove sync state. Continue?", numSteps)
		}
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			slog.Info("Migration cancelled")
			return fmt.Errorf("migration cancelled by user")
		}
	}

	m, err := database.NewFromConnectionString(target.connString)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := executeMigrateDown(m, numSteps); err != nil {
		return err
	}
	displayMigrationVersion(m, numSteps == 0)
	return nil
}

func executeMigrateDown(m database.Migrator, numSteps uint) error {
	var err error
	if numSteps == 0 {
		slog.Warn("Migrating down all steps, this will remove all schema!")
		err = m.Down()
	} else {
		if numSteps > math.MaxInt {
			return fmt.Errorf("number of steps exceeds maximum allowed value")
		}
		slog.Info("Migrating down...", "steps", numSteps)
		err = m.Steps(-1 * int(numSteps)) // #nosec G115 -- overflow checked above
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("No migrations to revert, database is already at the oldest version")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migration completed successfully")
	return nil
}
