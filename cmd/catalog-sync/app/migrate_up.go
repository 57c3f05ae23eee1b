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

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations to bring the schema up to date.
The database connection parameters are read from the config file.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	target, err := setupMigration(cmd)
	if err != nil {
		return err
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
		fmt.Sprintf("About to apply migrations to database %s. Continue?", target.description)) {
		slog.Info("Migration cancelled by user")
		return nil
	}

	m, err := database.NewFromConnectionString(target.connString)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := executeMigrateUp(m, numSteps); err != nil {
		return err
	}
	displayMigrationVersion(m, false)
	return nil
}

func executeMigrateUp(m database.Migrator, numSteps uint) error {
	var err error
	if numSteps == 0 {
		slog.Info("Applying all pending migrations...")
		err = m.Up()
	} else {
		if numSteps > math.MaxInt {
			return fmt.Errorf("number of steps exceeds maximum allowed value")
		}
		slog.Info("Applying migrations...", "steps", numSteps)
		err = m.Steps(int(numSteps)) // #nosec G115 -- overflow checked above
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("No migrations to apply, the schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migrations applied successfully")
	return nil
}
