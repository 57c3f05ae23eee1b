package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stacklok/catalog-sync/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	return cmd
}

// migrationTarget is the database a migration command works on
type migrationTarget struct {
	connString  string
	description string
}

// setupMigration loads the configuration and resolves the database to migrate
func setupMigration(cmd *cobra.Command) (*migrationTarget, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	return &migrationTarget{
		connString: connString,
		description: fmt.Sprintf("%s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database),
	}, nil
}

// confirm asks a yes/no question on out and reads the answer from in
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s (yes/no): ", prompt)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "yes" || answer == "y"
}

// isInteractive reports whether in can answer a prompt. Readers that are not
// files are treated as interactive.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}

// displayMigrationVersion logs the schema version after a migration
func displayMigrationVersion(m database.Migrator, removedAll bool) {
	version, dirty, err := m.Version()
	if err != nil {
		if removedAll {
			slog.Info("Database schema has been completely removed")
		} else {
			slog.Warn("Failed to get migration version", "error", err)
		}
		return
	}

	if dirty {
		slog.Warn("Database is in a dirty state, manual intervention may be required", "version", version)
	} else {
		slog.Info("Current migration version", "version", version)
	}
}

func closeMigrator(m database.Migrator) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		slog.Warn("Failed to close migration source", "error", srcErr)
	}
	if dbErr != nil {
		slog.Warn("Failed to close migration database", "error", dbErr)
	}
}
