// Package database holds the schema migrations of the sync state database.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // Registers the postgres:// driver
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsSource returns a migration source driver over the embedded migrations
func migrationsSource() (source.Driver, error) {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return d, nil
}

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

// NewFromConnectionString returns a migrator for the database at connString (postgres:// URL)
func NewFromConnectionString(connString string) (*migrate.Migrate, error) {
	d, err := migrationsSource()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = slogMigrateLogger{}
	return m, nil
}

// MigrateUp applies all pending migrations. Cancelling ctx stops after the
// migration in flight.
func MigrateUp(ctx context.Context, connString string) error {
	return withMigrator(ctx, connString, func(m Migrator) error { return m.Up() })
}

// MigrateDown reverts steps migrations, all of them when steps is 0
func MigrateDown(ctx context.Context, connString string, steps int) error {
	return withMigrator(ctx, connString, func(m Migrator) error {
		if steps <= 0 {
			return m.Down()
		}
		return m.Steps(-steps)
	})
}

// GetVersion returns the current schema version and whether it is dirty.
// A database without migrations reports version 0.
func GetVersion(connString string) (uint, bool, error) {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func withMigrator(ctx context.Context, connString string, fn func(Migrator) error) error {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return ctx.Err()
}

func closeMigrator(m Migrator) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		slog.Warn("Failed to close migration source", "error", srcErr)
	}
	if dbErr != nil {
		slog.Warn("Failed to close migration database", "error", dbErr)
	}
}

type slogMigrateLogger struct{}

func (slogMigrateLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

func (slogMigrateLogger) Verbose() bool {
	return false
}
