package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/DanielPopoola/ficmart-billing/internal/adapters/postgres"
	"github.com/DanielPopoola/ficmart-billing/internal/config"
	"github.com/golang-migrate/migrate/v4"
)

var osArgs = func() []string { return os.Args }

func main() {
	os.Exit(migrateMain())
}

// migrateMain returns the exit code so deferred closes run before os.Exit.
func migrateMain() int {
	args := osArgs()
	if len(args) < 2 {
		printUsage()
		return 1
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	logger := cfg.Logger.NewLogger()

	m, err := postgres.NewMigrator(&cfg.Database)
	if err != nil {
		logger.Error("failed to initialise migrator", "error", err)
		return 1
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := run(m, args[1], args[2:], logger); err != nil {
		logger.Error("migration failed", "command", args[1], "error", err)
		return 1
	}
	return 0
}

func run(m *migrate.Migrate, command string, args []string, logger *slog.Logger) error {
	switch command {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no change: schema is up to date")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("migrations applied")

	case "down":
		if err := m.Steps(-1); err != nil {
			return err
		}
		logger.Info("rolled back last migration")

	case "goto":
		if len(args) < 1 {
			return errors.New("goto needs a version number")
		}
		version, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		err = m.Migrate(uint(version))
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no change: already at version", "version", version)
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("migrated to version", "version", version)

	case "force":
		if len(args) < 1 {
			return errors.New("force needs a version number")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		if err := m.Force(version); err != nil {
			return err
		}
		logger.Info("forced version", "version", version)

	case "status":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("current migration version", "version", version, "dirty", dirty)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: migrate <command> [version]")
	fmt.Println("Commands:")
	fmt.Println("  up             apply all pending migrations")
	fmt.Println("  down           roll back the last migration")
	fmt.Println("  goto <version> migrate up or down to version")
	fmt.Println("  force <version> set version without running migrations (clears dirty)")
	fmt.Println("  status         print the current version")
}
