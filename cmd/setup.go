package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/msrv/internal/shared"
)

// SetupConfig writes the example configuration to --path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlain("Add your music directories to [library].music_dirs before running 'msrv serve'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations, or reverts the latest one with --rollback.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if cmd.Bool("rollback") {
		return r.rollbackDatabase(config.Database)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s (%d migrations applied)\n", config.Database.Path, len(applied))
	return nil
}

func (r *Runner) rollbackDatabase(cfg shared.DatabaseConfig) error {
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return err
	}

	r.logger.Info("rolled back latest migration", "path", cfg.Path, "remaining", len(applied))
	return r.writePlain("✓ Rolled back latest migration (%d migrations applied)\n", len(applied))
}
