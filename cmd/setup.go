package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lipl/internal/backend"
	"github.com/desertthunder/lipl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if r.configPath == "" {
		return fmt.Errorf("%w: --config", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	return r.writePlainln("%s %s", r.painter.OK("Created"), r.configPath)
}

// SetupDatabase runs, or with --rollback reverts one of, the migrations of a SQL source.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	src, err := backend.ParseSource(r.source(cmd, "source"))
	if err != nil {
		return err
	}
	if src.Kind == backend.KindFile {
		return fmt.Errorf("%w: %s is not a database source", shared.ErrInvalidArgument, src)
	}

	dialect, err := shared.ParseDialect(string(src.Kind))
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "dialect", dialect)

	db, err := shared.OpenDatabase(ctx, dialect, src.Target)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlainln("%s latest migration of %s", r.painter.OK("Rolled back"), dialect)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return r.writePlainln("%s %s database is up to date", r.painter.OK("Done"), dialect)
}
