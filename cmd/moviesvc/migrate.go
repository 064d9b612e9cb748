package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tbourn/go-movies-backend/internal/repo"
)

func newMigrateCmd(f *flags) *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Create or update the database schema and exit",
		UsageText:   "moviesvc migrate",
		Description: "Opens DB_PATH and migrates the movie info, review and idempotency tables.",
		Action: func(ctx context.Context, c *cli.Command) error {
			db, err := repo.OpenSQLite(f.Config.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := repo.AutoMigrate(db.WithContext(ctx)); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			f.Logger.Info().Str("db", f.Config.DBPath).Msg("schema migrated")
			return nil
		},
	}
}
