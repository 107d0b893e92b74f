package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxviazov/author-feed-service/internal/repository"
	"github.com/maxviazov/author-feed-service/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the embedded database migrations",
	}
	cmd.AddCommand(
		migrateSub(opts, "up", "Apply all pending migrations", goose.UpContext),
		migrateSub(opts, "down", "Roll back the latest migration", goose.DownContext),
		migrateSub(opts, "status", "Print the state of every migration", goose.StatusContext),
	)
	return cmd
}

type gooseAction func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func migrateSub(opts *rootOptions, use, short string, action gooseAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap(opts)
			if err != nil {
				return err
			}
			db, err := sql.Open("pgx", repository.DSN(cfg.Postgres))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			goose.SetLogger(gooseLogger{log: log.With().Str("module", "migrate").Logger()})
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}
			if err := action(cmd.Context(), db, migrations.Dir); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			return nil
		},
	}
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{ log zerolog.Logger }

func (l gooseLogger) Printf(format string, v ...interface{}) { l.log.Info().Msgf(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.log.Fatal().Msgf(format, v...) }
