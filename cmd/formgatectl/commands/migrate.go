package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/formgate/internal/config"
	"github.com/BradenHooton/formgate/internal/database"
	"github.com/spf13/cobra"
)

var (
	migrateTimeout time.Duration

	MigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the database schema",
		Long: `
Usage: formgatectl migrate <subcommand>

  Runs the schema migrations embedded in the binary against the database
  configured through DB_* environment variables (or .env).

      $ formgatectl migrate up
      $ formgatectl migrate status
`,
	}

	migrateUpCmd = &cobra.Command{
		Use:          "up",
		SilenceUsage: true,
		Short:        "Apply all pending migrations",
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) error {
				if err := m.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Success! Database schema is up to date.")
				return nil
			})
		},
	}

	migrateStatusCmd = &cobra.Command{
		Use:          "status",
		SilenceUsage: true,
		Short:        "Show the state of every migration",
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) error {
				return m.Status(ctx)
			})
		},
	}
)

func init() {
	MigrateCmd.PersistentFlags().DurationVar(&migrateTimeout, "timeout", 2*time.Minute, "Time limit for the whole operation")
	MigrateCmd.AddCommand(migrateUpCmd)
	MigrateCmd.AddCommand(migrateStatusCmd)
}

func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *database.Migrator) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
	defer cancel()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, database.NewMigrator(db.Pool, cmd.OutOrStdout()))
}

// connect opens the database configured through DB_* variables.
func connect(ctx context.Context) (*database.DB, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, err := database.NewConnection(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return db, nil
}
