package cmd

import (
	"fmt"

	"github.com/gradnet/gradnet/internal/config"
	"github.com/gradnet/gradnet/internal/db"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(database *sqlx.DB, driver string) error {
					return db.RunMigrations(database.DB, driver)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(database *sqlx.DB, driver string) error {
					return db.MigrateDown(database.DB, driver)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(database *sqlx.DB, driver string) error {
					version, err := db.MigrationVersion(database.DB, driver)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "driver: %s\nversion: %d\n", driver, version)
					return nil
				})
			},
		},
	)
	return cmd
}

// withDB opens the configured database for the duration of fn.
func withDB(fn func(database *sqlx.DB, driver string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer db.Close(database)

	return fn(database, cfg.DBDriver)
}
