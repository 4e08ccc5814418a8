package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/phrazzld/curator-srs/internal/platform/sqlstore"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	command.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *sqlstore.Migrator) error {
				return m.Up(cmd.Context())
			})
		},
	})
	command.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *sqlstore.Migrator) error {
				return m.Down(cmd.Context())
			})
		},
	})
	command.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *sqlstore.Migrator) error {
				statuses, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				printMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	})

	return command
}

func withMigrator(cmd *cobra.Command, fn func(*sqlstore.Migrator) error) error {
	app, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer app.cleanup()

	migrator, err := sqlstore.NewMigrator(app.db, app.logger)
	if err != nil {
		return err
	}
	return fn(migrator)
}

func printMigrationStatus(w io.Writer, statuses []sqlstore.MigrationStatus) {
	applied := color.New(color.FgGreen)
	pending := color.New(color.FgYellow)

	for _, s := range statuses {
		state := pending.Sprint("pending")
		if s.Applied {
			state = applied.Sprint("applied")
		}
		fmt.Fprintf(w, "%5d  %-8s %s\n", s.Version, state, s.Source)
	}
}
