package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Anereges/AITB-Employee-Management-System/internal/migration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations.",
	}

	run := func(use, short string, args cobra.PositionalArgs, fn func(cmd *cobra.Command, m *migration.Migrator, args []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := environment()
				if err != nil {
					return err
				}
				defer log.Sync()

				m, err := migration.NewMigrator(&cfg.Database)
				if err != nil {
					return fmt.Errorf("create migrator: %w", err)
				}
				defer m.Close()
				return fn(cmd, m, args)
			},
		}
	}

	cmd.AddCommand(
		run("up", "Apply all pending migrations.", cobra.NoArgs, func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
			if err := m.Up(cmd.Context()); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			cmd.Println("Successfully ran migrations")
			return nil
		}),
		run("down [version]", "Roll back one migration, or down to version.", cobra.MaximumNArgs(1), func(cmd *cobra.Command, m *migration.Migrator, args []string) error {
			if len(args) == 1 {
				version, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				if err := m.DownTo(cmd.Context(), version); err != nil {
					return fmt.Errorf("roll back migrations: %w", err)
				}
			} else if err := m.Down(cmd.Context()); err != nil {
				return fmt.Errorf("roll back migration: %w", err)
			}
			cmd.Println("Successfully rolled back migrations")
			return nil
		}),
		run("status", "Print the state of every migration.", cobra.NoArgs, func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
			return m.Status(cmd.Context())
		}),
		run("version", "Print the current and latest schema version.", cobra.NoArgs, func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
			current, err := m.Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("get migration version: %w", err)
			}
			latest, err := m.LatestVersion()
			if err != nil {
				return fmt.Errorf("get latest version: %w", err)
			}
			cmd.Printf("Current migration version: %d (latest %d)\n", current, latest)
			return nil
		}),
		run("reset", "Roll back and reapply every migration.", cobra.NoArgs, func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
			if err := m.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset migrations: %w", err)
			}
			cmd.Println("Successfully reset migrations")
			return nil
		}),
	)
	return cmd
}
