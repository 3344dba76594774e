package main

import (
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"douban-pulse/storage"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := storage.Options{
		Driver:   envOr("DB_DRIVER", storage.DriverSQLite),
		DataPath: envOr("DATA_PATH", "./data"),
		DSN:      os.Getenv("DATABASE_URL"),
	}

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the douban-pulse database schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.Driver, "driver", opts.Driver, "database driver: sqlite or postgres")
	root.PersistentFlags().StringVar(&opts.DataPath, "data", opts.DataPath, "directory holding the SQLite database")
	root.PersistentFlags().StringVar(&opts.DSN, "dsn", opts.DSN, "Postgres connection URL")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withStorage(&opts, func(s *storage.Storage) error {
				if err := s.RunMigrations(); err != nil {
					return err
				}
				fmt.Println("Migrations completed successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withStorage(&opts, func(s *storage.Storage) error {
				if err := s.RollbackMigration(); err != nil {
					return err
				}
				fmt.Println("Migration rolled back successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: withStorage(&opts, func(s *storage.Storage) error {
				m := s.GetMigrationManager()
				if err := m.Initialize(); err != nil {
					return err
				}
				return m.Status()
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: withStorage(&opts, func(s *storage.Storage) error {
				version, err := s.GetDatabaseVersion()
				if err != nil {
					return err
				}
				fmt.Printf("Database version: %d\n", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Roll back every migration",
			RunE: withStorage(&opts, func(s *storage.Storage) error {
				if err := s.ResetDatabase(); err != nil {
					return err
				}
				fmt.Println("Database reset completed successfully")
				return nil
			}),
		},
	)
	return root
}

// withStorage opens the database without migrating it, runs fn and closes it.
func withStorage(opts *storage.Options, fn func(*storage.Storage) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s := storage.NewStorage(*opts)
		if err := s.Open(); err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer s.Close()
		return fn(s)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
