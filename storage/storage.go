package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const sqliteFileName = "douban_pulse.db"

// Options selects the backing database.
type Options struct {
	Driver   string // "sqlite" (default) or "postgres"
	DataPath string // directory holding the SQLite file
	DSN      string // Postgres connection URL
}

type Storage struct {
	db   *DB
	opts Options
}

// PersistenceError describes a failed write against one table.
type PersistenceError struct {
	Table string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewStorage(opts Options) *Storage {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	return &Storage{opts: opts}
}

// NewSQLiteStorage is a shortcut for a SQLite file under dataPath.
func NewSQLiteStorage(dataPath string) *Storage {
	return NewStorage(Options{Driver: DriverSQLite, DataPath: dataPath})
}

// Initialize opens the database and applies pending migrations.
func (s *Storage) Initialize() error {
	if err := s.Open(); err != nil {
		return err
	}
	if err := s.RunMigrations(); err != nil {
		return err
	}

	log.Printf("%s database initialized", s.opts.Driver)
	return nil
}

// Open connects to the database without touching the schema.
func (s *Storage) Open() error {
	dsn := s.opts.DSN
	if s.opts.Driver == DriverSQLite {
		if err := os.MkdirAll(s.opts.DataPath, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = s.SQLitePath()
	} else if dsn == "" {
		return errors.New("DATABASE_URL is required for the postgres driver")
	}

	db, err := OpenDB(s.opts.Driver, dsn)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

// SQLitePath is the database file used by the sqlite driver.
func (s *Storage) SQLitePath() string {
	return filepath.Join(s.opts.DataPath, sqliteFileName)
}

func (s *Storage) DB() *DB {
	return s.db
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStats returns row counts for the dashboard log.
func (s *Storage) GetStats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)

	queries := map[string]string{
		"movies":     "SELECT COUNT(*) AS n FROM douban_movies",
		"hot_search": "SELECT COUNT(*) AS n FROM baidu_hot_search",
	}
	for key, query := range queries {
		var n int
		if err := s.db.Conn().QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", key, err)
		}
		stats[key] = n
	}

	return stats, nil
}

// Migration management methods
func (s *Storage) GetMigrationManager() *MigrationManager {
	return NewMigrationManager(s.db.Conn(), s.opts.Driver)
}

func (s *Storage) GetDatabaseVersion() (int64, error) {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return 0, err
	}
	return migrationManager.Version()
}

func (s *Storage) RunMigrations() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Up()
}

func (s *Storage) RollbackMigration() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Down()
}

func (s *Storage) ResetDatabase() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Reset()
}
