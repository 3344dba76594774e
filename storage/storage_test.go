package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s := NewSQLiteStorage(t.TempDir())
	if err := s.Initialize(); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorageInit(t *testing.T) {
	tempDir := t.TempDir()

	storage := NewSQLiteStorage(tempDir)
	err := storage.Initialize()
	if err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
	defer storage.Close()

	dbPath := filepath.Join(tempDir, "douban_pulse.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("Database file was not created")
	}
}

func TestPostgresRequiresDSN(t *testing.T) {
	s := NewStorage(Options{Driver: DriverPostgres})
	if err := s.Initialize(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := OpenDB("mysql", ""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	day := fixedDay()

	if _, err := s.ReplaceMovies(ctx, day, []MovieRecord{sampleMovie(1, "肖申克的救赎", day)}); err != nil {
		t.Fatalf("ReplaceMovies: %v", err)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats["movies"] != 1 {
		t.Errorf("Expected movies 1, got %d", stats["movies"])
	}
	if stats["hot_search"] != 0 {
		t.Errorf("Expected hot_search 0, got %d", stats["hot_search"])
	}
}

func TestPersistenceErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&PersistenceError{Table: "douban_movies", Op: "delete", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("PersistenceError should unwrap to its cause")
	}
	if err.Error() != "delete douban_movies: disk full" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestOpenDoesNotMigrate(t *testing.T) {
	s := NewSQLiteStorage(t.TempDir())
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	version, err := s.GetDatabaseVersion()
	if err != nil {
		t.Fatalf("GetDatabaseVersion: %v", err)
	}
	if version != 0 {
		t.Errorf("version = %d before migrating, want 0", version)
	}

	if err := s.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if version, _ = s.GetDatabaseVersion(); version < 2 {
		t.Errorf("version = %d after migrating", version)
	}
}
