package main

import (
	"testing"

	"douban-pulse/storage"
)

func runMigrate(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func schemaVersion(t *testing.T, dataPath string) int64 {
	t.Helper()
	s := storage.NewSQLiteStorage(dataPath)
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	version, err := s.GetDatabaseVersion()
	if err != nil {
		t.Fatalf("GetDatabaseVersion: %v", err)
	}
	return version
}

func TestMigrateUpDownReset(t *testing.T) {
	dir := t.TempDir()

	if err := runMigrate(t, "up", "--data", dir); err != nil {
		t.Fatalf("up: %v", err)
	}
	if v := schemaVersion(t, dir); v != 2 {
		t.Errorf("version after up = %d, want 2", v)
	}

	if err := runMigrate(t, "down", "--data", dir); err != nil {
		t.Fatalf("down: %v", err)
	}
	if v := schemaVersion(t, dir); v != 1 {
		t.Errorf("version after down = %d, want 1", v)
	}

	for _, sub := range []string{"status", "version"} {
		if err := runMigrate(t, sub, "--data", dir); err != nil {
			t.Errorf("%s: %v", sub, err)
		}
	}

	if err := runMigrate(t, "reset", "--data", dir); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v := schemaVersion(t, dir); v != 0 {
		t.Errorf("version after reset = %d, want 0", v)
	}
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	if err := runMigrate(t, "sideways"); err == nil {
		t.Error("expected error for unknown subcommand")
	}
}

func TestMigratePostgresNeedsDSN(t *testing.T) {
	if err := runMigrate(t, "up", "--driver", "postgres", "--data", t.TempDir()); err == nil {
		t.Error("expected error without --dsn")
	}
}
