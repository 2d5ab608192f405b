package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesDirAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "calmchores.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("db file not created: %v", err)
	}

	v, err := SchemaVersion(context.Background(), db)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != 1 {
		t.Errorf("schema version = %d, want 1", v)
	}
	db.Close()

	// Reopening an up-to-date database applies nothing new.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if v2, _ := SchemaVersion(context.Background(), db); v2 != v {
		t.Errorf("schema version after reopen = %d, want %d", v2, v)
	}
}

func TestOpenMemoryHasTables(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"users", "houses", "house_members", "tasks", "sessions", "backups"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}
