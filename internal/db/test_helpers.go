package db

import (
	"path/filepath"
	"testing"
)

// newTestDB opens a fresh migrated database in a per-test temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.MigrateUp("../../migrations"); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	return database
}
