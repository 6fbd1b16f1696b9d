package storage

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='calc_history'`).Scan(&name)
	if err != nil {
		t.Fatalf("calc_history table missing: %v", err)
	}

	// CreateTables must be idempotent
	if err := CreateTables(db); err != nil {
		t.Errorf("second CreateTables failed: %v", err)
	}
}

func TestInitDBBadPath(t *testing.T) {
	_, err := InitDB(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	if err == nil {
		t.Error("expected error for unreachable path")
	}
}
