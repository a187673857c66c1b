// Package testutil provides shared test helpers for vaults, indexes and
// services.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/notesmith/internal/index"
	"github.com/starford/notesmith/internal/noteservice"
	"github.com/starford/notesmith/internal/storage"
)

// FixedNow is the clock used by TestService.
func FixedNow() time.Time { return time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC) }

// TestDB opens a SQLite index in a temp dir that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault that ignores the default templates
// and archive folders.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, storage.WithIgnore(
		noteservice.DefaultTemplatesFolder+"/**",
		noteservice.DefaultArchiveFolder+"/**",
	))
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestService wires a vault, an index and a service with a fixed clock.
func TestService(t *testing.T) (*noteservice.Service, *storage.FS) {
	t.Helper()
	_, store := TestVault(t)
	svc := noteservice.NewService(store, TestDB(t), noteservice.WithClock(FixedNow))
	return svc, store
}

// WriteFile writes a vault file or fails the test.
func WriteFile(t *testing.T, store storage.Provider, path, content string) {
	t.Helper()
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
