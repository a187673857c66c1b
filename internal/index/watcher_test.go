package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/notesmith/internal/storage"
)

func watcherEnv(t *testing.T) (string, *Indexer, *DB) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, storage.WithIgnore("@Archive/**"))
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	return dir, NewIndexer(db, store, quietLogger()), db
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, ix *Indexer, dir string, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ix.Watch(ctx, dir, cb)
	time.Sleep(100 * time.Millisecond)
}

func indexed(db *DB, path string) func() bool {
	return func() bool {
		cs, _ := db.GetChecksum(path)
		return cs != ""
	}
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	dir, ix, db := watcherEnv(t)

	var mu sync.Mutex
	var events []string
	startWatch(t, ix, dir, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	_ = os.WriteFile(filepath.Join(dir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, indexed(db, "new.md"), "new file not indexed by watcher")
	eventually(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.md" {
				return true
			}
		}
		return false
	}, "expected created:new.md callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir, ix, db := watcherEnv(t)
	startWatch(t, ix, dir, nil)

	sub := filepath.Join(dir, "subdir")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, indexed(db, "subdir/deep.md"), "file in new subdir not indexed")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dir, ix, db := watcherEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "del.md"), []byte("# Delete Me"), 0o644)
	if err := ix.Sync(); err != nil {
		t.Fatal(err)
	}
	startWatch(t, ix, dir, nil)

	_ = os.Remove(filepath.Join(dir, "del.md"))
	eventually(t, 5*time.Second, func() bool { return !indexed(db, "del.md")() }, "deleted file still in index")
}

func TestWatcher_MoveIntoIgnoredFolder(t *testing.T) {
	dir, ix, db := watcherEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "old.md"), []byte("# Rename"), 0o644)
	_ = os.MkdirAll(filepath.Join(dir, "@Archive"), 0o755)
	if err := ix.Sync(); err != nil {
		t.Fatal(err)
	}
	startWatch(t, ix, dir, nil)

	_ = os.Rename(filepath.Join(dir, "old.md"), filepath.Join(dir, "renamed.md"))
	eventually(t, 5*time.Second, func() bool {
		return !indexed(db, "old.md")() && indexed(db, "renamed.md")()
	}, "rename not reconciled")

	_ = os.Rename(filepath.Join(dir, "renamed.md"), filepath.Join(dir, "@Archive", "renamed.md"))
	eventually(t, 5*time.Second, func() bool {
		return !indexed(db, "renamed.md")() && !indexed(db, "@Archive/renamed.md")()
	}, "archived note should leave the index")
}
