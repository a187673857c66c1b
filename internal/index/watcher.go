package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reconcileDelay = 200 * time.Millisecond

// Watch follows file-system changes under vaultRoot until ctx is cancelled
// and calls cb after each index mutation.
//
// Writes and creates are indexed directly. Removes drop the entry. Renames
// and new directories schedule a debounced reconcile pass, since fsnotify
// reports only the old name of a renamed file.
func (ix *Indexer) Watch(ctx context.Context, vaultRoot string, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}
	ix.logger.Info("watcher: started", slog.String("root", vaultRoot))

	timer := time.NewTimer(reconcileDelay)
	timer.Stop()
	defer timer.Stop()
	schedule := func() { timer.Reset(reconcileDelay) }

	for {
		select {
		case <-ctx.Done():
			ix.logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			if _, err := ix.reconcile(cb); err != nil {
				ix.logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addDirsRecursive(w, ev.Name); err != nil {
						ix.logger.Warn("watcher: add dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
					}
					schedule()
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			rel, err := filepath.Rel(vaultRoot, ev.Name)
			if err != nil {
				continue
			}
			ix.handle(ev.Op, filepath.ToSlash(rel), cb, schedule)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ix.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

func (ix *Indexer) handle(op fsnotify.Op, rel string, cb EventCallback, schedule func()) {
	notify := func(kind string) {
		if cb != nil {
			cb(kind, rel)
		}
	}

	switch {
	case op&(fsnotify.Create|fsnotify.Write) != 0:
		if ix.store.Ignored(rel) {
			return
		}
		prev, _ := ix.db.GetChecksum(rel)
		data, err := ix.store.Read(rel)
		if err != nil {
			ix.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		if err := ix.IndexFile(rel, data); err != nil {
			ix.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		kind := EventUpdated
		if prev == "" {
			kind = EventCreated
		}
		ix.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
		notify(kind)

	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if cs, _ := ix.db.GetChecksum(rel); cs != "" {
			if err := ix.db.DeleteNote(rel); err != nil {
				ix.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
				return
			}
			ix.logger.Debug("watcher: deleted", slog.String("path", rel))
			notify(EventDeleted)
		}
		if op&fsnotify.Rename != 0 {
			schedule()
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
