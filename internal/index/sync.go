package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notesmith/internal/checksum"
	"github.com/starford/notesmith/internal/parser"
	"github.com/starford/notesmith/internal/storage"
)

// Event kinds reported by the Indexer.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after each index change driven by the file
// system.
type EventCallback func(kind, path string)

// Indexer keeps a DB in step with the vault.
type Indexer struct {
	db     *DB
	store  storage.Provider
	logger *slog.Logger
}

// NewIndexer creates an Indexer for db and store.
func NewIndexer(db *DB, store storage.Provider, logger *slog.Logger) *Indexer {
	return &Indexer{db: db, store: store, logger: logger}
}

// IndexFile parses data and upserts it under path.
func (ix *Indexer) IndexFile(path string, data []byte) error {
	res := parser.Parse(data)
	row := NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		UpdatedAt: time.Now(),
	}
	if err := ix.db.UpsertNote(row, res.Body); err != nil {
		return fmt.Errorf("index: %s: %w", path, err)
	}
	return nil
}

// Sync walks the vault once: new or changed files are indexed, entries for
// files gone from disk (or now ignored) are removed. Per-file failures are
// logged and skipped.
func (ix *Indexer) Sync() error {
	_, err := ix.reconcile(nil)
	return err
}

// reconcile brings the index in line with the vault and reports how many
// entries changed.
func (ix *Indexer) reconcile(cb EventCallback) (int, error) {
	metas, err := ix.store.List("")
	if err != nil {
		return 0, err
	}
	indexed, err := ix.db.AllChecksums()
	if err != nil {
		return 0, err
	}

	changed := 0
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		prev, known := indexed[m.Path]
		if known && prev == m.Checksum {
			continue
		}
		data, err := ix.store.Read(m.Path)
		if err != nil {
			ix.logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := ix.IndexFile(m.Path, data); err != nil {
			ix.logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		changed++
		ix.logger.Debug("sync: indexed", slog.String("path", m.Path))
		if cb != nil {
			kind := EventCreated
			if known {
				kind = EventUpdated
			}
			cb(kind, m.Path)
		}
	}

	for p := range indexed {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := ix.db.DeleteNote(p); err != nil {
			ix.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		changed++
		ix.logger.Debug("sync: removed stale", slog.String("path", p))
		if cb != nil {
			cb(EventDeleted, p)
		}
	}
	return changed, nil
}
