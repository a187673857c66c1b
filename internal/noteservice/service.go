// Package noteservice coordinates the vault, the index and the template
// engine behind the REST API and the MCP server.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/notesmith/internal/apperr"
	"github.com/starford/notesmith/internal/checksum"
	"github.com/starford/notesmith/internal/frontmatter"
	"github.com/starford/notesmith/internal/index"
	"github.com/starford/notesmith/internal/models"
	"github.com/starford/notesmith/internal/parser"
	"github.com/starford/notesmith/internal/storage"
)

// Default vault folders.
const (
	DefaultTemplatesFolder = "Templates"
	DefaultArchiveFolder   = "@Archive"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string                   `json:"path"`
	Title       string                   `json:"title"`
	Content     string                   `json:"content"`
	Checksum    string                   `json:"checksum"`
	Tags        []string                 `json:"tags"`
	Frontmatter frontmatter.AttributeMap `json:"frontmatter"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Option configures a Service.
type Option func(*Service)

// WithTemplatesFolder sets the vault folder templates are loaded from.
func WithTemplatesFolder(dir string) Option {
	return func(s *Service) { s.templatesFolder = cleanFolder(dir) }
}

// WithArchiveFolder sets the vault folder notes are archived into.
func WithArchiveFolder(dir string) Option {
	return func(s *Service) { s.archiveFolder = cleanFolder(dir) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the clock used by template date helpers.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service coordinates storage, index and template operations.
type Service struct {
	store   storage.Provider
	db      *index.DB
	indexer *index.Indexer
	logger  *slog.Logger
	now     func() time.Time

	templatesFolder string
	archiveFolder   string
}

// NewService creates a note service over store and db.
func NewService(store storage.Provider, db *index.DB, opts ...Option) *Service {
	s := &Service{
		store:           store,
		db:              db,
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:             time.Now,
		templatesFolder: DefaultTemplatesFolder,
		archiveFolder:   DefaultArchiveFolder,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.indexer = index.NewIndexer(db, store, s.logger)
	return s
}

// Indexer returns the indexer backing the service; used for sync and
// watching.
func (s *Service) Indexer() *index.Indexer { return s.indexer }

// Ready reports whether the index is reachable.
func (s *Service) Ready(_ context.Context) error { return s.db.Ping() }

// GetNote reads and parses a note.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, data), nil
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if err := validNotePath(path); err != nil {
		return nil, err
	}
	if s.store.Exists(path) {
		return nil, fmt.Errorf("noteservice: create %s: %w", path, apperr.ErrAlreadyExists)
	}
	return s.write(path, content)
}

// UpdateNote replaces a note's content. A non-empty ifMatch must equal the
// current checksum.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if err := checkMatch(path, existing, ifMatch); err != nil {
		return nil, err
	}
	return s.write(path, content)
}

// DeleteNote removes a note from the vault and the index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return storeErr("delete", path, err)
	}
	return s.db.DeleteNote(path)
}

// ListNotes returns a page of indexed notes.
func (s *Service) ListNotes(_ context.Context, q index.ListQuery) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// Duplicates returns groups of notes with the same title or content.
func (s *Service) Duplicates(_ context.Context) ([]models.DuplicateGroup, error) {
	groups, err := s.db.Duplicates()
	return nonNilSlice(groups), err
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	return s.indexer.IndexFile(path, data)
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, storeErr("read", path, err)
	}
	return data, nil
}

// write stores content and indexes it. Ignored paths (templates, archive)
// are written but kept out of the index.
func (s *Service) write(path string, content []byte) (*NoteDetail, error) {
	if err := s.store.Write(path, content); err != nil {
		return nil, fmt.Errorf("noteservice: write %s: %w", path, err)
	}
	if !s.store.Ignored(path) {
		if err := s.IndexFile(path, content); err != nil {
			return nil, err
		}
	}
	s.logger.Debug("note written", slog.String("path", path))
	return s.buildNoteDetail(path, content), nil
}

func (s *Service) buildNoteDetail(path string, data []byte) *NoteDetail {
	res := parser.Parse(data)
	updated := time.Now()
	if row, err := s.db.GetNote(path); err == nil {
		updated = row.UpdatedAt
	}
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		UpdatedAt:   updated,
	}
}

func checkMatch(path string, existing []byte, ifMatch string) error {
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return fmt.Errorf("noteservice: %s changed: %w", path, apperr.ErrConflict)
	}
	return nil
}

func storeErr(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("noteservice: %s %s: %w", op, path, apperr.ErrNotFound)
	}
	return fmt.Errorf("noteservice: %s %s: %w", op, path, err)
}

func validNotePath(path string) error {
	if path == "" || !strings.HasSuffix(path, ".md") {
		return fmt.Errorf("noteservice: note path %q must end in .md: %w", path, apperr.ErrInvalid)
	}
	return nil
}

func cleanFolder(dir string) string {
	return strings.Trim(strings.TrimSpace(dir), "/")
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
