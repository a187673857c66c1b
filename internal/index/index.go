package index

import "github.com/starford/notesmith/internal/models"

// NoteIndex is the index surface used by the note service and the API.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string) error
	DeleteNote(path string) error
	GetNote(path string) (*NoteRow, error)
	GetChecksum(path string) (string, error)
	ListNotes(q ListQuery) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Duplicates() ([]models.DuplicateGroup, error)
	AllChecksums() (map[string]string, error)
	Ping() error
	Close() error
}

var _ NoteIndex = (*DB)(nil)
