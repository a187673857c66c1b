// Package storage provides access to the Markdown vault on disk.
package storage

import "github.com/starford/notesmith/internal/models"

// Provider is the vault file abstraction. All paths are relative to the
// vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every non-ignored .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Glob returns metadata for .md files under dir matching a doublestar pattern.
	Glob(dir, pattern string) ([]models.NoteMetadata, error)
	// Exists reports whether a file exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath; newPath must not exist.
	Move(oldPath, newPath string) error
	// Ignored reports whether path is excluded from listings.
	Ignored(path string) bool
}

var _ Provider = (*FS)(nil)
