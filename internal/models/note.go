// Package models defines the domain types shared across notesmith packages.
package models

import "time"

// NoteMetadata is a lightweight representation returned by vault listings.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TemplateInfo describes a template file found in the templates folder.
type TemplateInfo struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Title        string `json:"title,omitempty"`
	NewNoteTitle string `json:"new_note_title,omitempty"`
}

// DuplicateGroup is a set of notes that look like copies of each other.
type DuplicateGroup struct {
	// Kind is "title" for notes sharing a case-insensitive title and
	// "content" for byte-identical notes.
	Kind  string   `json:"kind"`
	Key   string   `json:"key"`
	Paths []string `json:"paths"`
}

// Duplicate group kinds.
const (
	DuplicateByTitle   = "title"
	DuplicateByContent = "content"
)
