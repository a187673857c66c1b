package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/notesmith/internal/apperr"
	"github.com/starford/notesmith/internal/models"
)

// NoteRow is one row of the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// SearchResult is one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Sort orders accepted by ListNotes.
const (
	SortPath    = "path"
	SortTitle   = "title"
	SortUpdated = "updated"
)

// ListQuery selects a page of notes.
type ListQuery struct {
	Limit  int
	Offset int
	Tag    string // only notes carrying this tag
	Prefix string // only notes under this folder
	Sort   string
}

// UpsertNote inserts or replaces a note and its full-text entry.
func (db *DB) UpsertNote(n NoteRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("index: encode tags: %w", err)
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(tagsJSON), body, n.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}
	if err := ftsUpsert(tx, n.Path, n.Title, body, tags); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteNote removes a note and its full-text entry. Unknown paths are not
// an error.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetNote returns the indexed row for path or apperr.ErrNotFound.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	row := db.conn.QueryRow(`SELECT path, title, checksum, tags, updated_at FROM notes WHERE path = ?`, path)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return n, nil
}

// GetChecksum returns the stored checksum for a note, or "" when the note is
// not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListNotes returns one page of notes plus the total number of matches.
func (db *DB) ListNotes(q ListQuery) ([]NoteRow, int, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	where := `WHERE 1 = 1`
	var args []any
	if q.Tag != "" {
		where += ` AND EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)`
		args = append(args, q.Tag)
	}
	if q.Prefix != "" {
		where += ` AND path LIKE ? ESCAPE '\'`
		args = append(args, likeEscape(strings.TrimSuffix(q.Prefix, "/"))+"/%")
	}

	order := `path`
	switch q.Sort {
	case SortTitle:
		order = `lower(title), path`
	case SortUpdated:
		order = `updated_at DESC, path`
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(
		`SELECT path, title, checksum, tags, updated_at FROM notes `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

// Duplicates groups notes that share a title (compared case-insensitively)
// or have identical content. Notes without a title never form a title group.
func (db *DB) Duplicates() ([]models.DuplicateGroup, error) {
	byTitle, err := db.groupBy(models.DuplicateByTitle, `lower(title)`, `title != ''`)
	if err != nil {
		return nil, err
	}
	byContent, err := db.groupBy(models.DuplicateByContent, `checksum`, `checksum != ''`)
	if err != nil {
		return nil, err
	}
	return append(byTitle, byContent...), nil
}

func (db *DB) groupBy(kind, keyExpr, filter string) ([]models.DuplicateGroup, error) {
	rows, err := db.conn.Query(`
		SELECT ` + keyExpr + ` AS k, path
		FROM notes
		WHERE ` + filter + ` AND ` + keyExpr + ` IN (
			SELECT ` + keyExpr + ` FROM notes WHERE ` + filter + `
			GROUP BY ` + keyExpr + ` HAVING count(*) > 1
		)
		ORDER BY k, path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: duplicates by %s: %w", kind, err)
	}
	defer rows.Close()

	var out []models.DuplicateGroup
	for rows.Next() {
		var key, path string
		if err := rows.Scan(&key, &path); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].Key != key {
			out = append(out, models.DuplicateGroup{Kind: kind, Key: key})
		}
		last := &out[len(out)-1]
		last.Paths = append(last.Paths, path)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*NoteRow, error) {
	var (
		n    NoteRow
		tags string
	)
	if err := r.Scan(&n.Path, &n.Title, &n.Checksum, &tags, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, fmt.Errorf("index: decode tags of %s: %w", n.Path, err)
	}
	return &n, nil
}

func likeEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
