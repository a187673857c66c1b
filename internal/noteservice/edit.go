package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/starford/notesmith/internal/apperr"
	"github.com/starford/notesmith/internal/frontmatter"
	"github.com/starford/notesmith/internal/storage"
)

// FrontmatterPatch describes a frontmatter edit. Set is applied before
// Remove.
type FrontmatterPatch struct {
	Set     map[string]any
	Remove  []string
	IfMatch string
}

// SetFrontmatter edits the leading frontmatter block of a note, creating
// one when needed. Values may be strings, numbers, booleans or lists of
// strings.
func (s *Service) SetFrontmatter(_ context.Context, path string, p FrontmatterPatch) (*NoteDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if err := checkMatch(path, data, p.IfMatch); err != nil {
		return nil, err
	}

	updates := frontmatter.NewAttributeMap()
	for _, k := range sortedKeys(p.Set) {
		if strings.TrimSpace(k) == "" || strings.ContainsAny(k, ":\n") {
			return nil, fmt.Errorf("noteservice: frontmatter key %q: %w", k, apperr.ErrInvalid)
		}
		v, err := attributeValue(p.Set[k])
		if err != nil {
			return nil, fmt.Errorf("noteservice: frontmatter %s: %v: %w", k, err, apperr.ErrInvalid)
		}
		updates.Set(k, v)
	}

	text := string(data)
	if updates.Len() > 0 {
		text = frontmatter.SetAttributes(text, updates)
	}
	if len(p.Remove) > 0 {
		text, _ = frontmatter.RemoveAttributes(text, p.Remove...)
	}
	if text == string(data) {
		return s.buildNoteDetail(path, data), nil
	}
	return s.write(path, []byte(text))
}

// ConvertInlineTitle moves a note's leading "# Title" heading into its
// frontmatter title attribute.
func (s *Service) ConvertInlineTitle(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	text, changed := frontmatter.ConvertInlineTitle(string(data))
	if !changed {
		return nil, fmt.Errorf("noteservice: %s has no inline title to convert: %w", path, apperr.ErrInvalid)
	}
	return s.write(path, []byte(text))
}

// ArchiveNote moves a note into the archive folder, keeping its path
// relative to the vault root. It returns the archived note.
func (s *Service) ArchiveNote(_ context.Context, path string) (*NoteDetail, error) {
	if s.archiveFolder == "" {
		return nil, fmt.Errorf("noteservice: archive folder not configured: %w", apperr.ErrInvalid)
	}
	if path == s.archiveFolder || strings.HasPrefix(path, s.archiveFolder+"/") {
		return nil, fmt.Errorf("noteservice: %s is already archived: %w", path, apperr.ErrInvalid)
	}
	target := storage.JoinPath(s.archiveFolder, path)
	if err := s.store.Move(path, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("noteservice: archive %s: %w", path, apperr.ErrAlreadyExists)
		}
		return nil, storeErr("archive", path, err)
	}
	if err := s.db.DeleteNote(path); err != nil {
		return nil, err
	}
	data, err := s.read(target)
	if err != nil {
		return nil, err
	}
	if !s.store.Ignored(target) {
		if err := s.IndexFile(target, data); err != nil {
			return nil, err
		}
	}
	return s.buildNoteDetail(target, data), nil
}

// attributeValue converts a decoded JSON value into an attribute.
func attributeValue(v any) (frontmatter.AttributeValue, error) {
	switch v := v.(type) {
	case nil:
		return frontmatter.StringValue(""), nil
	case string:
		return frontmatter.StringValue(v), nil
	case float64:
		return frontmatter.NumberValue(v), nil
	case int:
		return frontmatter.NumberValue(float64(v)), nil
	case bool:
		return frontmatter.BoolValue(v), nil
	case []string:
		return frontmatter.ListValue(v...), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return frontmatter.AttributeValue{}, fmt.Errorf("list items must be strings, got %T", item)
			}
			items = append(items, s)
		}
		return frontmatter.ListValue(items...), nil
	}
	return frontmatter.AttributeValue{}, fmt.Errorf("unsupported value type %T", v)
}
