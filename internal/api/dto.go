package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notesmith/internal/frontmatter"
	"github.com/starford/notesmith/internal/index"
	"github.com/starford/notesmith/internal/models"
	"github.com/starford/notesmith/internal/noteservice"
)

var markdownPath = validation.By(func(v any) error {
	if s, _ := v.(string); s != "" && !strings.HasSuffix(s, ".md") {
		return errors.New("must end in .md")
	}
	return nil
})

// CreateNoteRequest is the body of POST /notes.
type CreateNoteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Validate implements validation.Validatable.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required, markdownPath),
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateNoteRequest is the body of PUT /notes/*.
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// Validate implements validation.Validatable.
func (r UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

// FrontmatterRequest is the body of PATCH /notes/*/frontmatter.
type FrontmatterRequest struct {
	Set    map[string]any `json:"set,omitempty"`
	Remove []string       `json:"remove,omitempty"`
}

// Validate implements validation.Validatable.
func (r FrontmatterRequest) Validate() error {
	if len(r.Set) == 0 && len(r.Remove) == 0 {
		return errors.New("set or remove is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Remove, validation.Each(validation.Required)),
	)
}

// TemplateRequest is the body of POST /templates/analyze and
// POST /templates/render. Either Name or Content selects the template.
type TemplateRequest struct {
	Name    string         `json:"name,omitempty"`
	Content string         `json:"content,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Validate implements validation.Validatable.
func (r TemplateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.When(r.Content == "", validation.Required.Error("name or content is required"))),
	)
}

func (r TemplateRequest) source() noteservice.TemplateSource {
	return noteservice.TemplateSource{Name: r.Name, Content: r.Content}
}

// NewNoteRequest is the body of POST /notes/from-template.
type NewNoteRequest struct {
	TemplateRequest
	Title  string `json:"title,omitempty"`
	Folder string `json:"folder,omitempty"`
}

// NoteDetail is the full note response type.
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response.
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// TemplateListResponse wraps the templates folder listing.
type TemplateListResponse struct {
	Templates []models.TemplateInfo `json:"templates"`
}

// AnalyzeResponse is the structure of an analyzed template.
type AnalyzeResponse = frontmatter.TemplateStructure

// RenderResponse is a rendered template preview.
type RenderResponse = noteservice.RenderedTemplate

// DuplicatesResponse wraps duplicate groups.
type DuplicatesResponse struct {
	Groups []models.DuplicateGroup `json:"groups"`
}

// RenderErrorResponse reports a template failure with its source location.
type RenderErrorResponse struct {
	Error   string `json:"error"`
	LineNo  int    `json:"lineNo,omitempty"`
	Context string `json:"context,omitempty"`
}
