package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/starford/notesmith/internal/apperr"
	"github.com/starford/notesmith/internal/frontmatter"
	"github.com/starford/notesmith/internal/models"
	"github.com/starford/notesmith/internal/render"
	"github.com/starford/notesmith/internal/storage"
)

// KeyFolder is the template frontmatter attribute naming the default folder
// for notes created from the template.
const KeyFolder = "folder"

// TemplateSource selects a template either by name inside the templates
// folder or by inline content. Content wins when both are set.
type TemplateSource struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

// RenderedTemplate is the outcome of rendering a template without saving it.
type RenderedTemplate struct {
	Structure frontmatter.TemplateStructure `json:"structure"`
	// Content is everything after the template frontmatter, rendered.
	Content string `json:"content"`
	// NewNoteTitle is the rendered newNoteTitle directive, if any.
	NewNoteTitle string `json:"newNoteTitle,omitempty"`
	// Title is the output frontmatter title of the rendered content, or its
	// inline title.
	Title string `json:"title,omitempty"`
}

// NewNoteRequest describes a note to create from a template.
type NewNoteRequest struct {
	Template TemplateSource
	// Title overrides any title the template produces.
	Title string
	// Folder is where the note is created; defaults to the template's
	// "folder" attribute, then the vault root.
	Folder string
	// Data is exposed to template expressions.
	Data map[string]any
}

// ListTemplates returns every template in the templates folder, sorted by
// name.
func (s *Service) ListTemplates(_ context.Context) ([]models.TemplateInfo, error) {
	if s.templatesFolder == "" {
		return []models.TemplateInfo{}, nil
	}
	metas, err := s.store.Glob(s.templatesFolder, s.templatesFolder+"/**/*.md")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.TemplateInfo{}, nil
		}
		return nil, fmt.Errorf("noteservice: list templates: %w", err)
	}

	out := make([]models.TemplateInfo, 0, len(metas))
	for _, m := range metas {
		data, err := s.store.Read(m.Path)
		if err != nil {
			return nil, storeErr("read template", m.Path, err)
		}
		st := frontmatter.AnalyzeTemplateStructure(string(data))
		info := models.TemplateInfo{
			Name:         templateName(s.templatesFolder, m.Path),
			Path:         m.Path,
			Title:        st.InlineTitleText,
			NewNoteTitle: st.TemplateFrontmatter.StringValue(frontmatter.KeyNewNoteTitle),
		}
		if st.HasOutputTitle {
			info.Title = st.OutputFrontmatter.StringValue(frontmatter.KeyTitle)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LoadTemplate returns the text of a template and the name used in error
// messages.
func (s *Service) LoadTemplate(_ context.Context, src TemplateSource) (text, name string, err error) {
	if src.Content != "" {
		return src.Content, "template", nil
	}
	name = strings.TrimSuffix(strings.Trim(src.Name, "/"), ".md")
	if name == "" {
		return "", "", fmt.Errorf("noteservice: template name or content required: %w", apperr.ErrInvalid)
	}
	p := storage.JoinPath(s.templatesFolder, name+".md")
	data, err := s.store.Read(p)
	if err != nil {
		return "", "", storeErr("load template", p, err)
	}
	return string(data), p, nil
}

// AnalyzeTemplate classifies a template's frontmatter blocks and title.
func (s *Service) AnalyzeTemplate(ctx context.Context, src TemplateSource) (frontmatter.TemplateStructure, error) {
	text, _, err := s.LoadTemplate(ctx, src)
	if err != nil {
		return frontmatter.TemplateStructure{}, err
	}
	return frontmatter.AnalyzeTemplateStructure(text), nil
}

// RenderTemplate renders a template without writing anything. Render
// failures are returned as *render.RenderError with line numbers of the
// full template.
func (s *Service) RenderTemplate(ctx context.Context, src TemplateSource, data map[string]any) (*RenderedTemplate, error) {
	text, name, err := s.LoadTemplate(ctx, src)
	if err != nil {
		return nil, err
	}
	return s.renderText(text, name, data)
}

func (s *Service) renderText(text, name string, data map[string]any) (*RenderedTemplate, error) {
	return RenderText(text, name, data, s.now)
}

// RenderText renders template text outside of a vault. name is used in
// error messages and now drives the date helpers (time.Now when nil).
func RenderText(text, name string, data map[string]any, now func() time.Time) (*RenderedTemplate, error) {
	st := frontmatter.AnalyzeTemplateStructure(text)
	lines := frontmatter.SplitLines(text)
	opts := render.Options{Filename: name, Now: now}
	scope := make(map[string]any, len(data)+1)
	for k, v := range data {
		scope[k] = v
	}
	if _, ok := scope["template"]; !ok {
		scope["template"] = st.TemplateFrontmatter.ToMap()
	}

	out := &RenderedTemplate{Structure: st}
	if st.HasNewNoteTitle {
		raw := st.TemplateFrontmatter.StringValue(frontmatter.KeyNewNoteTitle)
		opts.LineOffset = attributeLine(lines, st.ContentStartLine, frontmatter.KeyNewNoteTitle)
		title, err := render.Render(raw, scope, opts)
		if err != nil {
			return nil, fmt.Errorf("noteservice: render newNoteTitle: %w", err)
		}
		out.NewNoteTitle = strings.TrimSpace(title)
	}

	body := ""
	if st.ContentStartLine < len(lines) {
		body = strings.Join(lines[st.ContentStartLine:], "\n")
	}
	opts.LineOffset = st.ContentStartLine
	rendered, err := render.Render(body, scope, opts)
	if err != nil {
		return nil, fmt.Errorf("noteservice: render: %w", err)
	}
	// Blank lines between the template and output blocks would hide the
	// output block from Split.
	out.Content = trimLeadingBlankLines(rendered)
	out.Title = renderedTitle(out.Content)
	return out, nil
}

// NewNoteFromTemplate renders a template into a new note.
//
// The title is, in order: the request title, the rendered newNoteTitle
// directive, the rendered output frontmatter title, the inline title of the
// rendered content. A note without any
// title is rejected. The title is written into the output frontmatter when
// the note has one, or prepended as a heading when the note has neither
// frontmatter nor an inline title.
func (s *Service) NewNoteFromTemplate(ctx context.Context, req NewNoteRequest) (*NoteDetail, error) {
	text, name, err := s.LoadTemplate(ctx, req.Template)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any, len(req.Data)+1)
	for k, v := range req.Data {
		data[k] = v
	}
	if _, ok := data[frontmatter.KeyTitle]; !ok {
		data[frontmatter.KeyTitle] = strings.TrimSpace(req.Title)
	}

	r, err := s.renderText(text, name, data)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = r.NewNoteTitle
	}
	if title == "" {
		title = r.Title
	}
	if title == "" {
		return nil, fmt.Errorf("noteservice: %s produces no note title: %w", name, apperr.ErrInvalid)
	}

	content := ensureTitle(frontmatter.NormalizeDelimiters(r.Content), title)

	folder := cleanFolder(req.Folder)
	if folder == "" {
		folder = cleanFolder(r.Structure.TemplateFrontmatter.StringValue(KeyFolder))
	}
	path := uniquePath(s.store, folder, fileNameFor(title))
	return s.write(path, []byte(content))
}

func renderedTitle(content string) string {
	if doc := frontmatter.Split(content); doc.Attributes.HasValue(frontmatter.KeyTitle) {
		return strings.TrimSpace(doc.Attributes.StringValue(frontmatter.KeyTitle))
	}
	return frontmatter.GetNoteTitleFromRenderedContent(content)
}

// ensureTitle makes sure a generated note carries its title.
func ensureTitle(content, title string) string {
	doc := frontmatter.Split(content)
	if doc.HasFrontmatter {
		if doc.Attributes.HasValue(frontmatter.KeyTitle) {
			return content
		}
		updates := frontmatter.NewAttributeMap()
		updates.Set(frontmatter.KeyTitle, frontmatter.StringValue(title))
		return frontmatter.SetAttributes(content, updates)
	}
	if _, ok := frontmatter.FindInlineTitle(content); ok {
		return content
	}
	if strings.TrimSpace(content) == "" {
		return "# " + title + "\n"
	}
	return "# " + title + "\n\n" + strings.TrimLeft(content, "\n")
}

// attributeLine returns the 0-based line of key inside the template
// frontmatter that ends before end, or -1 when not found.
func attributeLine(lines []string, end int, key string) int {
	for i := 1; i < end && i < len(lines); i++ {
		k, _, ok := strings.Cut(lines[i], ":")
		if ok && strings.TrimSpace(k) == key {
			return i
		}
	}
	return -1
}

func trimLeadingBlankLines(text string) string {
	lines := frontmatter.SplitLines(text)
	i := 0
	for i < len(lines)-1 && frontmatter.IsBlankLine(lines[i]) {
		i++
	}
	return strings.Join(lines[i:], "\n")
}

func templateName(folder, path string) string {
	return strings.TrimSuffix(strings.TrimPrefix(path, folder+"/"), ".md")
}
