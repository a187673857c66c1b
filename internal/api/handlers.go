package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesmith/internal/index"
	"github.com/starford/notesmith/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL wildcard, accepting encoded
// slashes (e.g. journal%2Fday.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// requirePath writes a 400 when the wildcard path is empty.
func requirePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := notePath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return "", false
	}
	return p, true
}

// actionPath splits "<note>/<action>" wildcard paths such as
// "journal/day.md/archive". It writes a 404 when the action does not match.
func actionPath(w http.ResponseWriter, r *http.Request, action string) (string, bool) {
	note, ok := strings.CutSuffix(notePath(r), "/"+action)
	if !ok || note == "" {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return "", false
	}
	return note, true
}

// NoteAction handles POST /api/notes/*/archive and
// POST /api/notes/*/convert-title.
func (h *Handler) NoteAction(w http.ResponseWriter, r *http.Request) {
	switch p := notePath(r); {
	case strings.HasSuffix(p, "/archive"):
		h.ArchiveNote(w, r)
	case strings.HasSuffix(p, "/convert-title"):
		h.ConvertTitle(w, r)
	default:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	}
}

// ListNotes handles GET /api/notes?limit=&offset=&tag=&folder=&sort=path|title|updated.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	items, total, err := h.svc.ListNotes(r.Context(), index.ListQuery{
		Limit:  limit,
		Offset: offset,
		Tag:    q.Get("tag"),
		Prefix: q.Get("folder"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/*. An If-Match header carrying the
// current checksum guards against lost updates.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), path, []byte(req.Content), ifMatch(r))
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/*.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteNote(r.Context(), path); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PatchFrontmatter handles PATCH /api/notes/*/frontmatter.
func (h *Handler) PatchFrontmatter(w http.ResponseWriter, r *http.Request) {
	path, ok := actionPath(w, r, "frontmatter")
	if !ok {
		return
	}
	var req FrontmatterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.SetFrontmatter(r.Context(), path, noteservice.FrontmatterPatch{
		Set:     req.Set,
		Remove:  req.Remove,
		IfMatch: ifMatch(r),
	})
	if err != nil {
		writeError(w, "patch frontmatter", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ConvertTitle handles POST /api/notes/*/convert-title.
func (h *Handler) ConvertTitle(w http.ResponseWriter, r *http.Request) {
	path, ok := actionPath(w, r, "convert-title")
	if !ok {
		return
	}
	note, err := h.svc.ConvertInlineTitle(r.Context(), path)
	if err != nil {
		writeError(w, "convert title", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ArchiveNote handles POST /api/notes/*/archive.
func (h *Handler) ArchiveNote(w http.ResponseWriter, r *http.Request) {
	path, ok := actionPath(w, r, "archive")
	if !ok {
		return
	}
	note, err := h.svc.ArchiveNote(r.Context(), path)
	if err != nil {
		writeError(w, "archive note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Search handles GET /api/search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Duplicates handles GET /api/duplicates.
func (h *Handler) Duplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Duplicates(r.Context())
	if err != nil {
		writeError(w, "duplicates", err)
		return
	}
	writeJSON(w, http.StatusOK, DuplicatesResponse{Groups: groups})
}

func ifMatch(r *http.Request) string {
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}
