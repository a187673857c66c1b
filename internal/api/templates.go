package api

import (
	"net/http"

	"github.com/starford/notesmith/internal/noteservice"
)

// ListTemplates handles GET /api/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		writeError(w, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, TemplateListResponse{Templates: list})
}

// AnalyzeTemplate handles POST /api/templates/analyze.
func (h *Handler) AnalyzeTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.svc.AnalyzeTemplate(r.Context(), req.source())
	if err != nil {
		writeError(w, "analyze template", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RenderTemplate handles POST /api/templates/render. Nothing is written to
// the vault; template errors are answered with 422 and the failing line.
func (h *Handler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.svc.RenderTemplate(r.Context(), req.source(), req.Data)
	if err != nil {
		writeError(w, "render template", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// NewNoteFromTemplate handles POST /api/notes/from-template.
func (h *Handler) NewNoteFromTemplate(w http.ResponseWriter, r *http.Request) {
	var req NewNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.NewNoteFromTemplate(r.Context(), noteservice.NewNoteRequest{
		Template: req.source(),
		Title:    req.Title,
		Folder:   req.Folder,
		Data:     req.Data,
	})
	if err != nil {
		writeError(w, "new note from template", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
