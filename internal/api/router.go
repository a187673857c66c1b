package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesmith/internal/noteservice"
)

// NewRouter creates the /api router. sseHandler, when non-nil, is mounted
// at GET /events behind the same auth.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/from-template", h.NewNoteFromTemplate)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)
	r.Patch("/notes/*", h.PatchFrontmatter)
	r.Post("/notes/*", h.NoteAction)

	r.Get("/templates", h.ListTemplates)
	r.Post("/templates/analyze", h.AnalyzeTemplate)
	r.Post("/templates/render", h.RenderTemplate)

	r.Get("/duplicates", h.Duplicates)
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}
	return r
}
