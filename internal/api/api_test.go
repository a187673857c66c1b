package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/notesmith/internal/noteservice"
	"github.com/starford/notesmith/internal/sse"
	"github.com/starford/notesmith/internal/storage"
	"github.com/starford/notesmith/internal/testutil"
)

type env struct {
	svc    *noteservice.Service
	store  *storage.FS
	router http.Handler
}

func testEnv(t *testing.T, token string) env {
	t.Helper()
	svc, store := testutil.TestService(t)
	return env{svc: svc, store: store, router: NewRouter(svc, token != "", token, nil)}
}

func (e env) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateAndGetNote(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "hello.md", Content: "# Hello\nWorld"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/notes/hello.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	note := decode[map[string]any](t, w)
	if note["path"] != "hello.md" || note["title"] != "Hello" {
		t.Errorf("note = %v", note)
	}

	w = e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "hello.md", Content: "again"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestCreateNote_Validation(t *testing.T) {
	e := testEnv(t, "")
	for _, body := range []any{
		"{not json",
		CreateNoteRequest{Path: "x.md"},
		CreateNoteRequest{Path: "x.txt", Content: "c"},
	} {
		if w := e.do(t, http.MethodPost, "/notes", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %v: status = %d", body, w.Code)
		}
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "lock.md", Content: "v1"})
	created := decode[NoteDetail](t, w)

	w = e.do(t, http.MethodPut, "/notes/lock.md", UpdateNoteRequest{Content: "v2"}, "If-Match", `"wrong"`)
	if w.Code != http.StatusConflict {
		t.Errorf("stale update = %d, want 409", w.Code)
	}
	w = e.do(t, http.MethodPut, "/notes/lock.md", UpdateNoteRequest{Content: "v2"}, "If-Match", `"`+created.Checksum+`"`)
	if w.Code != http.StatusOK {
		t.Errorf("update = %d, body = %s", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodPut, "/notes/missing.md", UpdateNoteRequest{Content: "v"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	e := testEnv(t, "")
	testutil.WriteFile(t, e.store, "del.md", "bye")

	if w := e.do(t, http.MethodDelete, "/notes/del.md", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/notes/del.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestListNotesAndSearch(t *testing.T) {
	e := testEnv(t, "")
	for _, n := range []CreateNoteRequest{
		{Path: "a.md", Content: "---\ntags: [work]\n---\n# A\nneedle"},
		{Path: "journal/b.md", Content: "# B"},
	} {
		if w := e.do(t, http.MethodPost, "/notes", n); w.Code != http.StatusCreated {
			t.Fatalf("create %s = %d", n.Path, w.Code)
		}
	}

	list := decode[NoteListResponse](t, e.do(t, http.MethodGet, "/notes?sort=title", nil))
	if list.Total != 2 || list.Notes[0].Path != "a.md" {
		t.Errorf("list = %+v", list)
	}
	list = decode[NoteListResponse](t, e.do(t, http.MethodGet, "/notes?tag=work", nil))
	if list.Total != 1 {
		t.Errorf("tag list = %+v", list)
	}
	list = decode[NoteListResponse](t, e.do(t, http.MethodGet, "/notes?folder=journal", nil))
	if list.Total != 1 || list.Notes[0].Path != "journal/b.md" {
		t.Errorf("folder list = %+v", list)
	}

	res := decode[SearchResponse](t, e.do(t, http.MethodGet, "/search?q=needle", nil))
	if len(res.Results) != 1 || res.Results[0].Path != "a.md" {
		t.Errorf("search = %+v", res)
	}
	if w := e.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search without q = %d", w.Code)
	}
}

func TestPatchFrontmatter(t *testing.T) {
	e := testEnv(t, "")
	testutil.WriteFile(t, e.store, "n.md", "---\nstatus: open\n---\nbody")

	w := e.do(t, http.MethodPatch, "/notes/n.md/frontmatter", FrontmatterRequest{
		Set:    map[string]any{"done": true},
		Remove: []string{"status"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d, body = %s", w.Code, w.Body.String())
	}
	if note := decode[NoteDetail](t, w); note.Content != "---\ndone: true\n---\nbody" {
		t.Errorf("content = %q", note.Content)
	}

	if w := e.do(t, http.MethodPatch, "/notes/n.md/frontmatter", FrontmatterRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty patch = %d", w.Code)
	}
	if w := e.do(t, http.MethodPatch, "/notes/n.md", FrontmatterRequest{Remove: []string{"x"}}); w.Code != http.StatusNotFound {
		t.Errorf("patch without action = %d", w.Code)
	}
}

func TestArchiveAndConvertTitle(t *testing.T) {
	e := testEnv(t, "")
	testutil.WriteFile(t, e.store, "p/n.md", "# Heading\nx")

	w := e.do(t, http.MethodPost, "/notes/p/n.md/convert-title", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("convert = %d, body = %s", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodPost, "/notes/p/n.md/archive", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("archive = %d, body = %s", w.Code, w.Body.String())
	}
	if note := decode[NoteDetail](t, w); note.Path != "@Archive/p/n.md" || note.Title != "Heading" {
		t.Errorf("archived = %+v", note)
	}
	if w := e.do(t, http.MethodPost, "/notes/p/n.md/archive", nil); w.Code != http.StatusNotFound {
		t.Errorf("archive missing = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/notes/p/n.md/explode", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown action = %d", w.Code)
	}
}

func TestTemplates(t *testing.T) {
	e := testEnv(t, "")
	testutil.WriteFile(t, e.store, "Templates/daily.md", "---\nnewNoteTitle: Day <%- date.now() %>\n---\n# <%- heading %>\n")

	list := decode[TemplateListResponse](t, e.do(t, http.MethodGet, "/templates", nil))
	if len(list.Templates) != 1 || list.Templates[0].Name != "daily" {
		t.Errorf("templates = %+v", list)
	}

	w := e.do(t, http.MethodPost, "/templates/analyze", TemplateRequest{Name: "daily"})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze = %d", w.Code)
	}
	st := decode[map[string]any](t, w)
	if st["hasNewNoteTitle"] != true || st["inlineTitleText"] != "<%- heading %>" {
		t.Errorf("structure = %v", st)
	}

	w = e.do(t, http.MethodPost, "/templates/render", TemplateRequest{Name: "daily", Data: map[string]any{"heading": "Today"}})
	if w.Code != http.StatusOK {
		t.Fatalf("render = %d, body = %s", w.Code, w.Body.String())
	}
	if r := decode[RenderResponse](t, w); r.NewNoteTitle != "Day 2024-03-05" || r.Content != "# Today\n" {
		t.Errorf("render = %+v", r)
	}

	w = e.do(t, http.MethodPost, "/templates/render", TemplateRequest{Name: "daily"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("render error = %d", w.Code)
	}
	if rerr := decode[RenderErrorResponse](t, w); rerr.LineNo != 4 || !strings.Contains(rerr.Error, "heading") {
		t.Errorf("render error = %+v", rerr)
	}

	if w := e.do(t, http.MethodPost, "/templates/analyze", TemplateRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("analyze without template = %d", w.Code)
	}
}

func TestNewNoteFromTemplate(t *testing.T) {
	e := testEnv(t, "")
	testutil.WriteFile(t, e.store, "Templates/meeting.md", "---\n---\n--\ntitle: <%- topic %>\n--\nNotes")

	w := e.do(t, http.MethodPost, "/notes/from-template", NewNoteRequest{
		TemplateRequest: TemplateRequest{Name: "meeting", Data: map[string]any{"topic": "Sync"}},
		Folder:          "meetings",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("from-template = %d, body = %s", w.Code, w.Body.String())
	}
	note := decode[NoteDetail](t, w)
	if note.Path != "meetings/Sync.md" || note.Content != "---\ntitle: Sync\n---\nNotes" {
		t.Errorf("note = %+v", note)
	}

	w = e.do(t, http.MethodPost, "/notes/from-template", NewNoteRequest{
		TemplateRequest: TemplateRequest{Content: "no title"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("untitled = %d", w.Code)
	}
}

func TestDuplicates(t *testing.T) {
	e := testEnv(t, "")
	e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "a.md", Content: "# Same"})
	e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Path: "b.md", Content: "# same\n"})

	res := decode[DuplicatesResponse](t, e.do(t, http.MethodGet, "/duplicates", nil))
	if len(res.Groups) != 1 || res.Groups[0].Kind != "title" || len(res.Groups[0].Paths) != 2 {
		t.Errorf("duplicates = %+v", res)
	}
}

func TestAuthMiddleware(t *testing.T) {
	e := testEnv(t, "secret123")
	for _, tc := range []struct {
		header string
		want   int
	}{
		{"Bearer secret123", http.StatusOK},
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"secret123", http.StatusUnauthorized},
	} {
		var headers []string
		if tc.header != "" {
			headers = []string{"Authorization", tc.header}
		}
		if w := e.do(t, http.MethodGet, "/notes", nil, headers...); w.Code != tc.want {
			t.Errorf("header %q: status = %d, want %d", tc.header, w.Code, tc.want)
		}
	}

	open := testEnv(t, "")
	if w := open.do(t, http.MethodGet, "/notes", nil); w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d", w.Code)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	svc, _ := testutil.TestService(t)
	broker := sse.NewBroker(time.Minute)
	defer broker.Close()
	router := NewRouter(svc, true, "tok", broker)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated events = %d", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req = httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("authenticated events = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}
