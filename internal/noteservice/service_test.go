package noteservice_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/notesmith/internal/apperr"
	"github.com/starford/notesmith/internal/index"
	"github.com/starford/notesmith/internal/noteservice"
	"github.com/starford/notesmith/internal/testutil"
)

func TestCRUD(t *testing.T) {
	svc, _ := testutil.TestService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "hello.md", []byte("---\ntitle: Hello\ntags: [a]\n---\nbody"))
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if note.Title != "Hello" || len(note.Tags) != 1 || note.Frontmatter.StringValue("title") != "Hello" {
		t.Errorf("note = %+v", note)
	}

	if _, err := svc.CreateNote(ctx, "hello.md", []byte("x")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create: %v", err)
	}
	if _, err := svc.CreateNote(ctx, "hello.txt", []byte("x")); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("non-markdown create: %v", err)
	}

	if _, err := svc.UpdateNote(ctx, "hello.md", []byte("# New"), "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale update: %v", err)
	}
	updated, err := svc.UpdateNote(ctx, "hello.md", []byte("# New"), note.Checksum)
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if updated.Title != "New" {
		t.Errorf("title after update = %q", updated.Title)
	}

	items, total, err := svc.ListNotes(ctx, index.ListQuery{})
	if err != nil || total != 1 || items[0].Title != "New" {
		t.Errorf("ListNotes = %+v, %d, %v", items, total, err)
	}

	if err := svc.DeleteNote(ctx, "hello.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := svc.GetNote(ctx, "hello.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete: %v", err)
	}
	if err := svc.DeleteNote(ctx, "hello.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestSetFrontmatter(t *testing.T) {
	svc, store := testutil.TestService(t)
	ctx := context.Background()
	testutil.WriteFile(t, store, "n.md", "# Title\ntext")

	note, err := svc.SetFrontmatter(ctx, "n.md", noteservice.FrontmatterPatch{
		Set: map[string]any{"status": "done", "priority": 2.0, "tags": []any{"x", "y"}},
	})
	if err != nil {
		t.Fatalf("SetFrontmatter: %v", err)
	}
	want := "---\npriority: 2\nstatus: done\ntags:\n  - x\n  - y\n---\n# Title\ntext"
	if note.Content != want {
		t.Errorf("content =\n%s\nwant\n%s", note.Content, want)
	}

	note, err = svc.SetFrontmatter(ctx, "n.md", noteservice.FrontmatterPatch{Remove: []string{"priority", "status", "tags"}})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if note.Content != "# Title\ntext" {
		t.Errorf("content after remove = %q", note.Content)
	}

	_, err = svc.SetFrontmatter(ctx, "n.md", noteservice.FrontmatterPatch{Set: map[string]any{"bad": map[string]any{}}})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("nested value: %v", err)
	}
	_, err = svc.SetFrontmatter(ctx, "n.md", noteservice.FrontmatterPatch{Set: map[string]any{"a:b": "x"}})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad key: %v", err)
	}
}

func TestConvertInlineTitle(t *testing.T) {
	svc, store := testutil.TestService(t)
	ctx := context.Background()
	testutil.WriteFile(t, store, "n.md", "# Moved\nbody")

	note, err := svc.ConvertInlineTitle(ctx, "n.md")
	if err != nil {
		t.Fatalf("ConvertInlineTitle: %v", err)
	}
	if note.Content != "---\ntitle: Moved\n---\nbody" {
		t.Errorf("content = %q", note.Content)
	}
	if _, err := svc.ConvertInlineTitle(ctx, "n.md"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("second convert: %v", err)
	}
}

func TestArchiveNote(t *testing.T) {
	svc, store := testutil.TestService(t)
	ctx := context.Background()
	testutil.WriteFile(t, store, "projects/p.md", "# P")
	if err := svc.Indexer().Sync(); err != nil {
		t.Fatal(err)
	}

	note, err := svc.ArchiveNote(ctx, "projects/p.md")
	if err != nil {
		t.Fatalf("ArchiveNote: %v", err)
	}
	if note.Path != "@Archive/projects/p.md" {
		t.Errorf("path = %q", note.Path)
	}
	if store.Exists("projects/p.md") {
		t.Error("original still exists")
	}
	if _, total, _ := svc.ListNotes(ctx, index.ListQuery{}); total != 0 {
		t.Errorf("archived note still listed, total = %d", total)
	}

	if _, err := svc.ArchiveNote(ctx, note.Path); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("archive archived: %v", err)
	}
	testutil.WriteFile(t, store, "projects/p.md", "# P again")
	if _, err := svc.ArchiveNote(ctx, "projects/p.md"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("archive collision: %v", err)
	}
	if _, err := svc.ArchiveNote(ctx, "missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("archive missing: %v", err)
	}
}

func TestDuplicatesAndSearch(t *testing.T) {
	svc, store := testutil.TestService(t)
	ctx := context.Background()
	testutil.WriteFile(t, store, "a.md", "# Same\nalpha")
	testutil.WriteFile(t, store, "b.md", "---\ntitle: same\n---\nbeta")
	testutil.WriteFile(t, store, "c.md", "# Same\nalpha")
	if err := svc.Indexer().Sync(); err != nil {
		t.Fatal(err)
	}

	groups, err := svc.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if len(groups[0].Paths) != 3 || len(groups[1].Paths) != 2 {
		t.Errorf("groups = %+v", groups)
	}

	res, err := svc.Search(ctx, "beta", 10)
	if err != nil || len(res) != 1 || res[0].Path != "b.md" {
		t.Errorf("Search = %+v, %v", res, err)
	}
	if res, _ := svc.Search(ctx, "nothing-matches", 10); res == nil {
		t.Error("empty search should return an empty slice")
	}
}

func TestGetNote_OutsideVault(t *testing.T) {
	svc, _ := testutil.TestService(t)
	_, err := svc.GetNote(context.Background(), "../escape.md")
	if err == nil || !strings.Contains(err.Error(), "escapes vault root") {
		t.Errorf("err = %v", err)
	}
}
