package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notesmith/internal/noteservice"
)

type templateArgs struct {
	Name    string         `json:"name"`
	Content string         `json:"content"`
	Data    map[string]any `json:"data"`
	Title   string         `json:"title"`
	Folder  string         `json:"folder"`
}

func (a templateArgs) source() noteservice.TemplateSource {
	return noteservice.TemplateSource{Name: a.Name, Content: a.Content}
}

func (s *Server) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.ListTemplates(ctx)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(list)
}

func (s *Server) analyzeTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args templateArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := s.svc.AnalyzeTemplate(ctx, args.source())
	if err != nil {
		return toolError(err)
	}
	return jsonResult(st)
}

func (s *Server) renderTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args templateArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.RenderTemplate(ctx, args.source(), args.Data)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(out)
}

func (s *Server) newNoteFromTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args templateArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.NewNoteFromTemplate(ctx, noteservice.NewNoteRequest{
		Template: args.source(),
		Title:    args.Title,
		Folder:   args.Folder,
		Data:     args.Data,
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]string{"path": note.Path, "title": note.Title})
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(results)
}

func (s *Server) setFrontmatter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Path   string         `json:"path"`
		Set    map[string]any `json:"set"`
		Remove []string       `json:"remove"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	if len(args.Set) == 0 && len(args.Remove) == 0 {
		return mcp.NewToolResultError("set or remove is required"), nil
	}
	note, err := s.svc.SetFrontmatter(ctx, args.Path, noteservice.FrontmatterPatch{Set: args.Set, Remove: args.Remove})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) archiveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.ArchiveNote(ctx, path)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText("archived: " + note.Path), nil
}

func (s *Server) findDuplicates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups, err := s.svc.Duplicates(ctx)
	if err != nil {
		return toolError(err)
	}
	if len(groups) == 0 {
		return mcp.NewToolResultText("no duplicates found"), nil
	}
	return jsonResult(groups)
}

func (s *Server) readTemplateFormat(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TemplateFormatURI,
			MIMEType: "text/markdown",
			Text:     TemplateFormatContract,
		},
	}, nil
}
