// Package mcpserver exposes notesmith's template and note tools over the
// Model Context Protocol (stdio transport).
package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notesmith/internal/noteservice"
)

// TemplateFormatURI is the resource describing the template format.
const TemplateFormatURI = "notesmith://template-format"

// Server wraps the MCP server with notesmith tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *noteservice.Service
	handlers map[string]server.ToolHandlerFunc
}

// New creates an MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc, handlers: make(map[string]server.ToolHandlerFunc)}
	s.mcp = server.NewMCPServer(
		"notesmith",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	sourceOpts := []mcp.ToolOption{
		mcp.WithString("name", mcp.Description("Template name inside the templates folder, e.g. daily or work/meeting")),
		mcp.WithString("content", mcp.Description("Inline template text; used instead of name when set")),
	}

	s.add(mcp.NewTool("list_templates",
		mcp.WithDescription("List the templates in the vault's templates folder with their titles."),
	), s.listTemplates)

	s.add(mcp.NewTool("analyze_template",
		append([]mcp.ToolOption{
			mcp.WithDescription("Split a template into template frontmatter (newNoteTitle etc.), output frontmatter and body, and report its inline title."),
		}, sourceOpts...)...,
	), s.analyzeTemplate)

	s.add(mcp.NewTool("render_template",
		append([]mcp.ToolOption{
			mcp.WithDescription("Render a template without creating a note. Read " + TemplateFormatURI + " for the syntax."),
			mcp.WithObject("data", mcp.Description("Values available to template expressions")),
		}, sourceOpts...)...,
	), s.renderTemplate)

	s.add(mcp.NewTool("new_note_from_template",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create a note from a template. The title comes from the title argument, " +
				"the template's newNoteTitle, the output frontmatter title or the first heading, in that order."),
			mcp.WithString("title", mcp.Description("Explicit note title")),
			mcp.WithString("folder", mcp.Description("Target folder; defaults to the template's folder attribute")),
			mcp.WithObject("data", mcp.Description("Values available to template expressions")),
		}, sourceOpts...)...,
	), s.newNoteFromTemplate)

	s.add(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. journal/day.md)")),
	), s.readNote)

	s.add(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles, tags and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchNotes)

	s.add(mcp.NewTool("set_frontmatter",
		mcp.WithDescription("Set and/or remove frontmatter attributes of a note. Values may be strings, numbers, booleans or string lists."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithObject("set", mcp.Description("Attributes to set")),
		mcp.WithArray("remove", mcp.Description("Attribute keys to remove"), mcp.Items(map[string]any{"type": "string"})),
	), s.setFrontmatter)

	s.add(mcp.NewTool("archive_note",
		mcp.WithDescription("Move a note into the archive folder, keeping its relative path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
	), s.archiveNote)

	s.add(mcp.NewTool("find_duplicates",
		mcp.WithDescription("List groups of notes sharing a title (case-insensitive) or identical content."),
	), s.findDuplicates)

	s.mcp.AddResource(
		mcp.NewResource(TemplateFormatURI, "Template Format",
			mcp.WithResourceDescription("Frontmatter layout and expression syntax of notesmith templates."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTemplateFormat,
	)
	return s
}

func (s *Server) add(tool mcp.Tool, h server.ToolHandlerFunc) {
	s.handlers[tool.Name] = h
	s.mcp.AddTool(tool, h)
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// bindArgs decodes the tool arguments into dst.
func bindArgs(req mcp.CallToolRequest, dst any) error {
	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a service error into a tool-level error result. Render
// errors already carry the failing line and its surroundings.
func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
