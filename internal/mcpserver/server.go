// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Draftsmith renderer for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/noteservice"
)

const (
	markerSyntaxURI = "draftsmith://marker-syntax"
	searchLimit     = 20
)

// Server wraps the MCP server with Draftsmith tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Draftsmith tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Draftsmith",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("render_note",
		mcp.WithDescription("Render a stored note to HTML, expanding transclusions and wikilinks."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Numeric note id")),
		mcp.WithBoolean("full", mcp.Description("Return a standalone HTML page instead of a fragment")),
	), s.renderNote)

	s.mcp.AddTool(mcp.NewTool("render_markdown",
		mcp.WithDescription("Render arbitrary Markdown to an HTML fragment. "+
			"Wikilinks and transclusions resolve against the note store. "+
			"See get_marker_syntax or the "+markerSyntaxURI+" resource for the supported markers."),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Markdown source")),
	), s.renderMarkdown)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw Markdown content of a note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Numeric note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_marker_syntax",
		mcp.WithDescription("Returns the reference for wikilinks, transclusion, math and admonition markers."),
	), s.getMarkerSyntax)

	s.mcp.AddResource(
		mcp.NewResource(markerSyntaxURI, "Marker Syntax",
			mcp.WithResourceDescription("Markdown extensions understood by the Draftsmith renderer."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkerSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: %d", apperr.ErrInvalidID, id)
	}
	return int64(id), nil
}

func lookupError(id int64, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("note %d not found", id))
	case errors.Is(err, apperr.ErrBackendUnavailable):
		return mcp.NewToolResultError(fmt.Sprintf("note %d: backend unavailable", id))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) renderNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.RenderNote(ctx, id, s.svc.Defaults(), req.GetBool("full", false))
	if err != nil {
		return lookupError(id, err), nil
	}
	return mcp.NewToolResultText(note.HTML), nil
}

func (s *Server) renderMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.RenderMarkdown(ctx, md, s.svc.Defaults(), false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return lookupError(id, err), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, searchLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMarkerSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkerSyntax), nil
}

func (s *Server) readMarkerSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      markerSyntaxURI,
			MIMEType: "text/markdown",
			Text:     MarkerSyntax,
		},
	}, nil
}
