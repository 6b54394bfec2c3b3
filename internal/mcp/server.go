package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/iannuttall/ralph/internal/contextmd"
	"github.com/iannuttall/ralph/internal/gh"
)

// Defaults applied to ralph_import_issues when the caller omits an argument.
type Defaults struct {
	State   string
	Limit   int
	Timeout time.Duration
}

// Server exposes the gh probe and issue import as MCP tools.
type Server struct {
	runner   gh.Runner
	defaults Defaults
	version  string
}

// NewServer creates the MCP server wrapper.
func NewServer(r gh.Runner, defaults Defaults, version string) *Server {
	if defaults.State == "" {
		defaults.State = gh.StateOpen
	}
	if defaults.Limit <= 0 {
		defaults.Limit = 20
	}
	return &Server{runner: r, defaults: defaults, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("ralph", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.ghStatusTool())
	srv.AddTool(s.importIssuesTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// ralph_gh_status
func (s *Server) ghStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ralph_gh_status",
		mcp.WithDescription("Check whether the gh CLI is installed and runnable. Returns JSON {\"available\": bool}."),
	)
	return tool, s.handleGHStatus
}

func (s *Server) handleGHStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := json.Marshal(struct {
		Available bool `json:"available"`
	}{Available: gh.Available(ctx, s.runner)})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ralph_import_issues
func (s *Server) importIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ralph_import_issues",
		mcp.WithDescription("Fetch GitHub issues with the gh CLI and return them as a markdown context block headed \"## Imported GitHub Issues\"."),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository as owner/name")),
		mcp.WithString("state", mcp.Description("Issue state: open, closed, all"), mcp.Enum(gh.StateOpen, gh.StateClosed, gh.StateAll)),
		mcp.WithNumber("limit", mcp.Description("Maximum number of issues to fetch")),
	)
	return tool, s.handleImportIssues
}

func (s *Server) handleImportIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := request.RequireString("repo")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repo"), nil
	}

	opts := gh.ListOptions{
		Repo:  repo,
		State: request.GetString("state", s.defaults.State),
		Limit: request.GetInt("limit", s.defaults.Limit),
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	issues, err := gh.FetchIssues(ctx, s.runner, opts)
	if err != nil {
		return mcp.NewToolResultError(gh.Describe(err)), nil
	}
	return mcp.NewToolResultText(contextmd.Format(issues)), nil
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.defaults.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.defaults.Timeout)
}
