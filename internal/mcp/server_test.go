package mcp

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iannuttall/ralph/internal/gh"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockRunner implements gh.Runner for testing.
type mockRunner struct {
	result *gh.Result
	err    error

	calls [][]string
}

func (m *mockRunner) Run(_ context.Context, args ...string) (*gh.Result, error) {
	m.calls = append(m.calls, args)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T, r *mockRunner) *Server {
	t.Helper()
	srv := NewServer(r, Defaults{State: gh.StateOpen, Limit: 10, Timeout: time.Minute}, "test")
	require.NotNil(t, srv)
	return srv
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// ralph_gh_status
// ---------------------------------------------------------------------------

func TestGHStatus(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		srv := newTestServer(t, &mockRunner{result: &gh.Result{Stdout: []byte("gh version 2.60.0")}})
		result, err := srv.handleGHStatus(context.Background(), callToolReq("ralph_gh_status", nil))
		require.NoError(t, err)
		assert.False(t, result.IsError)

		var out map[string]bool
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
		assert.True(t, out["available"])
	})

	t.Run("missing", func(t *testing.T) {
		srv := newTestServer(t, &mockRunner{err: exec.ErrNotFound})
		result, err := srv.handleGHStatus(context.Background(), callToolReq("ralph_gh_status", nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"available":false}`, resultText(t, result))
	})
}

// ---------------------------------------------------------------------------
// ralph_import_issues
// ---------------------------------------------------------------------------

func TestImportIssues(t *testing.T) {
	r := &mockRunner{result: &gh.Result{Stdout: []byte(`[
		{"number":1,"title":"Issue 1","body":"Body 1","labels":[],"url":"https://github.com/test/repo/issues/1"},
		{"number":2,"title":"Issue 2","body":null,"labels":[{"name":"bug"}],"url":"https://github.com/test/repo/issues/2"}
	]`)}}
	srv := newTestServer(t, r)

	result, err := srv.handleImportIssues(context.Background(), callToolReq("ralph_import_issues", map[string]any{
		"repo": "test/repo",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	want := "\n\n## Imported GitHub Issues\n\n" +
		"### #1: Issue 1\n\nBody 1\n\n" +
		"### #2: Issue 2\n\n(no description)\n\n"
	assert.Equal(t, want, resultText(t, result))

	require.Len(t, r.calls, 1)
	assert.Contains(t, strings.Join(r.calls[0], " "), "--state open --limit 10")
}

func TestImportIssues_Arguments(t *testing.T) {
	r := &mockRunner{result: &gh.Result{Stdout: []byte(`[]`)}}
	srv := newTestServer(t, r)

	result, err := srv.handleImportIssues(context.Background(), callToolReq("ralph_import_issues", map[string]any{
		"repo":  "cli/cli",
		"state": "closed",
		"limit": float64(3),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "\n\n## Imported GitHub Issues\n\n", resultText(t, result))

	require.Len(t, r.calls, 1)
	assert.Contains(t, strings.Join(r.calls[0], " "), "--repo cli/cli --state closed --limit 3")
}

func TestImportIssues_MissingRepo(t *testing.T) {
	r := &mockRunner{}
	srv := newTestServer(t, r)

	result, err := srv.handleImportIssues(context.Background(), callToolReq("ralph_import_issues", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "repo")
	assert.Empty(t, r.calls)
}

func TestImportIssues_Errors(t *testing.T) {
	tests := []struct {
		name   string
		runner *mockRunner
		want   string
	}{
		{"gh missing", &mockRunner{err: exec.ErrNotFound}, "https://cli.github.com"},
		{"gh failed", &mockRunner{result: &gh.Result{ExitCode: 1, Stderr: []byte("HTTP 404: Not Found")}}, "HTTP 404: Not Found"},
		{"bad output", &mockRunner{result: &gh.Result{Stdout: []byte(`{"message":"nope"}`)}}, "unexpected gh output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.runner)
			result, err := srv.handleImportIssues(context.Background(), callToolReq("ralph_import_issues", map[string]any{
				"repo": "test/repo",
			}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestMCPIntegration_ListTools(t *testing.T) {
	srv := newTestServer(t, &mockRunner{})
	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv)

	reqJSON := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	respMsg := mcpSrv.HandleMessage(context.Background(), reqJSON)
	require.NotNil(t, respMsg)

	respBytes, err := json.Marshal(respMsg)
	require.NoError(t, err)

	var rpcResp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpcResp))

	toolNames := make(map[string]bool)
	for _, tool := range rpcResp.Result.Tools {
		toolNames[tool.Name] = true
	}
	for _, name := range []string{"ralph_gh_status", "ralph_import_issues"} {
		assert.True(t, toolNames[name], "expected tool %q to be registered", name)
	}
}

func TestNewServer_Defaults(t *testing.T) {
	srv := NewServer(&mockRunner{}, Defaults{}, "dev")
	assert.Equal(t, gh.StateOpen, srv.defaults.State)
	assert.Equal(t, 20, srv.defaults.Limit)
}

// Compile-time interface check for mocks.
var _ gh.Runner = (*mockRunner)(nil)
