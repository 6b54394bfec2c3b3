package git

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a git repo in dir with a user config so commits work on CI.
func initTestRepo(t *testing.T, dir string) {
	t.Helper()
	cmds := [][]string{
		{"git", "-C", dir, "init"},
		{"git", "-C", dir, "config", "user.email", "test@test.com"},
		{"git", "-C", dir, "config", "user.name", "Test"},
	}
	for _, args := range cmds {
		require.NoError(t, exec.Command(args[0], args[1:]...).Run())
	}
}

// mockClient implements Client for testing.
type mockClient struct {
	remoteURL string
	err       error
}

func (m *mockClient) RepoRoot(_ context.Context, path string) (string, error) { return path, nil }
func (m *mockClient) RemoteURL(_ context.Context, _, _ string) (string, error) {
	return m.remoteURL, m.err
}

func TestExtractOwnerRepo(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		repo  string
	}{
		{"git@github.com:iannuttall/ralph.git", "iannuttall", "ralph"},
		{"git@github.com:iannuttall/ralph", "iannuttall", "ralph"},
		{"https://github.com/cli/cli.git", "cli", "cli"},
		{"https://github.com/cli/cli", "cli", "cli"},
		{"https://github.com/cli/cli/", "cli", "cli"},
		{"http://github.com/cli/cli", "cli", "cli"},
		{"ssh://git@github.com/cli/cli.git", "cli", "cli"},
		{"  https://github.com/cli/cli.git\n", "cli", "cli"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, err := ExtractOwnerRepo(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestExtractOwnerRepo_Invalid(t *testing.T) {
	for _, url := range []string{
		"not-a-url",
		"",
		"git@github.com",
		"git@github.com:owner",
		"https://github.com/owner",
		"https://github.com/owner/repo/extra",
		"https://gitlab.com/owner/repo",
	} {
		_, _, err := ExtractOwnerRepo(url)
		assert.Error(t, err, url)
	}
}

func TestDetectRepo(t *testing.T) {
	c := &mockClient{remoteURL: "git@github.com:test/repo.git"}
	repo, err := DetectRepo(context.Background(), c, ".")
	require.NoError(t, err)
	assert.Equal(t, "test/repo", repo)
}

func TestDetectRepo_NoRemote(t *testing.T) {
	c := &mockClient{err: errors.New("git remote get-url origin: error: No such remote 'origin'")}
	_, err := DetectRepo(context.Background(), c, ".")
	assert.ErrorContains(t, err, "detect repo")
}

func TestDetectRepo_NonGitHubRemote(t *testing.T) {
	c := &mockClient{remoteURL: "https://gitlab.com/test/repo.git"}
	_, err := DetectRepo(context.Background(), c, ".")
	assert.ErrorContains(t, err, "cannot parse owner/repo")
}

func TestRealClient_RemoteURL(t *testing.T) {
	dir := t.TempDir()
	initTestRepo(t, dir)
	require.NoError(t, exec.Command("git", "-C", dir, "remote", "add", "origin", "https://github.com/test/repo.git").Run())

	c := NewClient()
	url, err := c.RemoteURL(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/test/repo.git", url)

	repo, err := DetectRepo(context.Background(), c, dir)
	require.NoError(t, err)
	assert.Equal(t, "test/repo", repo)
}

func TestRealClient_RemoteURL_Missing(t *testing.T) {
	dir := t.TempDir()
	initTestRepo(t, dir)

	c := NewClient()
	_, err := c.RemoteURL(context.Background(), dir, "origin")
	assert.Error(t, err)
}

func TestRealClient_RepoRoot(t *testing.T) {
	dir := t.TempDir()
	initTestRepo(t, dir)

	c := NewClient()
	root, err := c.RepoRoot(context.Background(), dir)
	require.NoError(t, err)
	assert.NotEmpty(t, root)
}
