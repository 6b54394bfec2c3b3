package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client defines the git operations used to infer which GitHub repo to import from.
type Client interface {
	RepoRoot(ctx context.Context, path string) (string, error)
	RemoteURL(ctx context.Context, path, remote string) (string, error)
}

// RealClient implements Client using real git commands.
type RealClient struct{}

// NewClient returns a new RealClient.
func NewClient() *RealClient {
	return &RealClient{}
}

func gitCmd(ctx context.Context, path string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", path}, args...)
	out, err := exec.CommandContext(ctx, "git", fullArgs...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *RealClient) RepoRoot(ctx context.Context, path string) (string, error) {
	return gitCmd(ctx, path, "rev-parse", "--show-toplevel")
}

func (c *RealClient) RemoteURL(ctx context.Context, path, remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	return gitCmd(ctx, path, "remote", "get-url", remote)
}

// DetectRepo returns "owner/name" for the origin remote of the repo at path.
func DetectRepo(ctx context.Context, c Client, path string) (string, error) {
	url, err := c.RemoteURL(ctx, path, "origin")
	if err != nil {
		return "", fmt.Errorf("detect repo: %w", err)
	}
	owner, repo, err := ExtractOwnerRepo(url)
	if err != nil {
		return "", fmt.Errorf("detect repo: %w", err)
	}
	return owner + "/" + repo, nil
}

// ExtractOwnerRepo parses a GitHub remote URL and returns owner/repo.
func ExtractOwnerRepo(remoteURL string) (owner, repo string, err error) {
	remoteURL = strings.TrimSpace(remoteURL)

	// Handle SSH: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		_, path, ok := strings.Cut(remoteURL, ":")
		if !ok {
			return "", "", fmt.Errorf("cannot parse SSH remote: %s", remoteURL)
		}
		return splitOwnerRepo(strings.TrimSuffix(path, ".git"), remoteURL)
	}

	// Handle ssh://git@github.com/owner/repo.git and https://github.com/owner/repo.git
	trimmed := strings.TrimSuffix(strings.TrimSuffix(remoteURL, "/"), ".git")
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "ssh://git@github.com/"} {
		if strings.HasPrefix(trimmed, prefix) {
			return splitOwnerRepo(strings.TrimPrefix(trimmed, prefix), remoteURL)
		}
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from: %s", remoteURL)
}

func splitOwnerRepo(path, remoteURL string) (string, string, error) {
	segments := strings.Split(path, "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from: %s", remoteURL)
	}
	return segments[0], segments[1], nil
}
