// Package gh fetches GitHub issues through the locally installed gh CLI.
//
// There is no client object: Available and FetchIssues are plain functions
// over a Runner, and every call spawns exactly one gh process.
package gh

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// IssueFields is the --json field list requested from `gh issue list`.
const IssueFields = "number,title,body,labels,url"

// Issue states accepted by `gh issue list --state`.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// Label is a GitHub issue label. Only the name is consumed.
type Label struct {
	Name string
}

// Issue is a GitHub issue as returned by `gh issue list`.
type Issue struct {
	Number int
	Title  string
	Body   *string // nil when the issue has no description
	Labels []Label
	URL    string
}

// HasBody reports whether the issue carries a non-empty description.
func (i Issue) HasBody() bool {
	return i.Body != nil && *i.Body != ""
}

// LabelNames returns the label names in their original order.
func (i Issue) LabelNames() []string {
	names := make([]string, len(i.Labels))
	for n, l := range i.Labels {
		names[n] = l.Name
	}
	return names
}

// ListOptions selects the issues to fetch.
type ListOptions struct {
	Repo  string // owner/name
	State string // open, closed or all
	Limit int
}

// Validate checks the options before anything is spawned.
func (o ListOptions) Validate() error {
	owner, name, ok := strings.Cut(o.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return errors.Wrapf(ErrInvalidOptions, "repo %q: expected owner/name", o.Repo)
	}
	switch o.State {
	case StateOpen, StateClosed, StateAll:
	default:
		return errors.Wrapf(ErrInvalidOptions, "state %q: expected open, closed or all", o.State)
	}
	if o.Limit <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "limit %d: must be positive", o.Limit)
	}
	return nil
}

// Args returns the gh arguments for listing issues.
func (o ListOptions) Args() []string {
	return []string{
		"issue", "list",
		"--repo", o.Repo,
		"--state", o.State,
		"--limit", strconv.Itoa(o.Limit),
		"--json", IssueFields,
	}
}

// FetchIssues runs `gh issue list` once and parses its JSON output.
//
// It returns *DependencyUnavailableError when gh cannot be started,
// *FetchError when gh exits non-zero and *ParseError when the output is not
// a list of issue objects. Partial results are never returned. When ctx ends
// first, ctx.Err() is returned.
func FetchIssues(ctx context.Context, r Runner, opts ListOptions) ([]Issue, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	args := opts.Args()
	res, err := r.Run(ctx, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &DependencyUnavailableError{Binary: DefaultBinary, Err: err}
	}
	if res.ExitCode != 0 {
		return nil, &FetchError{Args: args, ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}

	return ParseIssues(res.Stdout)
}
