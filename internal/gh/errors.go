package gh

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// ErrInvalidOptions is wrapped by FetchIssues when ListOptions fail validation.
var ErrInvalidOptions = errors.New("invalid issue list options")

// DependencyUnavailableError reports that gh could not be started at all.
type DependencyUnavailableError struct {
	Binary string
	Err    error
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("%s CLI unavailable: %v", e.Binary, e.Err)
}

func (e *DependencyUnavailableError) Unwrap() error { return e.Err }

// FetchError reports that gh ran but exited non-zero.
// Stderr is gh's diagnostic text, verbatim.
type FetchError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *FetchError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("gh %s: %s", strings.Join(e.Args, " "), msg)
}

// ParseError reports gh output that does not match the expected issue list shape.
// Index is the offending element, or -1 when the problem is the payload as a whole.
type ParseError struct {
	Index  int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse gh issue list")
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": element %d", e.Index)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Describe turns a FetchIssues error into the message shown to users.
func Describe(err error) string {
	var (
		depErr   *DependencyUnavailableError
		fetchErr *FetchError
		parseErr *ParseError
	)
	switch {
	case errors.As(err, &depErr):
		return fmt.Sprintf("%s CLI not found: install it from https://cli.github.com and run 'gh auth login'", depErr.Binary)
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("gh failed (exit %d): %s", fetchErr.ExitCode, strings.TrimSpace(fetchErr.Stderr))
	case errors.As(err, &parseErr):
		return fmt.Sprintf("unexpected gh output (internal error): %v", parseErr)
	default:
		return err.Error()
	}
}
