// Package contextmd renders fetched GitHub issues as a markdown block meant
// to be concatenated into a larger document, such as an assistant's context file.
package contextmd

import (
	"strconv"
	"strings"

	"github.com/iannuttall/ralph/internal/gh"
)

// Header is the section heading that opens every context block.
const Header = "## Imported GitHub Issues"

// NoDescription replaces a missing or empty issue body.
const NoDescription = "(no description)"

// Format renders issues in input order. Titles and bodies are copied through
// unescaped. An empty slice yields the header alone.
func Format(issues []gh.Issue) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(Header)
	b.WriteString("\n\n")

	for _, issue := range issues {
		b.WriteString("### #")
		b.WriteString(strconv.Itoa(issue.Number))
		b.WriteString(": ")
		b.WriteString(issue.Title)
		b.WriteString("\n\n")

		if issue.HasBody() {
			b.WriteString(*issue.Body)
		} else {
			b.WriteString(NoDescription)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
