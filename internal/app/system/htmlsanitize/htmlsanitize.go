// Package htmlsanitize cleans text that arrives from outside the console,
// mostly error messages relayed from the backend API, before it is shown.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict drops every tag and attribute.
var strict = bluemonday.StrictPolicy()

// Strip removes all markup from s and returns plain text. Entities are
// decoded again so html/template escapes them exactly once.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// PlainTextToHTML escapes s and turns newlines into <br> inside one <p>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay strips any markup from a relayed message and renders
// what is left as escaped paragraphs.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	return template.HTML(PlainTextToHTML(Strip(s)))
}
