package vcedit

import "github.com/microcosm-cc/bluemonday"

// Sanitizer cleans a document before it enters the surface.
// *bluemonday.Policy satisfies it.
type Sanitizer interface {
	Sanitize(s string) string
}

// DefaultSanitizer keeps user-generated content markup plus the attributes
// the editor itself reads and writes (id, class, style), and drops scripts
// and event handlers.
func DefaultSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("html", "head", "body", "title", "section", "article",
		"header", "footer", "nav", "main", "aside", "figure", "figcaption", "label", "button")
	p.AllowAttrs("id", "class", "style").Globally()
	return p
}
