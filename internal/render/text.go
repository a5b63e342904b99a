// Package render turns API articles into the text shown in the terminal:
// list cards, plain-text summaries and markdown for the reader view.
package render

import (
	"html"
	"strings"
	"sync"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy    = sync.OnceValue(bluemonday.StrictPolicy)
	sanitizePolicy = sync.OnceValue(bluemonday.UGCPolicy)
)

// PlainText strips every tag from s, decodes entities and collapses
// whitespace to single spaces.
func PlainText(s string) string {
	stripped := html.UnescapeString(stripPolicy().Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// Sanitize keeps formatting markup and drops scripts, styles and event
// handlers.
func Sanitize(s string) string {
	return sanitizePolicy().Sanitize(s)
}

// ToMarkdown converts description HTML to markdown. Input that fails to
// convert is returned as plain text.
func ToMarkdown(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(Sanitize(s))
	if err != nil {
		return PlainText(s)
	}
	return strings.TrimSpace(md)
}

// Truncate shortens s to at most limit runes, ending with an ellipsis when
// anything was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return strings.TrimRight(string(r[:limit-1]), " ") + "…"
}

// TruncateMiddle keeps both ends of s and puts the ellipsis in the middle.
// Used for URLs.
func TruncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	return string(r[:left]) + "…" + string(r[n-right:])
}
