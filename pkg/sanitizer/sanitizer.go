package sanitizer

import (
	"bytes"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	strictPolicy *bluemonday.Policy
	richPolicy   *bluemonday.Policy
	markdown     goldmark.Markdown
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Covers what GFM renders: paragraphs, emphasis, lists, code,
		// tables and links. Links get rel="nofollow".
		richPolicy = bluemonday.UGCPolicy()
		richPolicy.RequireNoFollowOnLinks(true)

		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
}

// PlainText strips all markup and collapses runs of whitespace.
// Entities are decoded, so "Tom &amp; Jerry" becomes "Tom & Jerry".
func PlainText(s string) string {
	initPolicies()
	stripped := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// Markdown renders GitHub flavored markdown to HTML that is safe to embed.
// Blank input yields an empty string. If rendering fails the raw source is
// sanitized instead.
func Markdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	initPolicies()

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return richPolicy.Sanitize(src)
	}
	return richPolicy.Sanitize(buf.String())
}

// HTML sanitizes already rendered HTML with the markdown policy.
func HTML(s string) string {
	initPolicies()
	return richPolicy.Sanitize(s)
}
