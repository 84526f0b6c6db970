// Package sanitizer cleans user supplied text before it is stored or shown.
//
// [PlainText] is for single line fields such as product names. [Markdown]
// renders descriptions to HTML through goldmark and filters the output with
// a bluemonday UGC policy, so scripts, event handlers and javascript: URLs
// never reach a client.
package sanitizer
