package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apm/pkg/sanitizer"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text unchanged", input: "Garden Cart", want: "Garden Cart"},
		{name: "strips tags", input: "<b>Leaf</b> <i>Rake</i>", want: "Leaf Rake"},
		{name: "drops scripts", input: "Saw<script>alert(1)</script>", want: "Saw"},
		{name: "decodes entities", input: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{name: "collapses whitespace", input: "  Garden \n\t Cart  ", want: "Garden Cart"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.PlainText(tt.input))
		})
	}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	t.Run("renders emphasis", func(t *testing.T) {
		t.Parallel()

		out := sanitizer.Markdown("A **sturdy** rake")
		require.Contains(t, out, "<strong>sturdy</strong>")
		require.Contains(t, out, "<p>")
	})

	t.Run("renders gfm tables", func(t *testing.T) {
		t.Parallel()

		out := sanitizer.Markdown("| a | b |\n|---|---|\n| 1 | 2 |\n")
		require.Contains(t, out, "<table>")
	})

	t.Run("strips raw scripts", func(t *testing.T) {
		t.Parallel()

		out := sanitizer.Markdown("hello <script>alert('x')</script>")
		require.NotContains(t, out, "<script")
		require.Contains(t, out, "hello")
	})

	t.Run("neutralizes javascript links", func(t *testing.T) {
		t.Parallel()

		out := sanitizer.Markdown("[click](javascript:alert(1))")
		require.NotContains(t, out, "javascript:")
	})

	t.Run("links get nofollow", func(t *testing.T) {
		t.Parallel()

		out := sanitizer.Markdown("[docs](https://example.com)")
		require.Contains(t, out, `href="https://example.com"`)
		require.Contains(t, out, "nofollow")
	})

	t.Run("blank input", func(t *testing.T) {
		t.Parallel()
		require.Empty(t, sanitizer.Markdown("  \n "))
	})
}

func TestHTML(t *testing.T) {
	t.Parallel()

	out := sanitizer.HTML(`<p onclick="x()">ok</p>`)
	assert.Equal(t, "<p>ok</p>", out)
}
