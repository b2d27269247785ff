package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBasicMarkdown(t *testing.T) {
	r := New()
	out, err := r.Render("# Hello\n\nSome *emphasis* here.")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Hello</h1>")
	assert.Contains(t, out, "<em>emphasis</em>")
}

func TestRenderPassesThroughRawHTML(t *testing.T) {
	r := New()
	out, err := r.Render("before\n\n<div class=\"note\">kept</div>\n\nafter")
	require.NoError(t, err)
	assert.Contains(t, out, "<div class=\"note\">kept</div>")
}

func TestRenderAutolinksBareURLs(t *testing.T) {
	r := New()
	out, err := r.Render("see https://example.test/docs for details")
	require.NoError(t, err)
	assert.Contains(t, out, "<a href=\"https://example.test/docs\">")
}

func TestRenderCodeBlock(t *testing.T) {
	r := New()
	out, err := r.Render("```go\nfmt.Println(\"hi\")\n```")
	require.NoError(t, err)
	assert.Contains(t, out, "<pre><code")
	assert.Contains(t, out, "fmt.Println")
}

func TestRenderMalformedInputDoesNotError(t *testing.T) {
	r := New()
	inputs := []string{
		"",
		"[broken link](",
		"****",
		"> \n> \n#",
		"<not-closed",
	}
	for _, in := range inputs {
		_, err := r.Render(in)
		assert.NoError(t, err, "input %q", in)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := New()
	src := "# Title\n\n- one\n- two\n\n`code`"
	first, err := r.Render(src)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Render(src)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
