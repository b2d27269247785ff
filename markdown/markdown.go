// Package markdown converts post bodies from Markdown to HTML.
//
// Raw inline HTML passes through unchanged and bare URLs are auto-linked,
// matching what the generated pages expect. Conversion is deterministic
// for identical input; malformed Markdown never fails, and unmatched tags
// come through as literal text.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer wraps a configured goldmark instance. Safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer with raw-HTML passthrough and auto-linking.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
	}
}

// Render converts Markdown source to an HTML fragment.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
