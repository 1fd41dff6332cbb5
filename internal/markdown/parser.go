package markdown

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer turns user-written post content into HTML. Raw HTML and
// javascript: style links in the source are dropped by goldmark's safe mode.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Renderer{md: md}
}

func (r *Renderer) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := r.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render converts content to HTML, falling back to escaped text.
func (r *Renderer) Render(content string) string {
	out, err := r.Parse([]byte(content))
	if err != nil {
		return "<p>" + html.EscapeString(content) + "</p>"
	}
	return string(out)
}
