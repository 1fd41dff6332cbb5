package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	r := NewRenderer()

	t.Run("gfm", func(t *testing.T) {
		out := r.Render("**hired** at ~~Initech~~ https://gradnet.example")
		assert.Contains(t, out, "<strong>hired</strong>")
		assert.Contains(t, out, "<del>Initech</del>")
		assert.Contains(t, out, `<a href="https://gradnet.example">`)
	})

	t.Run("hard wraps", func(t *testing.T) {
		assert.Contains(t, r.Render("line one\nline two"), "<br />")
	})

	t.Run("raw html omitted", func(t *testing.T) {
		out := r.Render(`<script>alert(1)</script>hello`)
		assert.NotContains(t, out, "<script>")
	})

	t.Run("dangerous links dropped", func(t *testing.T) {
		out := r.Render("[click](javascript:alert(1))")
		assert.NotContains(t, out, "javascript:")
	})
}
