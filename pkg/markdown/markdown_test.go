package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPost_BlockElements(t *testing.T) {
	out := RenderPost("# Title\n\n* one\n* two\n\n> quoted")
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<li>one</li>")
	assert.Contains(t, out, "<blockquote>")
}

func TestRenderComment_StripsBlockElements(t *testing.T) {
	out := RenderComment("# Title\n\nsome **bold** text")
	assert.NotContains(t, out, "<h1>")
	assert.NotContains(t, out, "<p>")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRender_RemovesScript(t *testing.T) {
	for name, fn := range map[string]func(string) string{"post": RenderPost, "comment": RenderComment} {
		t.Run(name, func(t *testing.T) {
			out := fn("hello <script>alert('x')</script> world")
			assert.NotContains(t, out, "<script")
			assert.NotContains(t, out, "alert")
			assert.Contains(t, out, "hello")
			assert.Contains(t, out, "world")
		})
	}
}

func TestRender_StripsEventHandlersAndJavascriptLinks(t *testing.T) {
	out := RenderPost(`<a href="javascript:alert(1)" onclick="x()">click</a>`)
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "click")
}

func TestRender_Autolinks(t *testing.T) {
	out := RenderComment("see https://example.com/page for details")
	assert.Contains(t, out, `<a href="https://example.com/page">`)
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", RenderPost(""))
	assert.Equal(t, "", RenderComment("   \n"))
}

func TestRender_Idempotent(t *testing.T) {
	bodies := []string{
		"plain text",
		"a\n\nb",
		"# Head\n\nA *para* with `code` and a [link](http://example.com \"t\").",
		"1. first\n2. second\n\n```\nfenced <b>\n```",
		"quotes \"here\" & ampersands <em>inline</em> <img src=x onerror=y>",
		"see https://example.com/page for details",
	}
	for _, b := range bodies {
		post := RenderPost(b)
		assert.Equal(t, post, RenderPost(post), "post body %q", b)
		comment := RenderComment(b)
		assert.Equal(t, comment, RenderComment(comment), "comment body %q", b)
	}

	// Escapes are consumed on the first pass; block wrapping keeps the
	// literal asterisks from turning into emphasis on the next one.
	post := RenderPost("\\*not emphasis\\*")
	assert.Equal(t, "<p>*not emphasis*</p>", post)
	assert.Equal(t, post, RenderPost(post))
}

func TestRenderComment_FoldsParagraphBreaks(t *testing.T) {
	assert.Equal(t, "a\nb", RenderComment("a\n\n\nb"))
	assert.Equal(t, "Head\n<em>x</em>", RenderComment("# Head\n\n*x*"))
}
