// Package markdown turns user supplied Markdown into HTML that is safe to
// store and serve. Output is filtered through a fixed allow-list, so a body
// can never smuggle scripts, styles or event handlers into a page.
package markdown

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var (
	postTags    = []string{"a", "abbr", "acronym", "b", "blockquote", "code", "em", "i", "li", "ol", "pre", "strong", "ul", "h1", "h2", "h3", "p"}
	commentTags = []string{"a", "abbr", "acronym", "b", "code", "em", "i", "strong"}

	postPolicy    = newPolicy(postTags)
	commentPolicy = newPolicy(commentTags)
)

func newPolicy(tags []string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(tags...)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("title").OnElements("abbr", "acronym")
	p.AllowStandardURLs()
	return p
}

func render(body string, policy *bluemonday.Policy) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	// A block of raw HTML is only passed through when a newline follows its
	// closing tag, so re-rendering stored output needs the trailing "\n".
	// CommonExtensions include Autolink, so bare URLs become anchors.
	raw := blackfriday.Run([]byte(body+"\n"), blackfriday.WithExtensions(blackfriday.CommonExtensions))
	return strings.TrimSpace(policy.Sanitize(string(raw)))
}

// RenderPost renders a post body. Block elements are kept.
func RenderPost(body string) string { return render(body, postPolicy) }

// RenderComment renders a comment body. Only inline elements survive, and
// the paragraph breaks they leave behind are folded into single newlines.
func RenderComment(body string) string { return foldLines(render(body, commentPolicy)) }

func foldLines(html string) string {
	lines := strings.Split(html, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
