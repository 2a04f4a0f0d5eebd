// Package richtext renders user-authored content (rich-text editor HTML, markdown) as safe HTML.
package richtext

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	policy = newPolicy()
	md     = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// rich-text editors emit alignment & code block classes
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("p", "span", "pre", "code", "li", "ol", "ul")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize strips everything but the formatting markup from rich-text HTML.
func Sanitize(html string) template.HTML {
	return template.HTML(policy.Sanitize(html)) //nolint:gosec // sanitized
}

// Markdown converts markdown to sanitized HTML.
// Raw HTML embedded in the markdown is escaped by goldmark.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped
	}
	return Sanitize(buf.String())
}

// Excerpt returns the first `n` characters of the text content of rich-text HTML.
func Excerpt(html string, n int) string {
	text := strings.Join(strings.Fields(bluemonday.StrictPolicy().Sanitize(html)), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
