package feed

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const descriptionRunes = 200

var rootRelative = regexp.MustCompile(`(src|href)="/([^/"][^"]*)?"`)

// contentRenderer turns post markdown into HTML safe to embed in a feed.
type contentRenderer struct {
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	strict  *bluemonday.Policy
	siteURL string
}

func newContentRenderer(siteURL string) *contentRenderer {
	return &contentRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy:  newPolicy(),
		strict:  bluemonday.StrictPolicy(),
		siteURL: strings.TrimRight(siteURL, "/"),
	}
}

// newPolicy allows ordinary text markup, images with src/alt/title and
// links with href/name/target. Relative URLs survive so they can be
// rewritten against the site afterwards.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "div", "span", "br", "hr",
		"blockquote", "pre", "code",
		"ul", "ol", "li", "dl", "dt", "dd",
		"b", "i", "strong", "em", "u", "s", "strike", "del", "small", "sub", "sup", "abbr", "mark",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
		"figure", "figcaption",
	)
	p.AllowAttrs("href", "name", "target").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")

	return p
}

// Render converts markdown to sanitized HTML with root-relative src and
// href attributes made absolute.
func (r *contentRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}

	clean := r.policy.SanitizeBytes(buf.Bytes())

	return rootRelative.ReplaceAllString(string(clean), `${1}="`+r.siteURL+`/${2}"`), nil
}

// Describe returns the item summary: the excerpt, or else the first 200
// characters of the rendered content followed by "...". Both are reduced to
// escaped text with no markup, and the cut never lands inside an entity.
func (r *contentRenderer) Describe(excerpt, rendered string) string {
	if excerpt != "" {
		return html.EscapeString(r.plainText(excerpt))
	}
	runes := []rune(r.plainText(rendered))
	if len(runes) > descriptionRunes {
		runes = runes[:descriptionRunes]
	}
	return html.EscapeString(string(runes)) + "..."
}

func (r *contentRenderer) plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(r.strict.Sanitize(s))), " ")
}
