package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Content types accepted in RawBody.ContentType. Matching is
// case-insensitive; anything that is not HTML is treated as plain text.
const (
	ContentTypeHTML = "html"
	ContentTypeText = "text"
)

// RawBody is a message body as handed over by the mail retrieval side.
type RawBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// IsHTML reports whether the body should be parsed as markup.
func (r RawBody) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(r.ContentType))
	return ct == ContentTypeHTML || strings.HasPrefix(ct, "text/html")
}

var (
	// A stray CR before a CRLF would otherwise survive one pass as a new
	// CRLF, so the whole CR run is folded into the line feed.
	lineEndingRe      = regexp.MustCompile(`\r+\n`)
	horizontalSpaceRe = regexp.MustCompile(`[ \t]+`)
	blankLinesRe      = regexp.MustCompile(`\n\s*\n+`)
)

// Normalize converts a raw body into plain text: markup is reduced to its
// visible text with block boundaries kept as newlines, then NormalizeText
// is applied. It never fails; an empty body yields "".
func Normalize(raw RawBody) string {
	if raw.Content == "" {
		return ""
	}
	text := raw.Content
	if raw.IsHTML() {
		text = HTMLToText(raw.Content)
	}
	return NormalizeText(text)
}

// NormalizeText applies, in order: NBSP to space, removal of Unicode format
// (Cf) characters such as zero-width spaces and joiners, CRLF to LF,
// collapse of horizontal whitespace runs, collapse of 2+ blank lines into
// one, and a final trim. The result is a fixed point of NormalizeText.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\u00a0", " ")
	if stripped, _, err := transform.String(runes.Remove(runes.In(unicode.Cf)), text); err == nil {
		text = stripped
	}
	text = lineEndingRe.ReplaceAllString(text, "\n")
	text = horizontalSpaceRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// HTMLToText walks the parsed tree and collects visible text. The HTML5
// parser recovers from malformed markup the way browsers do; if parsing
// fails outright the input is returned unchanged and treated as plain text.
func HTMLToText(input string) string {
	node, err := html.Parse(strings.NewReader(input))
	if err != nil || node == nil {
		return input
	}
	var b strings.Builder
	collectText(&b, node)
	return b.String()
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		name := strings.ToLower(n.Data)
		if isInvisible(name) {
			return
		}
		if name == "br" || name == "hr" {
			b.WriteString("\n")
			return
		}
		if isBlock(name) {
			lineBreak(b)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}

	if n.Type == html.ElementNode && isBlock(strings.ToLower(n.Data)) {
		lineBreak(b)
	}
}

// lineBreak ends the current line unless it is already ended, so adjacent
// blocks are separated by one newline.
func lineBreak(b *strings.Builder) {
	if s := b.String(); s != "" && s[len(s)-1] != '\n' {
		b.WriteByte('\n')
	}
}

func isInvisible(tag string) bool {
	switch tag {
	case "head", "script", "style", "noscript", "template", "title", "meta", "link":
		return true
	}
	return false
}

// isBlock lists elements that start a new visual line in mail clients.
func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "dl", "dt", "dd",
		"tr", "table", "thead", "tbody", "tfoot", "caption",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "pre", "address", "center",
		"section", "article", "header", "footer", "aside", "nav", "main",
		"figure", "figcaption", "form", "fieldset":
		return true
	}
	return false
}
