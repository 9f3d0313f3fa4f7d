package converter

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Tidy parses an HTML snippet and writes it back as well formed XHTML.
// Runs of whitespace outside <pre> collapse to a single space and the
// result is trimmed.
func Tidy(snippet string) string {
	nodes, err := parseBody(snippet)
	if err != nil {
		return strings.TrimSpace(snippet)
	}
	var sb strings.Builder
	for _, n := range nodes {
		writeXHTML(&sb, n, false)
	}
	return strings.TrimSpace(sb.String())
}

func parseBody(snippet string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(snippet), body)
}

var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")

func writeXHTML(sb *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if !pre {
			text = whitespaceRun.ReplaceAllString(text, " ")
		}
		sb.WriteString(textEscaper.Replace(text))
	case html.CommentNode:
		sb.WriteString("<!--")
		sb.WriteString(n.Data)
		sb.WriteString("-->")
	case html.ElementNode:
		sb.WriteByte('<')
		sb.WriteString(n.Data)
		for _, a := range n.Attr {
			sb.WriteByte(' ')
			sb.WriteString(a.Key)
			sb.WriteString(`="`)
			sb.WriteString(attrEscaper.Replace(a.Val))
			sb.WriteByte('"')
		}
		if voidElements[n.Data] {
			sb.WriteString("/>")
			return
		}
		sb.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeXHTML(sb, c, pre || n.Data == "pre")
		}
		sb.WriteString("</")
		sb.WriteString(n.Data)
		sb.WriteByte('>')
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeXHTML(sb, c, pre)
		}
	}
}

// PlainText renders HTML for consumers that cannot show markup. List items
// become " * " bullets, paragraphs, headings and line breaks become
// newlines, and absolute link targets follow their text in angle brackets.
func PlainText(snippet string) string {
	if strings.TrimSpace(snippet) == "" {
		return snippet
	}
	nodes, err := parseBody(snippet)
	if err != nil {
		return snippet
	}
	var sb strings.Builder
	for _, n := range nodes {
		writePlain(&sb, n)
	}
	text := multipleSpaces.ReplaceAllString(sb.String(), " ")
	return strings.TrimSpace(strings.ReplaceAll(text, "\n ", "\n"))
}

var multipleSpaces = regexp.MustCompile(` +`)

func writePlain(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(whitespaceRun.ReplaceAllString(n.Data, " "))
		return
	case html.ElementNode:
		switch n.Data {
		case "li":
			sb.WriteString("\n * ")
		case "dt":
			sb.WriteString("  ")
		case "p", "h1", "h2", "h3", "h4", "h5", "tr":
			sb.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writePlain(sb, c)
	}
	if n.Type != html.ElementNode {
		return
	}
	switch n.Data {
	case "br", "dd", "dt", "p", "h1", "h2", "h3", "h4", "h5":
		sb.WriteString("\n")
	case "a":
		for _, a := range n.Attr {
			if a.Key != "href" {
				continue
			}
			if u, err := url.Parse(a.Val); err == nil && u.IsAbs() {
				sb.WriteString(" <" + a.Val + ">")
			}
		}
	}
}
