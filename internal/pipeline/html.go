package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	htmlMarker  = regexp.MustCompile(`(?i)<(?:html|body|div|p|br|table|td|span)\b[^>]*>`)
	inlineSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

// blockElements end the current line when they open or close.
var blockElements = map[string]bool{
	"address": true, "article": true, "blockquote": true, "div": true,
	"dl": true, "dt": true, "dd": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// LooksLikeHTML reports whether s carries HTML markup worth flattening.
func LooksLikeHTML(s string) bool {
	return htmlMarker.MatchString(s)
}

// PlainText flattens an HTML email body into text that keeps one line per
// block, so "Label: value" pairs split across table cells stay on one line.
func PlainText(s string) (string, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	newline := func() {
		if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
			buf.WriteString("\n")
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			case "br":
				buf.WriteString("\n")
				return
			case "td", "th":
				buf.WriteString(" ")
			}
			if blockElements[n.Data] {
				newline()
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			newline()
		}
	}

	walk(doc)
	return tidyLines(buf.String()), nil
}

// tidyLines collapses inline whitespace and drops blank-line runs.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// PrepareInput returns the text handed to strategies: HTML is flattened
// when forced or detected. Unparseable HTML is passed through unchanged.
func PrepareInput(raw string, forceHTML bool) string {
	if !forceHTML && !LooksLikeHTML(raw) {
		return raw
	}
	text, err := PlainText(raw)
	if err != nil {
		return raw
	}
	return text
}
