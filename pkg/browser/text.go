package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// extractText reduces rendered markup to its readable text: the page title
// as a heading followed by one line per text run, with scripts, styles and
// other non-content elements dropped. Output longer than maxLength runes
// is cut and marked.
func extractText(markup string, maxLength int) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var lines []string
	if title := extractTitle(doc); title != "" {
		lines = append(lines, "# "+title, "")
	}

	var current strings.Builder
	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			return
		case html.TextNode:
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if current.Len() > 0 {
					current.WriteByte(' ')
				}
				current.WriteString(text)
			}
			return
		case html.ElementNode:
			tag := strings.ToLower(n.Data)
			if isSkippedElement(tag) {
				return
			}
			if tag == "br" || isBlockElement(tag) {
				flush()
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && isBlockElement(strings.ToLower(n.Data)) {
			flush()
		}
	}
	walk(doc)
	flush()

	return truncateRunes(strings.Join(lines, "\n"), maxLength), nil
}

func truncateRunes(s string, maxLength int) string {
	runes := []rune(s)
	if maxLength <= 0 || len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength]) +
		fmt.Sprintf("\n\n[Content truncated: %d of %d characters shown]", maxLength, len(runes))
}

// isSkippedElement returns true for elements whose content is never shown.
func isSkippedElement(tagName string) bool {
	switch tagName {
	case "head", "script", "style", "noscript", "template", "iframe", "embed", "object", "svg":
		return true
	}
	return false
}

// isBlockElement returns true for elements that start a new line.
func isBlockElement(tagName string) bool {
	switch tagName {
	case "div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "hr", "dl", "dt", "dd", "figure", "figcaption":
		return true
	}
	return false
}

// extractTitle returns the text of the first <title> element.
func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}
