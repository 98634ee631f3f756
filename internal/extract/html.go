package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "tr": true, "table": true, "br": true,
}

// htmlPages returns the visible text of an HTML document as a single page.
// Block elements end a paragraph.
func htmlPages(content []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		// Fall back to raw text if HTML is malformed
		return textPages(content), nil
	}

	var sb strings.Builder
	writeNode(doc, &sb)
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

func writeNode(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "head":
			return
		}
	}

	if n.Type == html.TextNode {
		if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(c, sb)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		endParagraph(sb)
	}
}

func endParagraph(sb *strings.Builder) {
	if sb.Len() == 0 || strings.HasSuffix(sb.String(), "\n\n") {
		return
	}
	sb.WriteString("\n\n")
}
