package scraper

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true,
	atom.Ol: true, atom.Tr: true, atom.Td: true, atom.Th: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true,
}

// CleanText strips markup and entities from a board-supplied string and
// collapses whitespace. Plain text passes through with whitespace collapsed.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return collapse(html.UnescapeString(s))
	}
	var sb strings.Builder
	for _, n := range nodes {
		extractText(&sb, n)
		sb.WriteByte(' ')
	}
	return collapse(sb.String())
}

func extractText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(sb, c)
	}
	if n.Type == html.ElementNode && blockElements[n.DataAtom] {
		sb.WriteByte(' ')
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
