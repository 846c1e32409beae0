package source

import (
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const containerClass = "mw-parser-output"

// Extract returns the readable text of a MediaWiki page: the text of every
// paragraph and second/third level heading inside the first
// div.mw-parser-output, each whitespace-collapsed, joined by blank lines.
func Extract(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	container := findContainer(doc)
	if container == nil {
		return "", ErrNoContent
	}

	var blocks []string
	collectBlocks(container, &blocks)
	if len(blocks) == 0 {
		return "", ErrNoContent
	}
	return strings.Join(blocks, "\n\n"), nil
}

func findContainer(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Div && hasClass(n, containerClass) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findContainer(c); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" && slices.Contains(strings.Fields(a.Val), class) {
			return true
		}
	}
	return false
}

func collectBlocks(n *html.Node, blocks *[]string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.P, atom.H2, atom.H3:
			if text := strings.Join(strings.Fields(textOf(c)), " "); text != "" {
				*blocks = append(*blocks, text)
			}
		case atom.Script, atom.Style:
		default:
			collectBlocks(c, blocks)
		}
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
