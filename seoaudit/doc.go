package seoaudit

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Precompiled selectors for the markup queries the audit needs. Parsing
// them once keeps the hot path allocation-free.
var (
	selTitle     = mustSel("title")
	selH1        = mustSel("h1")
	selH2        = mustSel("h2")
	selH3        = mustSel("h3")
	selCanonical = mustSel(`link[rel="canonical"]`)
	selJSONLD    = mustSel(`script[type="application/ld+json"]`)
)

func mustSel(s string) cascadia.Sel {
	sel, err := cascadia.Parse(s)
	if err != nil {
		panic("seoaudit: bad selector " + s + ": " + err.Error())
	}
	return sel
}

// parseDoc parses markup into a node tree. html.Parse is error-tolerant;
// a hard failure yields a nil root and every query returns empty.
func parseDoc(markup string) *html.Node {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	return root
}

func queryAll(root *html.Node, sel cascadia.Sel) []*html.Node {
	if root == nil {
		return nil
	}
	return cascadia.QueryAll(root, sel)
}

func queryFirst(root *html.Node, sel cascadia.Sel) *html.Node {
	if root == nil {
		return nil
	}
	return cascadia.Query(root, sel)
}

// nodeText concatenates the text content of a node's subtree.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
