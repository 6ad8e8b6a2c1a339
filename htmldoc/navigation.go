package htmldoc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// NavigationMode selects how much page chrome is dropped while parsing.
type NavigationMode int

const (
	// KeepNavigation keeps every element.
	KeepNavigation NavigationMode = iota

	// SkipSemanticNavigation drops <nav>, <aside> and the ARIA navigation
	// and complementary roles. <header> and <footer> are dropped only at
	// the top level of the body or of a single wrapper element.
	SkipSemanticNavigation

	// SkipNavigation also drops elements whose class or id names a menu,
	// footer, sidebar or banner. This is the default.
	SkipNavigation

	// SkipLinkHeavy also drops containers where links hold most of the
	// text.
	SkipLinkHeavy
)

var chromePattern = regexp.MustCompile(
	`(?i)(^|[^a-z])(nav|navbar|navigation|menu|topnav|sidenav|breadcrumbs?|` +
		`site-header|page-header|masthead|banner|` +
		`footer|site-footer|page-footer|colophon|` +
		`sidebar|widget-area|widget|aside)([^a-z]|$)`)

// Link-heavy containers: over 60% of their text inside at least 4 links.
const (
	linkDensityLimit = 0.6
	minLinks         = 4
)

// chromeFilter decides which elements count as navigation.
type chromeFilter struct {
	mode    NavigationMode
	body    *html.Node
	wrapper *html.Node
}

func newChromeFilter(mode NavigationMode, body *html.Node) *chromeFilter {
	return &chromeFilter{mode: mode, body: body, wrapper: singleWrapper(body)}
}

// singleWrapper returns the only div or main child of body, if there is
// exactly one and nothing else but scripts beside it.
func singleWrapper(body *html.Node) *html.Node {
	var found *html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "script", "style", "noscript", "template":
		case "div", "main":
			if found != nil {
				return nil
			}
			found = c
		default:
			return nil
		}
	}
	return found
}

func (f *chromeFilter) skip(n *html.Node) bool {
	if n.Type != html.ElementNode || f.mode == KeepNavigation {
		return false
	}
	if f.semantic(n) {
		return true
	}
	if f.mode >= SkipNavigation {
		if chromePattern.MatchString(attr(n, "class")) || chromePattern.MatchString(attr(n, "id")) {
			return true
		}
	}
	return f.mode >= SkipLinkHeavy && linkHeavy(n)
}

func (f *chromeFilter) semantic(n *html.Node) bool {
	switch n.Data {
	case "nav", "aside":
		return true
	case "header", "footer":
		return f.topLevel(n)
	}
	switch attr(n, "role") {
	case "navigation", "complementary":
		return true
	case "banner", "contentinfo":
		return f.topLevel(n)
	}
	return false
}

func (f *chromeFilter) topLevel(n *html.Node) bool {
	return n.Parent != nil && (n.Parent == f.body || (f.wrapper != nil && n.Parent == f.wrapper))
}

func linkHeavy(n *html.Node) bool {
	switch n.Data {
	case "div", "section", "ul", "ol":
	default:
		return false
	}
	total := textLen(n)
	if total == 0 {
		return false
	}
	var links, linkText int
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && c.Data == "a" {
			links++
			linkText += textLen(c)
			return false
		}
		return true
	})
	return float64(linkText)/float64(total) > linkDensityLimit && links >= minLinks
}

func textLen(n *html.Node) int {
	total := 0
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			total += len(strings.TrimSpace(c.Data))
		}
		return true
	})
	return total
}

// walk visits n and its descendants in document order. Returning false
// from visit skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
