package htmldoc

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Kind is the type of a block element.
type Kind int

const (
	Paragraph Kind = iota
	Heading
	List
	Table
	Code
	Quote
)

func (k Kind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case Heading:
		return "heading"
	case List:
		return "list"
	case Table:
		return "table"
	case Code:
		return "code"
	case Quote:
		return "quote"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Element is one block of the document body.
type Element struct {
	Kind  Kind
	Text  string // paragraphs, headings, code and quotes; may hold newlines
	Level int    // heading level 1-6
	Items []Item // list entries in document order
	Rows  [][]string
	// Header reports that the first table row is a header row.
	Header bool
}

// Item is a list entry. Depth is 0 for top-level entries.
type Item struct {
	Text    string
	Depth   int
	Ordered bool
}

// Document is a parsed HTML page.
type Document struct {
	Title    string
	Meta     map[string]string // <meta name|property=... content=...>
	Elements []Element
}

// Open parses the HTML file at path.
func Open(path string, mode NavigationMode) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return Parse(f, mode)
}

// Parse reads an HTML document. The parser is lenient: malformed markup
// is repaired rather than rejected.
func Parse(r io.Reader, mode NavigationMode) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	doc := &Document{Meta: map[string]string{}}
	if head := find(root, "head"); head != nil {
		doc.readHead(head)
	}
	body := find(root, "body")
	if body == nil {
		body = root
	}
	p := &parser{filter: newChromeFilter(mode, body), doc: doc}
	p.container(body)
	return doc, nil
}

// ParseString is Parse over a string with the default navigation mode.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s), SkipNavigation)
}

func (d *Document) readHead(head *html.Node) {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "title":
			d.Title = collapse(rawText(c))
		case "meta":
			name := attr(c, "name")
			if name == "" {
				name = attr(c, "property")
			}
			if content := attr(c, "content"); name != "" && content != "" {
				d.Meta[name] = content
			}
		}
	}
}

type parser struct {
	filter *chromeFilter
	doc    *Document
}

func (p *parser) emit(e Element) {
	if e.Text == "" && len(e.Items) == 0 && len(e.Rows) == 0 {
		return
	}
	p.doc.Elements = append(p.doc.Elements, e)
}

// container walks the children of a block container. Runs of inline
// content between block children become paragraphs.
func (p *parser) container(n *html.Node) {
	var run []*html.Node
	flush := func() {
		if len(run) > 0 {
			p.emit(Element{Kind: Paragraph, Text: inlineText(run...)})
			run = run[:0]
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (skipped(c.Data) || p.filter.skip(c)) {
			continue
		}
		if c.Type == html.ElementNode && isBlock(c.Data) {
			flush()
			p.block(c)
			continue
		}
		if c.Type == html.TextNode || c.Type == html.ElementNode {
			run = append(run, c)
		}
	}
	flush()
}

func (p *parser) block(n *html.Node) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		p.emit(Element{Kind: Heading, Level: int(n.Data[1] - '0'), Text: inlineText(n)})
	case "p":
		p.emit(Element{Kind: Paragraph, Text: inlineText(n)})
	case "ul", "ol":
		var items []Item
		p.list(n, 0, &items)
		p.emit(Element{Kind: List, Items: items})
	case "table":
		rows, header := p.table(n)
		p.emit(Element{Kind: Table, Rows: rows, Header: header})
	case "pre":
		p.emit(Element{Kind: Code, Text: strings.Trim(rawText(n), "\n")})
	case "blockquote":
		p.emit(Element{Kind: Quote, Text: blockText(n)})
	case "hr", "br":
	default:
		p.container(n)
	}
}

func (p *parser) list(n *html.Node, depth int, items *[]Item) {
	ordered := n.Data == "ol"
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" || p.filter.skip(li) {
			continue
		}
		var own []*html.Node
		var nested []*html.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				nested = append(nested, c)
			} else {
				own = append(own, c)
			}
		}
		if text := inlineText(own...); text != "" {
			*items = append(*items, Item{Text: text, Depth: depth, Ordered: ordered})
		}
		for _, sub := range nested {
			p.list(sub, depth+1, items)
		}
	}
}

// table returns the cell texts row by row. The first row is a header when
// it comes from <thead> or holds only <th> cells.
func (p *parser) table(n *html.Node) ([][]string, bool) {
	var rows [][]string
	header := false
	allTH := false
	var visit func(*html.Node, bool)
	visit = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead":
				visit(c, true)
			case "tbody", "tfoot":
				visit(c, false)
			case "tr":
				var cells []string
				th := true
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type != html.ElementNode || (cell.Data != "td" && cell.Data != "th") {
						continue
					}
					th = th && cell.Data == "th"
					text := strings.ReplaceAll(inlineText(cell), "\n", " ")
					cells = append(cells, text)
					for span := colspan(cell); span > 1; span-- {
						cells = append(cells, "")
					}
				}
				if len(cells) == 0 {
					continue
				}
				if len(rows) == 0 {
					header = inHead
					allTH = th
				}
				rows = append(rows, cells)
			}
		}
	}
	visit(n, false)
	return rows, header || allTH
}

func colspan(n *html.Node) int {
	v, err := strconv.Atoi(attr(n, "colspan"))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

// skipped elements never contribute text.
func skipped(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "template", "svg", "math", "iframe", "object", "embed", "head":
		return true
	}
	return false
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "table",
		"pre", "blockquote", "hr", "article", "section", "main", "header",
		"footer", "nav", "aside", "figure", "form", "dl", "address", "details", "body":
		return true
	}
	return false
}

// inlineText joins the text of nodes with HTML whitespace collapsed.
// <br> and nested block boundaries start a new line.
func inlineText(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n, false)
	}
	return collapse(b.String())
}

// blockText is inlineText for a container whose children are blocks.
func blockText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(&b, c, false)
	}
	return collapse(b.String())
}

func writeText(b *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			b.WriteString(strings.ReplaceAll(n.Data, "\n", "\r"))
		} else {
			b.WriteString(n.Data)
		}
		return
	case html.ElementNode:
		if skipped(n.Data) {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\r')
			return
		}
	}
	block := n.Type == html.ElementNode && (isBlock(n.Data) || n.Data == "li" || n.Data == "tr")
	if block {
		b.WriteByte('\r')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c, pre || (n.Type == html.ElementNode && n.Data == "pre"))
	}
	if block {
		b.WriteByte('\r')
	} else if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
		b.WriteByte(' ')
	}
}

// collapse turns runs of whitespace into single spaces within each line.
// Line breaks are marked with '\r' by writeText; empty lines are dropped.
func collapse(s string) string {
	var lines []string
	for _, l := range strings.Split(s, "\r") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// rawText returns the text under n unchanged, for <pre> and <title>.
func rawText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return c.Type != html.ElementNode || !skipped(c.Data) || c == n
	})
	return b.String()
}

func find(n *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && c.Data == tag {
			found = c
			return false
		}
		return true
	})
	return found
}
