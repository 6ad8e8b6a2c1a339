package convert

import (
	"os"
	"strings"

	"github.com/tsawler/folio/contentstream"
	"github.com/tsawler/folio/docx"
	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/htmldoc"
	"github.com/tsawler/folio/markdown"
	"github.com/tsawler/folio/odt"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/pdfdoc"
)

type nodeKind int

const (
	paragraph nodeKind = iota
	heading
	preformatted
)

// node is one block of a source document. Text may span several lines.
type node struct {
	kind  nodeKind
	level int    // heading level
	lang  string // fence label for preformatted text
	text  string
}

// fenceLabels name the code fence used for text-family sources.
var fenceLabels = map[format.Input]string{
	format.CSV:   "csv",
	format.JSON:  "json",
	format.YAML:  "yaml",
	format.TeX:   "latex",
	format.RST:   "rst",
	format.Typst: "typst",
}

// readNodes loads path, a document of format in, as a node list.
func readNodes(in format.Input, path string) ([]node, error) {
	switch in {
	case format.DOCX, format.DOTX:
		paras, err := docx.Paragraphs(path)
		if err != nil {
			return nil, err
		}
		nodes := make([]node, 0, len(paras))
		for _, p := range paras {
			nodes = appendPara(nodes, p.Text, p.Heading)
		}
		return nodes, nil
	case format.ODT:
		paras, err := odt.Paragraphs(path)
		if err != nil {
			return nil, err
		}
		nodes := make([]node, 0, len(paras))
		for _, p := range paras {
			nodes = appendPara(nodes, p.Text, p.Heading)
		}
		return nodes, nil
	case format.HTML:
		doc, err := htmldoc.Open(path, htmldoc.SkipNavigation)
		if err != nil {
			return nil, err
		}
		return fromElements(doc.Elements), nil
	case format.Markdown:
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out, err := markdown.ToHTML(string(src))
		if err != nil {
			return nil, err
		}
		doc, err := htmldoc.Parse(strings.NewReader(out), htmldoc.KeepNavigation)
		if err != nil {
			return nil, err
		}
		return fromElements(doc.Elements), nil
	case format.PDF:
		text, err := pdfText(path)
		if err != nil {
			return nil, err
		}
		var nodes []node
		for _, page := range text {
			for _, l := range strings.Split(page, "\n") {
				nodes = appendPara(nodes, l, 0)
			}
		}
		return nodes, nil
	case format.Text, format.CSV, format.JSON, format.YAML, format.Log,
		format.TeX, format.RST, format.Typst:
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text := strings.TrimRight(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
		return []node{{kind: preformatted, lang: fenceLabels[in], text: text}}, nil
	case format.UnknownInput:
	}
	return nil, nil
}

func appendPara(nodes []node, text string, level int) []node {
	text = strings.TrimSpace(text)
	if text == "" {
		return nodes
	}
	if level > 0 {
		return append(nodes, node{kind: heading, level: level, text: text})
	}
	return append(nodes, node{kind: paragraph, text: text})
}

func fromElements(elements []htmldoc.Element) []node {
	var nodes []node
	for _, e := range elements {
		switch e.Kind {
		case htmldoc.Heading:
			nodes = append(nodes, node{kind: heading, level: e.Level, text: e.Text})
		case htmldoc.Code:
			nodes = append(nodes, node{kind: preformatted, text: e.Text})
		case htmldoc.List:
			for _, it := range e.Items {
				nodes = append(nodes, node{kind: paragraph, text: strings.Repeat("  ", it.Depth) + "- " + it.Text})
			}
		case htmldoc.Table:
			rows := make([]string, len(e.Rows))
			for i, r := range e.Rows {
				rows[i] = strings.Join(r, " | ")
			}
			nodes = append(nodes, node{kind: preformatted, text: strings.Join(rows, "\n")})
		default:
			nodes = append(nodes, node{kind: paragraph, text: e.Text})
		}
	}
	return nodes
}

// pdfText returns the text of each page of the PDF at path. Pages whose
// content cannot be parsed contribute an empty string.
func pdfText(path string) ([]string, error) {
	doc, err := pdfdoc.Open(path, pdfdoc.LoadOptions{})
	if err != nil {
		return nil, err
	}
	list, err := pages.List(doc)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(list))
	for i, p := range list {
		ops, err := contentstream.Parse(p.Content())
		if err != nil {
			continue
		}
		out[i] = contentstream.TextOf(ops)
	}
	return out, nil
}
