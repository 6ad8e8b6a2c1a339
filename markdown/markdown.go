// Package markdown renders Markdown with goldmark and derives plain text
// and PDF generator blocks from the rendered HTML.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/tsawler/folio/htmldoc"
	"github.com/tsawler/folio/textpdf"
)

func newRenderer() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
	)
}

// ToHTML renders src as an HTML fragment. Raw HTML in the source is
// omitted.
func ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := newRenderer().Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// ToText renders src and strips the markup.
func ToText(src string) (string, error) {
	out, err := ToHTML(src)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(htmldoc.StripTags(out)), nil
}

// ToBlocks renders src and lays it out for the PDF generator with
// headings in bold.
func ToBlocks(src string) ([]textpdf.Block, error) {
	out, err := ToHTML(src)
	if err != nil {
		return nil, err
	}
	doc, err := htmldoc.Parse(strings.NewReader(out), htmldoc.KeepNavigation)
	if err != nil {
		return nil, err
	}
	return doc.Blocks(), nil
}
