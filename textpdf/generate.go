package textpdf

import (
	"compress/zlib"
	"strings"

	"github.com/tsawler/folio/contentstream"
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/pdfdoc"
)

// Font resource names.
const (
	RegularFont = "F1"
	BoldFont    = "F2"
)

// Block is one paragraph of input. Empty text produces a blank line.
type Block struct {
	Text string
	Bold bool
}

// Stats describes a generated document.
type Stats struct {
	Pages       int
	Lines       int
	Substituted int // runes replaced by '?'
}

// line is one wrapped, encoded output line.
type line struct {
	text []byte
	bold bool
}

// FromText lays out text line by line in the regular font.
func FromText(text string, opts Options) (*pdfdoc.Document, Stats, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimRight(text, "\n")
	var blocks []Block
	if text != "" {
		for _, l := range strings.Split(text, "\n") {
			blocks = append(blocks, Block{Text: l})
		}
	}
	return FromBlocks(blocks, opts)
}

// FromBlocks lays out blocks in order. No blocks yields one blank page.
func FromBlocks(blocks []Block, opts Options) (*pdfdoc.Document, Stats, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	var lines []line
	maxChars := opts.MaxChars()
	for _, b := range blocks {
		enc, lost := Encode(b.Text)
		stats.Substituted += lost
		for _, piece := range Wrap(enc, maxChars) {
			lines = append(lines, line{text: piece, bold: b.Bold})
		}
	}
	stats.Lines = len(lines)

	perPage := opts.Lines()
	var pages [][]line
	for start := 0; start < len(lines); start += perPage {
		pages = append(pages, lines[start:min(start+perPage, len(lines))])
	}
	if len(pages) == 0 {
		pages = [][]line{nil}
	}
	stats.Pages = len(pages)

	doc, err := build(pages, opts)
	if err != nil {
		return nil, Stats{}, err
	}
	return doc, stats, nil
}

func build(pages [][]line, opts Options) (*pdfdoc.Document, error) {
	doc := pdfdoc.New()
	regular := doc.Add(baseFont("Helvetica"))
	bold := doc.Add(baseFont("Helvetica-Bold"))
	rootRef := doc.Add(core.Dict{})

	mediaBox := core.Array{core.Int(0), core.Int(0), core.Real(opts.PageWidth), core.Real(opts.PageHeight)}
	kids := make(core.Array, 0, len(pages))
	for _, lines := range pages {
		content := core.NewStream(core.Dict{}, pageContent(lines, opts))
		if _, err := content.Compress(zlib.DefaultCompression); err != nil {
			return nil, err
		}
		contentRef := doc.Add(content)
		page := doc.Add(core.Dict{
			"Type":     core.Name("Page"),
			"Parent":   rootRef,
			"MediaBox": mediaBox,
			"Contents": contentRef,
			"Resources": core.Dict{
				"Font":    core.Dict{RegularFont: regular, BoldFont: bold},
				"ProcSet": core.Array{core.Name("PDF"), core.Name("Text")},
			},
		})
		kids = append(kids, page)
	}
	doc.Set(rootRef, core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  kids,
		"Count": core.Int(len(kids)),
	})
	catalog := doc.Add(core.Dict{"Type": core.Name("Catalog"), "Pages": rootRef})
	info := doc.Add(core.Dict{"Producer": core.String("folio")})
	doc.Trailer["Root"] = catalog
	doc.Trailer["Info"] = info
	return doc, nil
}

func baseFont(name string) core.Dict {
	return core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name(name),
		"Encoding": core.Name("WinAnsiEncoding"),
	}
}

// pageContent draws lines top-down from the upper margin. The font is
// only switched when a line's weight differs from the previous one.
func pageContent(lines []line, opts Options) []byte {
	if len(lines) == 0 {
		return contentstream.Encode(nil)
	}
	size := core.Real(opts.FontSize)
	ops := []contentstream.Operation{
		contentstream.Op("BT"),
		contentstream.Op("TL", core.Real(opts.Leading)),
		contentstream.Op("Td", core.Real(opts.Margin), core.Real(opts.PageHeight-opts.Margin-opts.FontSize)),
	}
	current := ""
	for i, l := range lines {
		font := RegularFont
		if l.bold {
			font = BoldFont
		}
		if font != current {
			ops = append(ops, contentstream.Op("Tf", core.Name(font), size))
			current = font
		}
		if i > 0 {
			ops = append(ops, contentstream.Op("T*"))
		}
		ops = append(ops, contentstream.Op("Tj", core.String(l.text)))
	}
	ops = append(ops, contentstream.Op("ET"))
	return contentstream.Encode(ops)
}
