package htmldoc

import (
	"strconv"
	"strings"

	"github.com/tsawler/folio/textpdf"
)

// ToMarkdown converts an HTML document to Markdown, skipping navigation.
func ToMarkdown(src string) (string, error) {
	doc, err := ParseString(src)
	if err != nil {
		return "", err
	}
	return doc.Markdown(), nil
}

// ToBlocks converts an HTML document to PDF generator blocks.
func ToBlocks(src string) ([]textpdf.Block, error) {
	doc, err := ParseString(src)
	if err != nil {
		return nil, err
	}
	return doc.Blocks(), nil
}

// Markdown renders the document body. Elements are separated by a blank
// line and the output ends with a newline unless it is empty.
func (d *Document) Markdown() string {
	parts := make([]string, 0, len(d.Elements))
	for _, e := range d.Elements {
		if s := e.markdown(); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func (e Element) markdown() string {
	switch e.Kind {
	case Heading:
		level := min(max(e.Level, 1), 6)
		return strings.Repeat("#", level) + " " + strings.ReplaceAll(e.Text, "\n", " ")
	case List:
		return listMarkdown(e.Items)
	case Table:
		return tableMarkdown(e.Rows, e.Header)
	case Code:
		return "```\n" + e.Text + "\n```"
	case Quote:
		return prefixLines(e.Text, "> ")
	}
	// hard line breaks
	return strings.ReplaceAll(e.Text, "\n", "  \n")
}

func listMarkdown(items []Item) string {
	var b strings.Builder
	counters := map[int]int{}
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		for d := range counters {
			if d > it.Depth {
				delete(counters, d)
			}
		}
		b.WriteString(strings.Repeat("  ", it.Depth))
		if it.Ordered {
			counters[it.Depth]++
			b.WriteString(strconv.Itoa(counters[it.Depth]) + ". ")
		} else {
			b.WriteString("- ")
		}
		b.WriteString(strings.ReplaceAll(it.Text, "\n", " "))
	}
	return b.String()
}

// tableMarkdown writes a pipe table. Markdown tables need a header row,
// so a table without one gets an empty header.
func tableMarkdown(rows [][]string, header bool) string {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return ""
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteByte('|')
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = escapeCell(cells[i])
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteByte('\n')
	}
	body := rows
	if header {
		writeRow(rows[0])
		body = rows[1:]
	} else {
		writeRow(nil)
	}
	b.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
	for _, r := range body {
		writeRow(r)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// Blocks lays the document out for the PDF generator: headings in bold,
// one block per line and a blank block between elements.
func (d *Document) Blocks() []textpdf.Block {
	var out []textpdf.Block
	add := func(text string, bold bool) {
		for _, l := range strings.Split(text, "\n") {
			out = append(out, textpdf.Block{Text: l, Bold: bold})
		}
	}
	for _, e := range d.Elements {
		if len(out) > 0 {
			out = append(out, textpdf.Block{})
		}
		switch e.Kind {
		case Heading:
			add(e.Text, true)
		case List:
			for _, it := range e.Items {
				add(strings.Repeat("    ", it.Depth)+"- "+it.Text, false)
			}
		case Table:
			for i, r := range e.Rows {
				add(strings.Join(r, " | "), i == 0 && e.Header)
			}
		case Quote:
			add(prefixLines(e.Text, "    "), false)
		default:
			add(e.Text, false)
		}
	}
	return out
}
