package convert

import (
	"html"
	"strings"

	"github.com/tsawler/folio/textpdf"
)

// htmlPage wraps body in a minimal HTML5 document.
func htmlPage(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n</head>\n<body>\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func renderHTML(nodes []node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.kind {
		case heading:
			tag := "h" + string(rune('0'+clamp(n.level, 1, 6)))
			b.WriteString("<" + tag + ">" + html.EscapeString(n.text) + "</" + tag + ">\n")
		case preformatted:
			b.WriteString("<pre>" + html.EscapeString(n.text) + "</pre>\n")
		default:
			b.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(n.text), "\n", "<br>\n") + "</p>\n")
		}
	}
	return b.String()
}

func renderMarkdown(nodes []node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		switch n.kind {
		case heading:
			parts = append(parts, strings.Repeat("#", clamp(n.level, 1, 6))+" "+strings.ReplaceAll(n.text, "\n", " "))
		case preformatted:
			parts = append(parts, "```"+n.lang+"\n"+n.text+"\n```")
		default:
			parts = append(parts, n.text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// renderText separates nodes with a blank line.
func renderText(nodes []node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.text)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// renderBlocks lays nodes out for the PDF generator. A lone preformatted
// node, the text-family case, is laid out verbatim with no spacing.
func renderBlocks(nodes []node) []textpdf.Block {
	var out []textpdf.Block
	for i, n := range nodes {
		if i > 0 {
			out = append(out, textpdf.Block{})
		}
		for _, l := range strings.Split(n.text, "\n") {
			out = append(out, textpdf.Block{Text: l, Bold: n.kind == heading})
		}
	}
	return out
}

var texEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

var texSections = [...]string{"section", "subsection", "subsubsection", "paragraph"}

// renderTeX writes a standalone LaTeX article.
func renderTeX(title string, nodes []node) string {
	var b strings.Builder
	b.WriteString("\\documentclass{article}\n")
	b.WriteString("\\usepackage[utf8]{inputenc}\n")
	b.WriteString("\\usepackage[T1]{fontenc}\n")
	b.WriteString("\\title{" + texEscaper.Replace(title) + "}\n")
	b.WriteString("\\date{}\n")
	b.WriteString("\\begin{document}\n")
	for _, n := range nodes {
		b.WriteByte('\n')
		switch n.kind {
		case heading:
			cmd := texSections[clamp(n.level, 1, len(texSections))-1]
			b.WriteString("\\" + cmd + "*{" + texEscaper.Replace(strings.ReplaceAll(n.text, "\n", " ")) + "}\n")
		case preformatted:
			b.WriteString("\\begin{verbatim}\n" + n.text + "\n\\end{verbatim}\n")
		default:
			b.WriteString(strings.ReplaceAll(texEscaper.Replace(n.text), "\n", "\\\\\n") + "\n")
		}
	}
	b.WriteString("\n\\end{document}\n")
	return b.String()
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
