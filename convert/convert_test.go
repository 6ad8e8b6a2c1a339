package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/folio/docx"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/internal/logging"
	"github.com/tsawler/folio/odt"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/pdfdoc"
	"github.com/tsawler/folio/textpdf"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func testConverter() (*Converter, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	c := New(logging.New(logging.Config{Level: "info", Format: "json", Output: buf}))
	return c, buf
}

func TestConvertTextual(t *testing.T) {
	dir := t.TempDir()
	md := write(t, dir, "notes.md", "# Title\n\nSome **bold** text.\n\n- one\n- two\n")
	page := write(t, dir, "page.html", "<html><body><nav>menu</nav><h2>Head</h2><p>Para &amp; more</p></body></html>")
	csv := write(t, dir, "data.csv", "a,b\n1,<2>\n")
	tex := write(t, dir, "doc.md", "## Costs & 100% snake_case\n\nPrice $5 {x}\n")

	tests := []struct {
		name   string
		input  string
		output string
		want   []string
		absent []string
	}{
		{"markdown to html", md, "notes.html", []string{"<!DOCTYPE html>", "<title>notes</title>", "<h1>Title</h1>", "<strong>bold</strong>", "<li>one</li>"}, nil},
		{"markdown to text", md, "notes.txt", []string{"Title\nSome bold text.", "one\ntwo"}, []string{"**", "<"}},
		{"markdown to tex", md, "notes.tex", []string{`\documentclass{article}`, `\section*{Title}`, "Some bold text.", `\end{document}`}, nil},
		{"html to markdown", page, "page.md", []string{"## Head", "Para & more"}, []string{"menu"}},
		{"html to text", page, "page.txt", []string{"Head\n\nPara & more"}, []string{"<"}},
		{"csv to html", csv, "data.html", []string{"<pre>a,b\n1,&lt;2&gt;</pre>"}, nil},
		{"csv to markdown", csv, "data.md", []string{"```csv\na,b\n1,<2>\n```"}, nil},
		{"csv to text copies", csv, "data.txt", []string{"a,b\n1,<2>\n"}, nil},
		{"tex escaping", tex, "doc.tex", []string{`\subsection*{Costs \& 100\% snake\_case}`, `Price \$5 \{x\}`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testConverter()
			out := filepath.Join(dir, tt.output)
			if err := c.Convert(context.Background(), tt.input, out); err != nil {
				t.Fatalf("Convert() error: %v", err)
			}
			got := read(t, out)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("output contains %q:\n%s", a, got)
				}
			}
		})
	}
}

func TestMarkdownToPDF(t *testing.T) {
	dir := t.TempDir()
	words := strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", 100))
	in := write(t, dir, "essay.md", "# Essay\n\n"+words+"\n")
	out := filepath.Join(dir, "essay.pdf")

	c, _ := testConverter()
	if err := c.Convert(context.Background(), in, out); err != nil {
		t.Fatal(err)
	}
	doc, err := pdfdoc.Open(out, pdfdoc.LoadOptions{})
	if err != nil {
		t.Fatalf("output does not load: %v", err)
	}
	n, err := pages.Count(doc)
	if err != nil {
		t.Fatal(err)
	}
	if n < 1 {
		t.Errorf("page count = %d", n)
	}

	txt := filepath.Join(dir, "essay.txt")
	if err := c.Convert(context.Background(), out, txt); err != nil {
		t.Fatal(err)
	}
	got := read(t, txt)
	if !strings.HasPrefix(got, "Essay\n") {
		t.Errorf("extracted text starts %q", got[:min(len(got), 40)])
	}
	if strings.Count(got, "lorem") != 100 {
		t.Errorf("extracted %d occurrences of lorem, want 100", strings.Count(got, "lorem"))
	}
}

func TestPDFToFormats(t *testing.T) {
	dir := t.TempDir()
	doc, _, err := textpdf.FromText("First line\nSecond line", textpdf.Options{})
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "in.pdf")
	if err := doc.WriteFile(src, pdfdoc.SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	c, _ := testConverter()
	for _, name := range []string{"out.md", "out.html", "out.tex"} {
		out := filepath.Join(dir, name)
		if err := c.Convert(context.Background(), src, out); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		got := read(t, out)
		if !strings.Contains(got, "First line") || !strings.Contains(got, "Second line") {
			t.Errorf("%s missing page text:\n%s", name, got)
		}
	}

	out := filepath.Join(dir, "out.docx")
	if err := c.Convert(context.Background(), src, out); err != nil {
		t.Fatal(err)
	}
	text, err := docx.ExtractText(out)
	if err != nil {
		t.Fatal(err)
	}
	if text != "First line\n\nSecond line" {
		t.Errorf("docx text = %q", text)
	}
}

func TestPackagesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "plain.txt", "alpha\nbeta & gamma")
	c, _ := testConverter()

	docxOut := filepath.Join(dir, "plain.docx")
	if err := c.Convert(context.Background(), in, docxOut); err != nil {
		t.Fatal(err)
	}
	if got, err := docx.ExtractText(docxOut); err != nil || got != "alpha\n\nbeta & gamma" {
		t.Errorf("docx text = %q, %v", got, err)
	}

	odtOut := filepath.Join(dir, "plain.odt")
	if err := c.Convert(context.Background(), docxOut, odtOut); err != nil {
		t.Fatal(err)
	}
	if got, err := odt.ExtractText(odtOut); err != nil || got != "alpha\n\nbeta & gamma" {
		t.Errorf("odt text = %q, %v", got, err)
	}

	html := filepath.Join(dir, "plain.html")
	if err := c.Convert(context.Background(), odtOut, html); err != nil {
		t.Fatal(err)
	}
	if got := read(t, html); !strings.Contains(got, "<p>beta &amp; gamma</p>") {
		t.Errorf("html output:\n%s", got)
	}
}

func TestSameFormatCopies(t *testing.T) {
	dir := t.TempDir()
	content := "# untouched *markdown*\n"
	in := write(t, dir, "a.md", content)
	out := filepath.Join(dir, "b.markdown")
	c, _ := testConverter()
	if err := c.Convert(context.Background(), in, out); err != nil {
		t.Fatal(err)
	}
	if got := read(t, out); got != content {
		t.Errorf("copy = %q, want %q", got, content)
	}
}

func TestUnknownOutputFallsBack(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "a.md", "# hi\n")
	out := filepath.Join(dir, "a.xyz")
	c, logs := testConverter()
	if err := c.Convert(context.Background(), in, out); err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}
	if got := read(t, out); got != "# hi\n" {
		t.Errorf("fallback output = %q", got)
	}
	for _, want := range []string{"no conversion path", `"from":"Markdown"`, `"to":"Unknown"`} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log missing %s: %s", want, logs.String())
		}
	}
}

func TestSniffUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "page.dat", "<!DOCTYPE html><html><body><h1>Sniffed</h1></body></html>")
	out := filepath.Join(dir, "page.md")
	c, _ := testConverter()
	if err := c.Convert(context.Background(), in, out); err != nil {
		t.Fatal(err)
	}
	if got := read(t, out); got != "# Sniffed\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncodingLossIsLogged(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "cjk.txt", "caf\u00e9 \u65e5\u672c")
	out := filepath.Join(dir, "cjk.pdf")
	c, logs := testConverter()
	if err := c.Convert(context.Background(), in, out); err != nil {
		t.Fatalf("encoding loss must not fail: %v", err)
	}
	if !strings.Contains(logs.String(), `"substituted":2`) {
		t.Errorf("expected substitution warning: %s", logs.String())
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	c, _ := testConverter()

	err := c.Convert(context.Background(), filepath.Join(dir, "missing.md"), filepath.Join(dir, "x.pdf"))
	if !errors.Is(err, errs.ErrIO) {
		t.Errorf("missing input: got %v, want ErrIO", err)
	}

	bad := write(t, dir, "broken.docx", "not a zip")
	err = c.Convert(context.Background(), bad, filepath.Join(dir, "x.txt"))
	if !errors.Is(err, errs.ErrLoad) {
		t.Errorf("broken package: got %v, want ErrLoad", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := write(t, dir, "ok.md", "text")
	out := filepath.Join(dir, "ok.pdf")
	if err := c.Convert(ctx, in, out); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("cancelled conversion wrote output")
	}
}
