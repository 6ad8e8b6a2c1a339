package format

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestDetectInput(t *testing.T) {
	tests := []struct {
		filename string
		want     Input
	}{
		{"report.docx", DOCX},
		{"template.DOTX", DOTX},
		{"data.csv", CSV},
		{"data.json", JSON},
		{"server.log", Log},
		{"README.md", Markdown},
		{"notes.markdown", Markdown},
		{"letter.odt", ODT},
		{"paper.typ", Typst},
		{"paper.typst", Typst},
		{"config.yaml", YAML},
		{"config.YML", YAML},
		{"index.html", HTML},
		{"index.htm", HTML},
		{"thesis.tex", TeX},
		{"guide.rst", RST},
		{"scan.Pdf", PDF},
		{"notes.txt", Text},
		{"notes.text", Text},
		{"release.nfo", Text},
		{"archive.zip", UnknownInput},
		{"noext", UnknownInput},
		{"/path.with.dots/file", UnknownInput},
	}
	for _, tt := range tests {
		if got := DetectInput(tt.filename); got != tt.want {
			t.Errorf("DetectInput(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestDetectOutput(t *testing.T) {
	tests := []struct {
		filename string
		want     Output
	}{
		{"out.docx", OutDOCX},
		{"out.html", OutHTML},
		{"out.HTM", OutHTML},
		{"out.md", OutMarkdown},
		{"out.markdown", OutMarkdown},
		{"out.odt", OutODT},
		{"out.tex", OutTeX},
		{"out.txt", OutText},
		{"out.pdf", OutPDF},
		// accepted as inputs only
		{"out.csv", UnknownOutput},
		{"out.text", UnknownOutput},
		{"out.dotx", UnknownOutput},
	}
	for _, tt := range tests {
		if got := DetectOutput(tt.filename); got != tt.want {
			t.Errorf("DetectOutput(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestStringAndExtension(t *testing.T) {
	if got := Markdown.String(); got != "Markdown" {
		t.Errorf("Markdown.String() = %q", got)
	}
	if got := Input(99).String(); got != "Unknown" {
		t.Errorf("Input(99).String() = %q", got)
	}
	if got := Markdown.Extension(); got != ".md" {
		t.Errorf("Markdown.Extension() = %q", got)
	}
	if got := UnknownInput.Extension(); got != "" {
		t.Errorf("UnknownInput.Extension() = %q", got)
	}
	if got := OutTeX.String(); got != "TeX" {
		t.Errorf("OutTeX.String() = %q", got)
	}
	if got := Output(-1).Extension(); got != "" {
		t.Errorf("Output(-1).Extension() = %q", got)
	}
	// every known tag round-trips through its extension
	for f := DOCX; f <= Text; f++ {
		if got := DetectInput("x" + f.Extension()); got != f {
			t.Errorf("DetectInput(%q) = %v, want %v", f.Extension(), got, f)
		}
	}
	for f := OutDOCX; f <= OutPDF; f++ {
		if got := DetectOutput("x" + f.Extension()); got != f {
			t.Errorf("DetectOutput(%q) = %v, want %v", f.Extension(), got, f)
		}
	}
}

func TestIsTextFamily(t *testing.T) {
	for _, f := range []Input{Text, CSV, JSON, YAML, Log, TeX, RST, Typst} {
		if !f.IsTextFamily() {
			t.Errorf("%v should be text family", f)
		}
	}
	for _, f := range []Input{Markdown, HTML, DOCX, ODT, PDF, UnknownInput} {
		if f.IsTextFamily() {
			t.Errorf("%v should not be text family", f)
		}
	}
}

func zipWith(t *testing.T, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("<x/>"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Input
	}{
		{"pdf", []byte("%PDF-1.7\n..."), PDF},
		{"html", []byte("\n  <!DOCTYPE html><html></html>"), HTML},
		{"xhtml", []byte(`<?xml version="1.0"?><html xmlns="http://www.w3.org/1999/xhtml">`), HTML},
		{"docx", zipWith(t, "word/document.xml"), DOCX},
		{"odt", zipWith(t, "content.xml"), ODT},
		{"other zip", zipWith(t, "foo.txt"), UnknownInput},
		{"text", []byte("hello"), UnknownInput},
		{"empty", nil, UnknownInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sniff(bytes.NewReader(tt.data), int64(len(tt.data)))
			if err != nil {
				t.Fatalf("Sniff: %v", err)
			}
			if got != tt.want {
				t.Errorf("Sniff = %v, want %v", got, tt.want)
			}
		})
	}
}
