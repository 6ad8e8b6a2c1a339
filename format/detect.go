// Package format maps file names to the closed sets of input and output
// formats folio understands.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Input is a source format.
type Input int

const (
	// UnknownInput is an unrecognized source.
	UnknownInput Input = iota
	DOCX
	DOTX
	CSV
	JSON
	Log
	Markdown
	ODT
	Typst
	YAML
	HTML
	TeX
	RST
	PDF
	Text
)

var inputNames = [...]string{
	UnknownInput: "Unknown",
	DOCX:         "DOCX",
	DOTX:         "DOTX",
	CSV:          "CSV",
	JSON:         "JSON",
	Log:          "Log",
	Markdown:     "Markdown",
	ODT:          "ODT",
	Typst:        "Typst",
	YAML:         "YAML",
	HTML:         "HTML",
	TeX:          "TeX",
	RST:          "RST",
	PDF:          "PDF",
	Text:         "Text",
}

var inputExts = [...]string{
	DOCX:     ".docx",
	DOTX:     ".dotx",
	CSV:      ".csv",
	JSON:     ".json",
	Log:      ".log",
	Markdown: ".md",
	ODT:      ".odt",
	Typst:    ".typ",
	YAML:     ".yaml",
	HTML:     ".html",
	TeX:      ".tex",
	RST:      ".rst",
	PDF:      ".pdf",
	Text:     ".txt",
}

// String returns the format name.
func (f Input) String() string {
	if f < 0 || int(f) >= len(inputNames) {
		return inputNames[UnknownInput]
	}
	return inputNames[f]
}

// Extension returns the canonical extension, with the dot, or "".
func (f Input) Extension() string {
	if f < 0 || int(f) >= len(inputExts) {
		return ""
	}
	return inputExts[f]
}

// IsTextFamily reports formats that are laid out verbatim as plain text.
func (f Input) IsTextFamily() bool {
	switch f {
	case Text, CSV, JSON, YAML, Log, TeX, RST, Typst:
		return true
	}
	return false
}

// Output is a target format.
type Output int

const (
	// UnknownOutput is an unrecognized target.
	UnknownOutput Output = iota
	OutDOCX
	OutHTML
	OutMarkdown
	OutODT
	OutTeX
	OutText
	OutPDF
)

var outputNames = [...]string{
	UnknownOutput: "Unknown",
	OutDOCX:       "DOCX",
	OutHTML:       "HTML",
	OutMarkdown:   "Markdown",
	OutODT:        "ODT",
	OutTeX:        "TeX",
	OutText:       "Text",
	OutPDF:        "PDF",
}

var outputExts = [...]string{
	OutDOCX:     ".docx",
	OutHTML:     ".html",
	OutMarkdown: ".md",
	OutODT:      ".odt",
	OutTeX:      ".tex",
	OutText:     ".txt",
	OutPDF:      ".pdf",
}

// String returns the format name.
func (f Output) String() string {
	if f < 0 || int(f) >= len(outputNames) {
		return outputNames[UnknownOutput]
	}
	return outputNames[f]
}

// Extension returns the canonical extension, with the dot, or "".
func (f Output) Extension() string {
	if f < 0 || int(f) >= len(outputExts) {
		return ""
	}
	return outputExts[f]
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// DetectInput determines the source format from the extension.
func DetectInput(path string) Input {
	switch ext(path) {
	case ".docx":
		return DOCX
	case ".dotx":
		return DOTX
	case ".csv":
		return CSV
	case ".json":
		return JSON
	case ".log":
		return Log
	case ".md", ".markdown":
		return Markdown
	case ".odt":
		return ODT
	case ".typ", ".typst":
		return Typst
	case ".yaml", ".yml":
		return YAML
	case ".html", ".htm":
		return HTML
	case ".tex":
		return TeX
	case ".rst":
		return RST
	case ".pdf":
		return PDF
	case ".txt", ".text", ".nfo":
		return Text
	}
	return UnknownInput
}

// DetectOutput determines the target format from the extension.
func DetectOutput(path string) Output {
	switch ext(path) {
	case ".docx":
		return OutDOCX
	case ".html", ".htm":
		return OutHTML
	case ".md", ".markdown":
		return OutMarkdown
	case ".odt":
		return OutODT
	case ".tex":
		return OutTeX
	case ".txt":
		return OutText
	case ".pdf":
		return OutPDF
	}
	return UnknownOutput
}

// Sniff inspects content for sources whose extension is not recognized.
// It tells PDF, HTML and the zip-based word-processor packages apart and
// returns UnknownInput for everything else.
func Sniff(r io.ReaderAt, size int64) (Input, error) {
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return UnknownInput, err
	}
	magic = magic[:n]

	switch {
	case bytes.HasPrefix(magic, []byte("%PDF")):
		return PDF, nil
	case bytes.HasPrefix(magic, []byte("PK\x03\x04")):
		return sniffZip(r, size)
	case looksLikeHTML(magic):
		return HTML, nil
	}
	return UnknownInput, nil
}

func looksLikeHTML(data []byte) bool {
	upper := strings.ToUpper(string(bytes.TrimLeft(data, " \t\r\n")))
	switch {
	case strings.HasPrefix(upper, "<!DOCTYPE HTML"), strings.HasPrefix(upper, "<HTML"):
		return true
	case strings.HasPrefix(upper, "<?XML"):
		return strings.Contains(upper, "<HTML")
	}
	return false
}

func sniffZip(r io.ReaderAt, size int64) (Input, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return UnknownInput, err
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return DOCX, nil
		case "content.xml":
			return ODT, nil
		}
	}
	return UnknownInput, nil
}
