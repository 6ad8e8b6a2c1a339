// Package docx reads text out of Office Open XML word-processor packages
// (.docx and .dotx) and writes minimal packages from plain text.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// bodyPart is the package part holding the document body.
const bodyPart = "word/document.xml"

// ErrNoBody is returned when the package has no word/document.xml.
var ErrNoBody = errors.New("docx: missing " + bodyPart)

// Paragraph is one w:p of the body.
type Paragraph struct {
	Text    string
	Heading int // 1-9 for heading and title styles, 0 otherwise
}

// ExtractText returns the flattened text of the package at path.
func ExtractText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	return ExtractTextFrom(f, info.Size())
}

// ExtractTextFrom is ExtractText over an in-memory or open package.
func ExtractTextFrom(r io.ReaderAt, size int64) (string, error) {
	paras, err := ParagraphsFrom(r, size)
	if err != nil {
		return "", err
	}
	return joinParagraphs(paras), nil
}

// Paragraphs returns the body paragraphs of the package at path.
func Paragraphs(path string) ([]Paragraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ParagraphsFrom(f, info.Size())
}

// ParagraphsFrom reads the body paragraphs from r.
func ParagraphsFrom(r io.ReaderAt, size int64) ([]Paragraph, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	data, err := readPart(zr, bodyPart)
	if err != nil {
		return nil, err
	}
	return parseBody(data)
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, ErrNoBody
}

// parseBody walks the markup events of document.xml. Text is taken from
// w:t only; w:tab and w:br/w:cr inside a run become a tab and a line
// break. A w:tab outside a run is a tab stop definition.
func parseBody(data []byte) ([]Paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		paras  []Paragraph
		cur    strings.Builder
		style  string
		inText bool
		inRun  int
	)
	flush := func() {
		paras = append(paras, Paragraph{Text: cur.String(), Heading: headingLevel(style)})
		cur.Reset()
		style = ""
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", bodyPart, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				// a paragraph nested in a text box splits its host
				if cur.Len() > 0 {
					flush()
				}
			case "r":
				inRun++
			case "t":
				inText = true
			case "tab":
				if inRun > 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 {
					cur.WriteByte('\n')
				}
			case "pStyle":
				style = attr(t, "val")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				flush()
			case "r":
				inRun--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	if cur.Len() > 0 {
		flush()
	}
	return paras, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// headingLevel maps Word's built-in heading style IDs to a level.
func headingLevel(styleID string) int {
	id := strings.ToLower(styleID)
	switch id {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	if strings.HasPrefix(id, "heading") && len(id) == len("heading")+1 {
		if c := id[len(id)-1]; c >= '1' && c <= '9' {
			return int(c - '0')
		}
	}
	return 0
}

var blankRun = regexp.MustCompile(`\n{3,}`)

// joinParagraphs puts a line break before and after every paragraph, then
// collapses the result so at most one blank line separates paragraphs.
func joinParagraphs(paras []Paragraph) string {
	var b strings.Builder
	for _, p := range paras {
		b.WriteByte('\n')
		b.WriteString(p.Text)
		b.WriteByte('\n')
	}
	out := blankRun.ReplaceAllString(b.String(), "\n\n")
	return strings.Trim(out, "\n")
}
