// Package odt reads text out of OpenDocument text packages and writes
// minimal packages from plain text.
package odt

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	nsOffice = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"
	nsText   = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"

	contentPart = "content.xml"
	mimeType    = "application/vnd.oasis.opendocument.text"
)

// ErrNoContent is returned when the package has no content.xml.
var ErrNoContent = errors.New("odt: missing " + contentPart)

// Paragraph is one text:p or text:h of the body.
type Paragraph struct {
	Text    string
	Heading int // outline level of a text:h, 0 for text:p
}

// ExtractText returns the flattened text of the package at path.
func ExtractText(path string) (string, error) {
	paras, err := Paragraphs(path)
	if err != nil {
		return "", err
	}
	return joinParagraphs(paras), nil
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
	for _, f := range zr.File {
		if f.Name != contentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return parseContent(data)
	}
	return nil, ErrNoContent
}

// parseContent walks office:text. Character data anywhere inside a
// text:p or text:h (including nested spans and links) is kept.
func parseContent(data []byte) ([]Paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		paras  []Paragraph
		cur    strings.Builder
		level  int
		depth  int // open text:p/text:h elements
		inBody bool
	)
	flush := func() {
		paras = append(paras, Paragraph{Text: cur.String(), Heading: level})
		cur.Reset()
		level = 0
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", contentPart, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == nsOffice && t.Name.Local == "text" {
				inBody = true
				continue
			}
			if !inBody || t.Name.Space != nsText {
				continue
			}
			switch t.Name.Local {
			case "p", "h":
				if depth > 0 && cur.Len() > 0 {
					flush()
				}
				depth++
				if t.Name.Local == "h" {
					level = 1
					if n, err := strconv.Atoi(attr(t, "outline-level")); err == nil && n >= 1 && n <= 10 {
						level = n
					}
				}
			case "s":
				n := 1
				if c, err := strconv.Atoi(attr(t, "c")); err == nil && c > 0 {
					n = c
				}
				cur.WriteString(strings.Repeat(" ", n))
			case "tab":
				cur.WriteByte('\t')
			case "line-break":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space == nsOffice && t.Name.Local == "text" {
				inBody = false
				continue
			}
			if inBody && t.Name.Space == nsText && (t.Name.Local == "p" || t.Name.Local == "h") {
				flush()
				depth--
			}
		case xml.CharData:
			if inBody && depth > 0 {
				cur.Write(t)
			}
		}
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

var blankRun = regexp.MustCompile(`\n{3,}`)

func joinParagraphs(paras []Paragraph) string {
	var b strings.Builder
	for _, p := range paras {
		b.WriteByte('\n')
		b.WriteString(p.Text)
		b.WriteByte('\n')
	}
	return strings.Trim(blankRun.ReplaceAllString(b.String(), "\n\n"), "\n")
}
