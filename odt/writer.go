package odt

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

const manifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">
<manifest:file-entry manifest:full-path="/" manifest:media-type="application/vnd.oasis.opendocument.text"/>
<manifest:file-entry manifest:full-path="content.xml" manifest:media-type="text/xml"/>
</manifest:manifest>`

const (
	contentHeader = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" office:version="1.2"><office:body><office:text>`
	contentFooter = `</office:text></office:body></office:document-content>`
)

// Write writes a package with one text:p per line. The mimetype entry is
// stored uncompressed as the first entry.
func Write(w io.Writer, text string) error {
	zw := zip.NewWriter(w)
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(mw, mimeType); err != nil {
		return err
	}
	for _, p := range []struct{ name, body string }{
		{"META-INF/manifest.xml", manifest},
		{contentPart, contentXML(text)},
	} {
		fw, err := zw.Create(p.name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(fw, p.body); err != nil {
			return err
		}
	}
	return zw.Close()
}

// WriteFile writes the package to path.
func WriteFile(path, text string) error {
	var buf bytes.Buffer
	if err := Write(&buf, text); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func contentXML(text string) string {
	var b strings.Builder
	b.WriteString(contentHeader)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("<text:p>")
		writeLine(&b, line)
		b.WriteString("</text:p>")
	}
	b.WriteString(contentFooter)
	return b.String()
}

// writeLine escapes line, encoding tabs and runs of spaces as elements
// since ODF collapses white space in character data.
func writeLine(b *strings.Builder, line string) {
	for i := 0; i < len(line); {
		switch line[i] {
		case '\t':
			b.WriteString("<text:tab/>")
			i++
		case ' ':
			n := 1
			for i+n < len(line) && line[i+n] == ' ' {
				n++
			}
			if n == 1 && i > 0 && i+1 < len(line) {
				b.WriteByte(' ')
			} else {
				fmt.Fprintf(b, `<text:s text:c="%d"/>`, n)
			}
			i += n
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			xml.EscapeText(b, []byte(line[i:j]))
			i = j
		}
	}
}
