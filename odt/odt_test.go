package odt

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildPackage(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(contentPart)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func content(inner string) string {
	return `<?xml version="1.0"?><office:document-content xmlns:office="` + nsOffice + `" xmlns:text="` + nsText +
		`"><office:automatic-styles><style>ignored</style></office:automatic-styles><office:body><office:text>` +
		inner + `</office:text></office:body></office:document-content>`
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		want  string
	}{
		{
			name:  "paragraph and heading",
			inner: `<text:h text:outline-level="1">Title</text:h><text:p>Body text</text:p>`,
			want:  "Title\n\nBody text",
		},
		{
			name:  "spans and links",
			inner: `<text:p>Go to <text:span>the <text:a>site</text:a></text:span>.</text:p>`,
			want:  "Go to the site.",
		},
		{
			name:  "spaces tabs breaks",
			inner: `<text:p>a<text:s/>b<text:s text:c="3"/>c<text:tab/>d<text:line-break/>e</text:p>`,
			want:  "a b   c\td\ne",
		},
		{
			name:  "lists",
			inner: `<text:list><text:list-item><text:p>one</text:p></text:list-item><text:list-item><text:p>two</text:p></text:list-item></text:list>`,
			want:  "one\n\ntwo",
		},
		{
			name:  "empty paragraphs collapse",
			inner: `<text:p>x</text:p><text:p/><text:p/><text:p>y</text:p>`,
			want:  "x\n\ny",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildPackage(t, content(tt.inner))
			got, err := ExtractTextFrom(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("ExtractTextFrom: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeadingLevels(t *testing.T) {
	data := buildPackage(t, content(`<text:h text:outline-level="2">Sub</text:h><text:h>Plain</text:h><text:p>p</text:p>`))
	got, err := ParagraphsFrom(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	want := []Paragraph{{"Sub", 2}, {"Plain", 1}, {"p", 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestMissingContent(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.Create("meta.xml")
	zw.Close()
	data := buf.Bytes()
	if _, err := ExtractTextFrom(bytes.NewReader(data), int64(len(data))); !errors.Is(err, ErrNoContent) {
		t.Errorf("got %v, want ErrNoContent", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.odt")
	text := "Hello  world\n\tTabbed & <escaped>\n  lead"
	if err := WriteFile(path, text); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	paras, err := Paragraphs(path)
	if err != nil {
		t.Fatal(err)
	}
	var lines []string
	for _, p := range paras {
		lines = append(lines, p.Text)
	}
	want := []string{"Hello  world", "\tTabbed & <escaped>", "  lead"}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
}

func TestMimetypeFirstAndStored(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "x"); err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	first := zr.File[0]
	if first.Name != "mimetype" || first.Method != zip.Store {
		t.Fatalf("first entry = %s (method %d)", first.Name, first.Method)
	}
	rc, _ := first.Open()
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != mimeType {
		t.Errorf("mimetype = %q", data)
	}
}
