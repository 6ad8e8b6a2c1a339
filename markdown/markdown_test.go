package markdown

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tsawler/folio/textpdf"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"heading", "# Title", []string{"<h1>Title</h1>"}},
		{"emphasis", "some *em* and **strong**", []string{"<em>em</em>", "<strong>strong</strong>"}},
		{"strikethrough", "~~gone~~", []string{"<del>gone</del>"}},
		{"table", "| A | B |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<th>A</th>", "<td>2</td>"}},
		{"task list", "- [x] done\n- [ ] open", []string{`type="checkbox"`, "checked"}},
		{"code", "```\nx := 1\n```", []string{"<pre><code>x := 1\n</code></pre>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("ToHTML(%q) = %q, missing %q", tt.src, got, w)
				}
			}
		})
	}
}

func TestToHTMLOmitsRawHTML(t *testing.T) {
	got, err := ToHTML("<script>alert(1)</script>\n\ntext")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML passed through: %q", got)
	}
}

func TestToText(t *testing.T) {
	got, err := ToText("# Title\n\nSome **bold** text & more.\n\n- one\n- two")
	if err != nil {
		t.Fatal(err)
	}
	want := "Title\nSome bold text & more.\n\none\ntwo"
	if got != want {
		t.Errorf("ToText() = %q, want %q", got, want)
	}
}

func TestToBlocks(t *testing.T) {
	got, err := ToBlocks("# Title\n\nFirst paragraph.\n\n## Next\n\n1. a\n2. b")
	if err != nil {
		t.Fatal(err)
	}
	want := []textpdf.Block{
		{Text: "Title", Bold: true},
		{},
		{Text: "First paragraph."},
		{},
		{Text: "Next", Bold: true},
		{},
		{Text: "- a"},
		{Text: "- b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToBlocks() mismatch (-want +got):\n%s", diff)
	}
}
