package htmldoc

import "strings"

// entities is the complete set of references StripTags decodes.
var entities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripTags removes everything between '<' and the next '>' and decodes a
// small fixed set of character references. It has no notion of block
// elements, so adjacent paragraphs are not separated.
func StripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return entities.Replace(b.String())
}
