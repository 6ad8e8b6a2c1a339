package textpdf

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Encode converts s to WinAnsiEncoding bytes. Tabs become four spaces,
// other control characters and every rune outside the encoding become
// '?'. The second result counts the substitutions.
func Encode(s string) ([]byte, int) {
	s = norm.NFC.String(s)
	out := make([]byte, 0, len(s))
	lost := 0
	for _, r := range s {
		switch {
		case r == '\t':
			out = append(out, "    "...)
		case r >= 0x20 && r < 0x7f:
			out = append(out, byte(r))
		case r < 0xa0:
			// C0/C1 controls and DEL
			out = append(out, '?')
			lost++
		default:
			b, ok := charmap.Windows1252.EncodeRune(r)
			if !ok {
				b = '?'
				lost++
			}
			out = append(out, b)
		}
	}
	return out, lost
}
