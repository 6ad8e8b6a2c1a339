package contentstream

import (
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"

	"github.com/tsawler/folio/core"
)

// kernSpace is the TJ displacement, in thousandths of an em, beyond which
// a word break is assumed.
const kernSpace = -200

// ExtractText returns the text shown by the content stream in data, one
// line per text line. Strings that start with a UTF-16 byte order mark are
// decoded as UTF-16BE; all others as WinAnsiEncoding.
func ExtractText(data []byte) (string, error) {
	ops, err := Parse(data)
	if err != nil {
		return "", err
	}
	return TextOf(ops), nil
}

// TextOf returns the text shown by ops.
func TextOf(ops []Operation) string {
	var b strings.Builder
	line := false
	newline := func() {
		if line {
			b.WriteByte('\n')
			line = false
		}
	}
	show := func(s core.String) {
		text := decodeString(s)
		if text != "" {
			b.WriteString(text)
			line = true
		}
	}
	for _, op := range ops {
		switch op.Operator {
		case "Tj":
			if s, ok := lastString(op.Operands); ok {
				show(s)
			}
		case "TJ":
			if len(op.Operands) == 0 {
				continue
			}
			arr, _ := op.Operands[0].(core.Array)
			for _, el := range arr {
				switch v := el.(type) {
				case core.String:
					show(v)
				default:
					if n, ok := core.Number(v); ok && n < kernSpace && line {
						b.WriteByte(' ')
					}
				}
			}
		case "'", "\"":
			newline()
			if s, ok := lastString(op.Operands); ok {
				show(s)
			}
		case "T*", "ET":
			newline()
		case "Td", "TD":
			if len(op.Operands) == 2 {
				if ty, ok := core.Number(op.Operands[1]); ok && ty != 0 {
					newline()
				}
			}
		case "Tm":
			newline()
		}
	}
	newline()
	return b.String()
}

func lastString(operands []core.Object) (core.String, bool) {
	if len(operands) == 0 {
		return "", false
	}
	s, ok := operands[len(operands)-1].(core.String)
	return s, ok
}

func decodeString(s core.String) string {
	if len(s) >= 2 && s[0] == 0xFE && s[1] == 0xFF {
		units := make([]uint16, 0, (len(s)-2)/2)
		for i := 2; i+1 < len(s); i += 2 {
			units = append(units, uint16(s[i])<<8|uint16(s[i+1]))
		}
		return string(utf16.Decode(units))
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes([]byte(s))
	if err != nil {
		return string(s)
	}
	return string(out)
}
