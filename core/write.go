package core

import (
	"bytes"
	"strconv"
)

// WriteObject appends the PDF syntax for obj to buf. Streams are written
// with their dictionary followed by the stream body.
func WriteObject(buf *bytes.Buffer, obj Object) {
	switch v := obj.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(v.String())
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		buf.WriteString(FormatReal(float64(v)))
	case String:
		writeString(buf, []byte(v))
	case Name:
		writeName(buf, string(v))
	case Array:
		buf.WriteByte('[')
		for i, el := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			WriteObject(buf, el)
		}
		buf.WriteByte(']')
	case Dict:
		buf.WriteString("<<")
		for _, k := range v.Keys() {
			writeName(buf, k)
			buf.WriteByte(' ')
			WriteObject(buf, v[k])
		}
		buf.WriteString(">>")
	case *Stream:
		dict := v.Dict.Clone()
		dict["Length"] = Int(len(v.Data))
		WriteObject(buf, dict)
		buf.WriteString("\nstream\r\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	case IndirectRef:
		buf.WriteString(strconv.Itoa(v.Number))
		buf.WriteByte(' ')
		buf.WriteString(strconv.Itoa(v.Generation))
		buf.WriteString(" R")
	}
}

// Bytes returns the PDF syntax for obj.
func Bytes(obj Object) []byte {
	var buf bytes.Buffer
	WriteObject(&buf, obj)
	return buf.Bytes()
}

// FormatReal prints a number without exponent and with at most five
// decimals, trimming trailing zeros.
func FormatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', 5, 64)
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	if s == "-0" {
		return "0"
	}
	return s
}

func writeString(buf *bytes.Buffer, s []byte) {
	printable := true
	for _, b := range s {
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' || b > 0x7e {
			printable = false
			break
		}
	}
	if !printable {
		const digits = "0123456789ABCDEF"
		buf.WriteByte('<')
		for _, b := range s {
			buf.WriteByte(digits[b>>4])
			buf.WriteByte(digits[b&0x0f])
		}
		buf.WriteByte('>')
		return
	}
	buf.WriteByte('(')
	for _, b := range s {
		switch b {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte(')')
}

func writeName(buf *bytes.Buffer, name string) {
	const digits = "0123456789ABCDEF"
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b < 0x21 || b > 0x7e || b == '#' || isDelimiter(b) {
			buf.WriteByte('#')
			buf.WriteByte(digits[b>>4])
			buf.WriteByte(digits[b&0x0f])
			continue
		}
		buf.WriteByte(b)
	}
}
