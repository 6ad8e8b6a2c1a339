package core

import (
	"bytes"
	"fmt"
)

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, endobj, stream, operators
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R
)

var tokenTypeNames = [...]string{
	TokenEOF:         "EOF",
	TokenComment:     "Comment",
	TokenKeyword:     "Keyword",
	TokenInteger:     "Integer",
	TokenReal:        "Real",
	TokenString:      "String",
	TokenHexString:   "HexString",
	TokenName:        "Name",
	TokenArrayStart:  "ArrayStart",
	TokenArrayEnd:    "ArrayEnd",
	TokenDictStart:   "DictStart",
	TokenDictEnd:     "DictEnd",
	TokenIndirectRef: "IndirectRef",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenTypeNames) {
		return "Unknown"
	}
	return tokenTypeNames[t]
}

// Token is one lexical unit. Value holds the decoded payload for strings,
// hex digits for hex strings and the raw text otherwise.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int
}

// Lexer tokenizes PDF syntax held in memory. Random access via Seek lets
// the loader jump to xref offsets without re-reading the file.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer returns a lexer positioned at the start of data.
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Pos returns the current byte offset.
func (l *Lexer) Pos() int { return l.pos }

// Seek moves to an absolute offset.
func (l *Lexer) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(l.data) {
		pos = len(l.data)
	}
	l.pos = pos
}

// Data returns the underlying buffer.
func (l *Lexer) Data() []byte { return l.data }

// NextToken returns the next token, skipping whitespace.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.data) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	b := l.data[l.pos]
	switch b {
	case '%':
		return l.readComment(), nil
	case '[':
		l.pos++
		return Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: start}, nil
	case ']':
		l.pos++
		return Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if l.at(1) == '<' {
			l.pos += 2
			return Token{Type: TokenDictStart, Value: []byte("<<"), Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if l.at(1) == '>' {
			l.pos += 2
			return Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: start}, nil
		}
		return Token{}, fmt.Errorf("unexpected '>' at offset %d", start)
	case '/':
		return l.readName()
	case ')', '{', '}':
		l.pos++
		return Token{Type: TokenKeyword, Value: []byte{b}, Pos: start}, nil
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		if tok, ok := l.readNumber(); ok {
			return tok, nil
		}
	}
	return l.readKeyword(), nil
}

// at returns the byte n positions ahead, or 0 past the end.
func (l *Lexer) at(n int) byte {
	if l.pos+n >= len(l.data) {
		return 0
	}
	return l.data[l.pos+n]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) readComment() Token {
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
		l.pos++
	}
	return Token{Type: TokenComment, Value: l.data[start:l.pos], Pos: start}
}

func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.pos++ // (
	var buf bytes.Buffer
	depth := 1
	for {
		if l.pos >= len(l.data) {
			return Token{}, fmt.Errorf("unterminated string at offset %d", start)
		}
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
			buf.WriteByte(b)
		case '\\':
			l.readEscape(&buf)
		case '\r':
			// a bare end-of-line in a literal string reads as LF
			if l.at(0) == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
}

func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.pos >= len(l.data) {
		return
	}
	next := l.data[l.pos]
	l.pos++
	switch next {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		if l.at(0) == '\n' {
			l.pos++
		}
	case '\n':
	default:
		if isOctalDigit(next) {
			val := int(next - '0')
			for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
				val = val*8 + int(l.data[l.pos]-'0')
				l.pos++
			}
			buf.WriteByte(byte(val))
			return
		}
		buf.WriteByte(next)
	}
}

func (l *Lexer) readHexString() (Token, error) {
	start := l.pos
	l.pos++ // <
	var buf bytes.Buffer
	for {
		if l.pos >= len(l.data) {
			return Token{}, fmt.Errorf("unterminated hex string at offset %d", start)
		}
		b := l.data[l.pos]
		l.pos++
		switch {
		case b == '>':
			return Token{Type: TokenHexString, Value: buf.Bytes(), Pos: start}, nil
		case isWhitespace(b):
		case isHexDigit(b):
			buf.WriteByte(b)
		default:
			return Token{}, fmt.Errorf("invalid hex digit %q at offset %d", b, l.pos-1)
		}
	}
}

func (l *Lexer) readName() (Token, error) {
	start := l.pos
	l.pos++ // /
	var buf bytes.Buffer
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
		if b == '#' && l.pos+1 < len(l.data) && isHexDigit(l.data[l.pos]) && isHexDigit(l.data[l.pos+1]) {
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		buf.WriteByte(b)
	}
	return Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

// readNumber consumes a numeric token. It reports false and leaves the
// position untouched when the bytes do not form a number (a lone "-").
func (l *Lexer) readNumber() (Token, bool) {
	start := l.pos
	i := l.pos
	if l.data[i] == '+' || l.data[i] == '-' {
		i++
	}
	digits, dot := 0, false
	for i < len(l.data) {
		b := l.data[i]
		if isDigit(b) {
			digits++
		} else if b == '.' && !dot {
			dot = true
		} else {
			break
		}
		i++
	}
	if digits == 0 {
		return Token{}, false
	}
	l.pos = i
	typ := TokenInteger
	if dot {
		typ = TokenReal
	}
	return Token{Type: typ, Value: l.data[start:i], Pos: start}, true
}

func (l *Lexer) readKeyword() Token {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	if l.pos == start {
		// a stray delimiter; consume it so the caller makes progress
		l.pos++
	}
	value := l.data[start:l.pos]
	if len(value) == 1 && value[0] == 'R' {
		return Token{Type: TokenIndirectRef, Value: value, Pos: start}
	}
	return Token{Type: TokenKeyword, Value: value, Pos: start}
}

// SkipStreamEOL consumes the end-of-line that must follow the stream
// keyword: CRLF, LF, or (tolerated) a lone CR.
func (l *Lexer) SkipStreamEOL() {
	for l.pos < len(l.data) && (l.data[l.pos] == ' ' || l.data[l.pos] == '\t') {
		l.pos++
	}
	switch l.at(0) {
	case '\r':
		l.pos++
		if l.at(0) == '\n' {
			l.pos++
		}
	case '\n':
		l.pos++
	}
}

// ReadBytes returns the next n bytes verbatim.
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || l.pos+n > len(l.data) {
		return nil, fmt.Errorf("unexpected EOF: need %d bytes at offset %d, have %d", n, l.pos, len(l.data)-l.pos)
	}
	out := l.data[l.pos : l.pos+n]
	l.pos += n
	return out, nil
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isOctalDigit(b byte) bool { return b >= '0' && b <= '7' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case isDigit(b):
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
