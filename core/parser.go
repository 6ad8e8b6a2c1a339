package core

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// LengthResolver resolves an indirect /Length entry to its integer value.
type LengthResolver func(ref IndirectRef) (int, bool)

// Parser builds Objects from a Lexer's tokens.
type Parser struct {
	lex      *Lexer
	resolver LengthResolver
}

// NewParser returns a parser over data.
func NewParser(data []byte) *Parser {
	return &Parser{lex: NewLexer(data)}
}

// SetLengthResolver installs the callback used for indirect stream lengths.
func (p *Parser) SetLengthResolver(r LengthResolver) { p.resolver = r }

// Lexer exposes the underlying lexer for callers that need raw access.
func (p *Parser) Lexer() *Lexer { return p.lex }

// Seek moves the parser to an absolute offset.
func (p *Parser) Seek(pos int) { p.lex.Seek(pos) }

// ParseObject parses the next direct object. It returns io.EOF at the end of
// input and an error when an operator keyword is found instead.
func (p *Parser) ParseObject() (Object, error) {
	obj, kw, err := p.Next()
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("unexpected keyword %q at offset %d", kw, p.lex.Pos()-len(kw))
	}
	return obj, nil
}

// Next parses the next object. Bare keywords that are not null, true or
// false are returned in kw with a nil object, which is how content stream
// operators surface.
func (p *Parser) Next() (obj Object, kw string, err error) {
	tok, err := p.nextSignificant()
	if err != nil {
		return nil, "", err
	}
	switch tok.Type {
	case TokenEOF:
		return nil, "", io.EOF
	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, "", nil
		case "true":
			return Bool(true), "", nil
		case "false":
			return Bool(false), "", nil
		}
		return nil, string(tok.Value), nil
	case TokenInteger:
		return p.parseInteger(tok)
	case TokenReal:
		f, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid real %q at offset %d", tok.Value, tok.Pos)
		}
		return Real(f), "", nil
	case TokenString:
		return String(tok.Value), "", nil
	case TokenHexString:
		digits := tok.Value
		if len(digits)%2 == 1 {
			digits = append(append([]byte{}, digits...), '0')
		}
		raw := make([]byte, len(digits)/2)
		if _, err := hex.Decode(raw, digits); err != nil {
			return nil, "", fmt.Errorf("invalid hex string at offset %d: %w", tok.Pos, err)
		}
		return String(raw), "", nil
	case TokenName:
		return Name(tok.Value), "", nil
	case TokenArrayStart:
		arr, err := p.parseArray()
		return arr, "", err
	case TokenDictStart:
		d, err := p.parseDict()
		return d, "", err
	case TokenIndirectRef:
		return nil, "R", nil
	}
	return nil, "", fmt.Errorf("unexpected %v at offset %d", tok.Type, tok.Pos)
}

func (p *Parser) nextSignificant() (Token, error) {
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return Token{}, err
		}
		if tok.Type != TokenComment {
			return tok, nil
		}
	}
}

// parseInteger handles the "num gen R" lookahead, rewinding when the
// following tokens do not complete a reference.
func (p *Parser) parseInteger(tok Token) (Object, string, error) {
	n, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(tok.Value), 64)
		if ferr != nil {
			return nil, "", fmt.Errorf("invalid number %q at offset %d", tok.Value, tok.Pos)
		}
		return Real(f), "", nil
	}
	mark := p.lex.Pos()
	second, err := p.lex.NextToken()
	if err == nil && second.Type == TokenInteger {
		third, err := p.lex.NextToken()
		if err == nil && third.Type == TokenIndirectRef {
			gen, _ := strconv.Atoi(string(second.Value))
			return IndirectRef{Number: int(n), Generation: gen}, "", nil
		}
	}
	p.lex.Seek(mark)
	return Int(n), "", nil
}

func (p *Parser) parseArray() (Array, error) {
	arr := Array{}
	for {
		mark := p.lex.Pos()
		tok, err := p.nextSignificant()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, errors.New("unexpected EOF in array")
		}
		p.lex.Seek(mark)
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Dict, error) {
	dict := Dict{}
	for {
		tok, err := p.nextSignificant()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, errors.New("unexpected EOF in dictionary")
		case TokenName:
		default:
			return nil, fmt.Errorf("dictionary key must be a name, got %v at offset %d", tok.Type, tok.Pos)
		}
		key := string(tok.Value)
		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("dictionary value for /%s: %w", key, err)
		}
		// a null value is equivalent to an absent key
		if _, isNull := value.(Null); isNull {
			continue
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "num gen obj ... endobj" at the current
// position. A missing endobj is tolerated.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	numTok, err := p.nextSignificant()
	if err != nil {
		return nil, err
	}
	genTok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	objTok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	if numTok.Type != TokenInteger || genTok.Type != TokenInteger ||
		objTok.Type != TokenKeyword || string(objTok.Value) != "obj" {
		return nil, fmt.Errorf("no object header at offset %d", numTok.Pos)
	}
	num, _ := strconv.Atoi(string(numTok.Value))
	gen, _ := strconv.Atoi(string(genTok.Value))
	ref := IndirectRef{Number: num, Generation: gen}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object %v: %w", ref, err)
	}

	mark := p.lex.Pos()
	tok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenKeyword && string(tok.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("object %v: stream keyword after %v", ref, obj.Type())
		}
		s, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("object %v: %w", ref, err)
		}
		obj = s
		mark = p.lex.Pos()
		tok, err = p.lex.NextToken()
		if err != nil {
			return nil, err
		}
	}
	if tok.Type != TokenKeyword || string(tok.Value) != "endobj" {
		p.lex.Seek(mark)
	}
	return &IndirectObject{Ref: ref, Object: obj}, nil
}

var endstreamKeyword = []byte("endstream")

// parseStream reads stream data after the stream keyword. When /Length is
// missing or wrong the data is delimited by the next endstream instead.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	p.lex.SkipStreamEOL()
	start := p.lex.Pos()
	data := p.lex.Data()

	length := -1
	switch v := dict.Get("Length").(type) {
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolver != nil {
			if n, ok := p.resolver(v); ok {
				length = n
			}
		}
	}

	if length >= 0 && start+length <= len(data) {
		p.lex.Seek(start + length)
		mark := p.lex.Pos()
		tok, err := p.lex.NextToken()
		if err == nil && tok.Type == TokenKeyword && string(tok.Value) == "endstream" {
			return &Stream{Dict: dict, Data: data[start : start+length]}, nil
		}
		p.lex.Seek(mark)
	}

	idx := bytes.Index(data[start:], endstreamKeyword)
	if idx < 0 {
		return nil, fmt.Errorf("stream at offset %d has no endstream", start)
	}
	end := start + idx
	if end > start && data[end-1] == '\n' {
		end--
	}
	if end > start && data[end-1] == '\r' {
		end--
	}
	dict["Length"] = Int(end - start)
	p.lex.Seek(start + idx + len(endstreamKeyword))
	return &Stream{Dict: dict, Data: data[start:end]}, nil
}
