package contentstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/folio/core"
)

// Operation is a single content stream instruction: an operator and the
// operands that preceded it.
type Operation struct {
	Operator string        // e.g. "Tj", "Tm", "q"
	Operands []core.Object // in stream order
}

// Op builds an Operation.
func Op(operator string, operands ...core.Object) Operation {
	return Operation{Operator: operator, Operands: operands}
}

// Parser splits a content stream into operations.
type Parser struct {
	p     *core.Parser
	data  []byte
	stack []core.Object
}

// NewParser creates a parser over data.
func NewParser(data []byte) *Parser {
	return &Parser{p: core.NewParser(data), data: data}
}

// Parse parses data in one call.
func Parse(data []byte) ([]Operation, error) {
	return NewParser(data).Parse()
}

// Parse returns every operation in order. Operands left over at the end of
// the stream are discarded.
func (p *Parser) Parse() ([]Operation, error) {
	var ops []Operation
	for {
		obj, kw, err := p.p.Next()
		if errors.Is(err, io.EOF) {
			return ops, nil
		}
		if err != nil {
			return nil, fmt.Errorf("content stream at offset %d: %w", p.p.Lexer().Pos(), err)
		}
		if kw == "" {
			p.stack = append(p.stack, obj)
			continue
		}
		if kw == "BI" {
			op, err := p.inlineImage()
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
			continue
		}
		ops = append(ops, Operation{Operator: kw, Operands: p.stack})
		p.stack = nil
	}
}

// inlineImage reads the key/value pairs after BI, then the raw bytes
// between ID and EI.
func (p *Parser) inlineImage() (Operation, error) {
	dict := core.Dict{}
	var key string
	for {
		obj, kw, err := p.p.Next()
		if err != nil {
			return Operation{}, fmt.Errorf("inline image: %w", err)
		}
		if kw == "ID" {
			break
		}
		if kw != "" {
			return Operation{}, fmt.Errorf("inline image: unexpected operator %q", kw)
		}
		if key == "" {
			name, ok := obj.(core.Name)
			if !ok {
				return Operation{}, fmt.Errorf("inline image: key %v is not a name", obj)
			}
			key = string(name)
			continue
		}
		dict[key] = obj
		key = ""
	}

	lex := p.p.Lexer()
	start := lex.Pos()
	// a single whitespace byte separates ID from the data
	if start < len(p.data) && isWhite(p.data[start]) {
		start++
	}
	end := findEI(p.data, start)
	if end < 0 {
		return Operation{}, errors.New("inline image: missing EI")
	}
	img := p.data[start:end]
	img = bytes.TrimRight(img, "\r\n \t")
	lex.Seek(end + 2)
	p.stack = nil
	return Operation{Operator: "BI", Operands: []core.Object{dict, core.String(img)}}, nil
}

// findEI locates an EI keyword delimited by whitespace (or the end of the
// data) at or after from.
func findEI(data []byte, from int) int {
	for i := from; i+1 < len(data); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		if i > from && !isWhite(data[i-1]) {
			continue
		}
		if i+2 < len(data) && !isWhite(data[i+2]) {
			continue
		}
		return i
	}
	return -1
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
