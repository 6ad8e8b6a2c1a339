package core

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// XRefEntryType distinguishes the three kinds of cross-reference entries.
type XRefEntryType int

const (
	XRefFree         XRefEntryType = iota // type 0
	XRefUncompressed                      // type 1: byte offset in the file
	XRefCompressed                        // type 2: stored in an object stream
)

// XRefEntry locates one object. For compressed entries StreamNumber and
// Index identify the containing object stream and position inside it.
type XRefEntry struct {
	Type         XRefEntryType
	Offset       int64
	Generation   int
	StreamNumber int
	Index        int
}

// XRefTable maps object numbers to locations together with the trailer
// that accompanied them.
type XRefTable struct {
	Entries map[int]XRefEntry
	Trailer Dict
}

// NewXRefTable returns an empty table.
func NewXRefTable() *XRefTable {
	return &XRefTable{Entries: make(map[int]XRefEntry), Trailer: Dict{}}
}

// ErrNoStartXRef is returned when the startxref marker cannot be located.
var ErrNoStartXRef = errors.New("startxref not found")

// FindStartXRef returns the offset recorded after the last startxref.
func FindStartXRef(data []byte) (int, error) {
	tail := data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, ErrNoStartXRef
	}
	lex := NewLexer(tail[idx+len("startxref"):])
	tok, err := lex.NextToken()
	if err != nil || tok.Type != TokenInteger {
		return 0, fmt.Errorf("%w: no offset after marker", ErrNoStartXRef)
	}
	off, err := strconv.Atoi(string(tok.Value))
	if err != nil || off < 0 || off >= len(data) {
		return 0, fmt.Errorf("%w: offset %q out of range", ErrNoStartXRef, tok.Value)
	}
	return off, nil
}

// ParseXRefChain parses the section at offset and every section reachable
// through /Prev and /XRefStm. Entries from newer sections shadow older
// ones; the returned trailer is the newest one.
func ParseXRefChain(data []byte, offset int) (*XRefTable, error) {
	merged := NewXRefTable()
	seen := map[int]bool{}
	queue := []int{offset}
	first := true

	for len(queue) > 0 {
		off := queue[0]
		queue = queue[1:]
		if seen[off] {
			continue
		}
		seen[off] = true

		section, err := ParseXRefSection(data, off)
		if err != nil {
			if first {
				return nil, err
			}
			// a broken older section only loses history
			continue
		}
		for num, e := range section.Entries {
			if _, exists := merged.Entries[num]; !exists {
				merged.Entries[num] = e
			}
		}
		if first {
			merged.Trailer = section.Trailer
			first = false
		}
		if stm, ok := section.Trailer.GetInt("XRefStm"); ok {
			queue = append(queue, int(stm))
		}
		if prev, ok := section.Trailer.GetInt("Prev"); ok {
			queue = append(queue, int(prev))
		}
	}
	return merged, nil
}

// ParseXRefSection parses a single classic table or cross-reference stream.
func ParseXRefSection(data []byte, offset int) (*XRefTable, error) {
	if offset < 0 || offset >= len(data) {
		return nil, fmt.Errorf("xref offset %d out of range", offset)
	}
	lex := NewLexer(data)
	lex.Seek(offset)
	tok, err := lex.NextToken()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenKeyword && string(tok.Value) == "xref" {
		return parseXRefTable(lex)
	}
	if tok.Type == TokenInteger {
		p := &Parser{lex: lex}
		lex.Seek(tok.Pos)
		obj, err := p.ParseIndirectObject()
		if err != nil {
			return nil, fmt.Errorf("xref stream at %d: %w", offset, err)
		}
		s, ok := obj.Object.(*Stream)
		if !ok || !s.Dict.IsType("XRef") {
			return nil, fmt.Errorf("object at %d is not an xref stream", offset)
		}
		return ParseXRefStream(s)
	}
	return nil, fmt.Errorf("no xref section at offset %d", offset)
}

func parseXRefTable(lex *Lexer) (*XRefTable, error) {
	table := NewXRefTable()
	p := &Parser{lex: lex}
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenKeyword && string(tok.Value) == "trailer" {
			obj, err := p.ParseObject()
			if err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
			d, ok := obj.(Dict)
			if !ok {
				return nil, fmt.Errorf("trailer is %v, not a dictionary", obj.Type())
			}
			table.Trailer = d
			return table, nil
		}
		if tok.Type != TokenInteger {
			return nil, fmt.Errorf("bad xref subsection header at offset %d", tok.Pos)
		}
		countTok, err := lex.NextToken()
		if err != nil || countTok.Type != TokenInteger {
			return nil, fmt.Errorf("bad xref subsection count at offset %d", tok.Pos)
		}
		start, _ := strconv.Atoi(string(tok.Value))
		count, _ := strconv.Atoi(string(countTok.Value))
		for i := 0; i < count; i++ {
			offTok, _ := lex.NextToken()
			genTok, _ := lex.NextToken()
			flagTok, _ := lex.NextToken()
			if offTok.Type != TokenInteger || genTok.Type != TokenInteger || flagTok.Type != TokenKeyword {
				return nil, fmt.Errorf("bad xref entry %d at offset %d", start+i, offTok.Pos)
			}
			off, _ := strconv.ParseInt(string(offTok.Value), 10, 64)
			gen, _ := strconv.Atoi(string(genTok.Value))
			entry := XRefEntry{Offset: off, Generation: gen}
			switch string(flagTok.Value) {
			case "n":
				entry.Type = XRefUncompressed
			case "f":
				entry.Type = XRefFree
			default:
				return nil, fmt.Errorf("bad xref flag %q for object %d", flagTok.Value, start+i)
			}
			if _, dup := table.Entries[start+i]; !dup {
				table.Entries[start+i] = entry
			}
		}
	}
}

// ParseXRefStream decodes a /Type /XRef stream. The stream dictionary
// doubles as the trailer.
func ParseXRefStream(s *Stream) (*XRefTable, error) {
	decoded, err := s.Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding xref stream: %w", err)
	}
	wArr, ok := s.Dict.GetArray("W")
	if !ok || len(wArr) != 3 {
		return nil, errors.New("xref stream missing /W")
	}
	var w [3]int
	for i, v := range wArr {
		n, ok := v.(Int)
		if !ok || n < 0 || n > 8 {
			return nil, fmt.Errorf("invalid /W entry %v", v)
		}
		w[i] = int(n)
	}
	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return nil, errors.New("xref stream /W is all zero")
	}

	size, _ := s.Dict.GetInt("Size")
	index := Array{Int(0), size}
	if idx, ok := s.Dict.GetArray("Index"); ok && len(idx)%2 == 0 {
		index = idx
	}

	table := NewXRefTable()
	table.Trailer = s.Dict
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, _ := index[i].(Int)
		count, _ := index[i+1].(Int)
		for j := 0; j < int(count); j++ {
			if pos+rowLen > len(decoded) {
				return table, nil
			}
			row := decoded[pos : pos+rowLen]
			pos += rowLen
			typ := int64(1) // absent type field defaults to 1
			if w[0] > 0 {
				typ = readBigEndian(row[:w[0]])
			}
			f2 := readBigEndian(row[w[0] : w[0]+w[1]])
			f3 := readBigEndian(row[w[0]+w[1]:])
			num := int(start) + j
			var e XRefEntry
			switch typ {
			case 0:
				e = XRefEntry{Type: XRefFree, Offset: f2, Generation: int(f3)}
			case 1:
				e = XRefEntry{Type: XRefUncompressed, Offset: f2, Generation: int(f3)}
			case 2:
				e = XRefEntry{Type: XRefCompressed, StreamNumber: int(f2), Index: int(f3)}
			default:
				continue
			}
			table.Entries[num] = e
		}
	}
	return table, nil
}

func readBigEndian(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

var objHeader = regexp.MustCompile(`(?m)(?:^|[\r\n\s])(\d+)\s+(\d+)\s+obj\b`)

// ScanObjects rebuilds a table by scanning the file body for object headers.
// It is the fallback for files whose xref data is missing or corrupt. The
// trailer is taken from the last "trailer" dictionary when one exists.
func ScanObjects(data []byte) *XRefTable {
	table := NewXRefTable()
	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		// later definitions win, matching incremental update order
		table.Entries[num] = XRefEntry{Type: XRefUncompressed, Offset: int64(m[2]), Generation: gen}
	}
	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		p := NewParser(data)
		p.Seek(idx + len("trailer"))
		if obj, err := p.ParseObject(); err == nil {
			if d, ok := obj.(Dict); ok {
				table.Trailer = d
			}
		}
	}
	return table
}
