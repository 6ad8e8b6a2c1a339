package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// ObjectStream is a decoded /Type /ObjStm stream (PDF 1.5).
type ObjectStream struct {
	numbers []int
	objects []Object
}

// NewObjectStream decodes s and parses every object it holds.
func NewObjectStream(s *Stream) (*ObjectStream, error) {
	if s == nil {
		return nil, fmt.Errorf("object stream is nil")
	}
	if !s.Dict.IsType("ObjStm") {
		return nil, fmt.Errorf("stream is not an object stream")
	}
	n, ok := s.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N")
	}
	first, ok := s.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First")
	}
	decoded, err := s.Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding object stream: %w", err)
	}
	if int(first) > len(decoded) {
		return nil, fmt.Errorf("object stream /First %d beyond data length %d", first, len(decoded))
	}

	header := NewLexer(decoded[:first])
	offsets := make([]int, 0, n)
	os := &ObjectStream{numbers: make([]int, 0, n)}
	for i := 0; i < int(n); i++ {
		numTok, _ := header.NextToken()
		offTok, _ := header.NextToken()
		if numTok.Type != TokenInteger || offTok.Type != TokenInteger {
			return nil, fmt.Errorf("object stream header truncated at entry %d", i)
		}
		num, _ := strconv.Atoi(string(numTok.Value))
		off, _ := strconv.Atoi(string(offTok.Value))
		os.numbers = append(os.numbers, num)
		offsets = append(offsets, int(first)+off)
	}

	p := NewParser(decoded)
	for i, off := range offsets {
		if off >= len(decoded) {
			return nil, fmt.Errorf("object %d offset %d beyond data", os.numbers[i], off)
		}
		p.Seek(off)
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("object %d in object stream: %w", os.numbers[i], err)
		}
		os.objects = append(os.objects, obj)
	}
	return os, nil
}

// N returns the number of objects held.
func (os *ObjectStream) N() int { return len(os.numbers) }

// ObjectAt returns the object at index together with its object number.
func (os *ObjectStream) ObjectAt(index int) (Object, int, error) {
	if index < 0 || index >= len(os.objects) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(os.objects))
	}
	return os.objects[index], os.numbers[index], nil
}

// BuildObjectStream packs the given objects into a new, uncompressed
// object stream. None of the objects may be a stream.
func BuildObjectStream(objs []IndirectObject) (*Stream, error) {
	var header, body bytes.Buffer
	for i, o := range objs {
		if _, isStream := o.Object.(*Stream); isStream {
			return nil, fmt.Errorf("object %v is a stream and cannot be packed", o.Ref)
		}
		if o.Ref.Generation != 0 {
			return nil, fmt.Errorf("object %v has non-zero generation", o.Ref)
		}
		if i > 0 {
			header.WriteByte(' ')
			body.WriteByte('\n')
		}
		header.WriteString(strconv.Itoa(o.Ref.Number))
		header.WriteByte(' ')
		header.WriteString(strconv.Itoa(body.Len()))
		WriteObject(&body, o.Object)
	}
	header.WriteByte('\n')
	first := header.Len()
	header.Write(body.Bytes())
	return NewStream(Dict{
		"Type":  Name("ObjStm"),
		"N":     Int(len(objs)),
		"First": Int(first),
	}, header.Bytes()), nil
}
