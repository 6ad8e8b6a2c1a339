package core

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tsawler/folio/internal/filters"
)

func TestLexerTokens(t *testing.T) {
	input := "%PDF-1.7\n<< /Type /Page /N#20a 12 -3.5 .5 (a\\(b\\)) <414 2> [ ] >> T* '"
	want := []struct {
		typ TokenType
		val string
	}{
		{TokenComment, "%PDF-1.7"},
		{TokenDictStart, "<<"},
		{TokenName, "Type"},
		{TokenName, "Page"},
		{TokenName, "N a"},
		{TokenInteger, "12"},
		{TokenReal, "-3.5"},
		{TokenReal, ".5"},
		{TokenString, "a(b)"},
		{TokenHexString, "4142"},
		{TokenArrayStart, "["},
		{TokenArrayEnd, "]"},
		{TokenDictEnd, ">>"},
		{TokenKeyword, "T*"},
		{TokenKeyword, "'"},
		{TokenEOF, ""},
	}
	lex := NewLexer([]byte(input))
	for i, w := range want {
		tok, err := lex.NextToken()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Type != w.typ || string(tok.Value) != w.val {
			t.Errorf("token %d = %v %q, want %v %q", i, tok.Type, tok.Value, w.typ, w.val)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`(plain)`, "plain"},
		{`(a\nb)`, "a\nb"},
		{`(\101\102C)`, "ABC"},
		{`(nested (parens) ok)`, "nested (parens) ok"},
		{"(line\\\ncontinued)", "linecontinued"},
		{"(cr\r\nlf)", "cr\nlf"},
		{`(\q)`, "q"},
	}
	for _, tt := range tests {
		tok, err := NewLexer([]byte(tt.in)).NextToken()
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if string(tok.Value) != tt.want {
			t.Errorf("%q = %q, want %q", tt.in, tok.Value, tt.want)
		}
	}
}

func TestLexerErrors(t *testing.T) {
	for _, in := range []string{"(open", "<41", "<4G>", "> x"} {
		if _, err := NewLexer([]byte(in)).NextToken(); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}

func TestParseObject(t *testing.T) {
	tests := []struct {
		in   string
		want Object
	}{
		{"null", Null{}},
		{"true", Bool(true)},
		{"42", Int(42)},
		{"-1.25", Real(-1.25)},
		{"(hi)", String("hi")},
		{"<6869>", String("hi")},
		{"/Name", Name("Name")},
		{"12 0 R", IndirectRef{Number: 12}},
		{"[1 2 0 R 3]", Array{Int(1), IndirectRef{Number: 2}, Int(3)}},
		{"[1 2 3]", Array{Int(1), Int(2), Int(3)}},
		{"<< /A 1 /B [/x] /C << /D 5 0 R >> /E null >>",
			Dict{"A": Int(1), "B": Array{Name("x")}, "C": Dict{"D": IndirectRef{Number: 5}}}},
	}
	for _, tt := range tests {
		got, err := NewParser([]byte(tt.in)).ParseObject()
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%q mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestParserNextReturnsOperators(t *testing.T) {
	p := NewParser([]byte("1 0 0 rg BT"))
	var ops []string
	var operands int
	for {
		obj, kw, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if obj == nil {
			ops = append(ops, kw)
		} else {
			operands++
		}
	}
	if diff := cmp.Diff([]string{"rg", "BT"}, ops); diff != "" {
		t.Errorf("operators mismatch:\n%s", diff)
	}
	if operands != 3 {
		t.Errorf("operands = %d, want 3", operands)
	}
}

func TestParseIndirectObjectStream(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact length", "4 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj", "hello"},
		{"wrong length", "4 0 obj\n<< /Length 99 >>\nstream\r\nhello\r\nendstream\nendobj", "hello"},
		{"missing length", "4 0 obj\n<< >>\nstream\nhi there\nendstream endobj", "hi there"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := NewParser([]byte(tt.in)).ParseIndirectObject()
			if err != nil {
				t.Fatal(err)
			}
			if obj.Ref != (IndirectRef{Number: 4}) {
				t.Errorf("ref = %v", obj.Ref)
			}
			s, ok := obj.Object.(*Stream)
			if !ok {
				t.Fatalf("got %T, want stream", obj.Object)
			}
			if string(s.Data) != tt.want {
				t.Errorf("data = %q, want %q", s.Data, tt.want)
			}
		})
	}
}

func TestParseIndirectLength(t *testing.T) {
	p := NewParser([]byte("7 0 obj << /Length 8 0 R >> stream\nabc\nendstream endobj"))
	p.SetLengthResolver(func(ref IndirectRef) (int, bool) {
		return 3, ref.Number == 8
	})
	obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(obj.Object.(*Stream).Data); got != "abc" {
		t.Errorf("data = %q", got)
	}
}

func TestWriteObjectRoundTrip(t *testing.T) {
	obj := Dict{
		"Type":   Name("Page"),
		"Odd":    Name("a b#c"),
		"Box":    Array{Int(0), Real(0.5), Real(612.5), Int(792)},
		"Text":   String("paren ( ) \\ and\nnewline"),
		"Binary": String([]byte{0, 0xff, 'A'}),
		"Ref":    IndirectRef{Number: 3},
		"Flag":   Bool(false),
	}
	got, err := NewParser(Bytes(obj)).ParseObject()
	if err != nil {
		t.Fatalf("reparse %s: %v", Bytes(obj), err)
	}
	if diff := cmp.Diff(Object(obj), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteStreamLeavesDictAlone(t *testing.T) {
	s := &Stream{Dict: Dict{"Length": Int(99), "Type": Name("XObject")}, Data: []byte("abc")}
	got := string(Bytes(s))
	if !strings.Contains(got, "/Length 3") {
		t.Errorf("serialized stream %q lacks the real length", got)
	}
	if n, _ := s.Dict.GetInt("Length"); n != 99 {
		t.Errorf("Length in the caller's dict = %d, want 99", n)
	}

	bare := &Stream{Data: []byte("xy")}
	if got := string(Bytes(bare)); !strings.Contains(got, "/Length 2") {
		t.Errorf("stream without dict serialized as %q", got)
	}
	if bare.Dict != nil {
		t.Errorf("writing filled in the dict: %v", bare.Dict)
	}
}

func TestFormatReal(t *testing.T) {
	tests := map[float64]string{
		0:        "0",
		1.5:      "1.5",
		-0.0001:  "-0.0001",
		297.6378: "297.6378",
		1e-9:     "0",
		100:      "100",
	}
	for in, want := range tests {
		if got := FormatReal(in); got != want {
			t.Errorf("FormatReal(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDictKeysSorted(t *testing.T) {
	d := Dict{"b": Int(1), "a": Int(2), "c": Int(3)}
	if diff := cmp.Diff([]string{"a", "b", "c"}, d.Keys()); diff != "" {
		t.Error(diff)
	}
	if got := string(Bytes(d)); got != "<</a 2/b 1/c 3>>" {
		t.Errorf("serialized = %q", got)
	}
}

func TestObjectStreamRoundTrip(t *testing.T) {
	objs := []IndirectObject{
		{Ref: IndirectRef{Number: 3}, Object: Dict{"Type": Name("Font")}},
		{Ref: IndirectRef{Number: 9}, Object: Array{Int(1), Int(2)}},
		{Ref: IndirectRef{Number: 4}, Object: Int(7)},
	}
	s, err := BuildObjectStream(objs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Compress(zlib.BestCompression); err != nil {
		t.Fatal(err)
	}
	os, err := NewObjectStream(s)
	if err != nil {
		t.Fatal(err)
	}
	if os.N() != 3 {
		t.Fatalf("N = %d", os.N())
	}
	for i, want := range objs {
		got, num, err := os.ObjectAt(i)
		if err != nil {
			t.Fatal(err)
		}
		if num != want.Ref.Number {
			t.Errorf("index %d number = %d, want %d", i, num, want.Ref.Number)
		}
		if diff := cmp.Diff(want.Object, got); diff != "" {
			t.Errorf("index %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestBuildObjectStreamRejectsStreams(t *testing.T) {
	_, err := BuildObjectStream([]IndirectObject{{Ref: IndirectRef{Number: 1}, Object: NewStream(nil, nil)}})
	if err == nil {
		t.Error("expected error")
	}
}

func TestStreamDecodeChain(t *testing.T) {
	inner, err := filters.FlateEncode([]byte("payload"), zlib.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	hexed := []byte(fmt.Sprintf("%X>", inner))
	s := NewStream(Dict{"Filter": Array{Name("ASCIIHexDecode"), Name("FlateDecode")}}, hexed)
	got, err := s.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("decoded = %q", got)
	}
	if diff := cmp.Diff([]string{"ASCIIHexDecode", "FlateDecode"}, s.Filters()); diff != "" {
		t.Error(diff)
	}
}

func TestStreamDecodeUnsupported(t *testing.T) {
	s := NewStream(Dict{"Filter": Name("JBIG2Decode")}, []byte("x"))
	if _, err := s.Decode(); !errors.Is(err, ErrUnsupportedFilter) {
		t.Errorf("Decode() error = %v, want ErrUnsupportedFilter", err)
	}
}

func TestStreamCompressSkipsFiltered(t *testing.T) {
	s := NewStream(Dict{"Filter": Name("DCTDecode")}, []byte("jpeg"))
	changed, err := s.Compress(zlib.BestCompression)
	if err != nil || changed {
		t.Errorf("changed=%v err=%v, want untouched", changed, err)
	}
	plain := NewStream(nil, bytes.Repeat([]byte("q Q "), 100))
	changed, err = plain.Compress(zlib.BestCompression)
	if err != nil || !changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	if n, _ := plain.Dict.GetInt("Length"); int(n) != len(plain.Data) {
		t.Errorf("Length %d does not match data %d", n, len(plain.Data))
	}
	got, _ := plain.Decode()
	if !bytes.Equal(got, bytes.Repeat([]byte("q Q "), 100)) {
		t.Error("compressed stream does not decode to original")
	}
}
