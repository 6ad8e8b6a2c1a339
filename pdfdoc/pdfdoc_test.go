package pdfdoc

import (
	"bytes"
	"crypto/rc4"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
)

// sampleDoc builds a document with n pages sharing one font, each with its
// own content stream, plus an Info dictionary and an orphan object.
func sampleDoc(t *testing.T, n int) *Document {
	t.Helper()
	d := New()
	font := d.Add(core.Dict{"Type": core.Name("Font"), "Subtype": core.Name("Type1"), "BaseFont": core.Name("Helvetica")})
	rootRef := d.Add(core.Dict{})
	var kids core.Array
	for i := 1; i <= n; i++ {
		content := d.Add(core.NewStream(core.Dict{}, []byte(fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Page %d) Tj ET", i))))
		page := d.Add(core.Dict{
			"Type":      core.Name("Page"),
			"Parent":    rootRef,
			"Contents":  content,
			"Resources": core.Dict{"Font": core.Dict{"F1": font}},
		})
		kids = append(kids, page)
	}
	d.Set(rootRef, core.Dict{
		"Type":     core.Name("Pages"),
		"Kids":     kids,
		"Count":    core.Int(n),
		"MediaBox": core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
	})
	cat := d.Add(core.Dict{"Type": core.Name("Catalog"), "Pages": rootRef})
	info := d.Add(core.Dict{"Title": core.String("Sample")})
	d.Add(core.Dict{"Orphan": core.Bool(true)})
	d.Trailer["Root"] = cat
	d.Trailer["Info"] = info
	return d
}

func pageCount(t *testing.T, d *Document) int {
	t.Helper()
	cat, ok := d.Catalog()
	if !ok {
		t.Fatal("no catalog")
	}
	root, ok := d.Dict(cat.Get("Pages"))
	if !ok {
		t.Fatal("no page tree")
	}
	kids, _ := d.Array(root.Get("Kids"))
	return len(kids)
}

func pageText(t *testing.T, d *Document, i int) string {
	t.Helper()
	cat, _ := d.Catalog()
	root, _ := d.Dict(cat.Get("Pages"))
	kids, _ := d.Array(root.Get("Kids"))
	page, _ := d.Dict(kids[i])
	s, ok := d.Stream(page.Get("Contents"))
	if !ok {
		t.Fatalf("page %d has no content stream", i+1)
	}
	data, err := s.Decode()
	if err != nil {
		t.Fatalf("decode page %d: %v", i+1, err)
	}
	return string(data)
}

func TestSaveLoadClassic(t *testing.T) {
	src := sampleDoc(t, 3)
	data, err := src.Bytes(SaveOptions{})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.7\n")) {
		t.Errorf("unexpected header %q", data[:12])
	}
	if !bytes.Contains(data, []byte("\nxref\n")) {
		t.Error("classic save should write an xref table")
	}

	doc, err := Load(data, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Skipped != 0 {
		t.Errorf("Skipped = %d", doc.Skipped)
	}
	if got := pageCount(t, doc); got != 3 {
		t.Errorf("pages = %d, want 3", got)
	}
	if got := pageText(t, doc, 1); got != "BT /F1 12 Tf 72 720 Td (Page 2) Tj ET" {
		t.Errorf("page 2 content = %q", got)
	}
	if diff := cmp.Diff(src.Refs(), doc.Refs()); diff != "" {
		t.Errorf("identities changed (-want +got):\n%s", diff)
	}
}

func TestSaveLoadCompressed(t *testing.T) {
	src := sampleDoc(t, 4)
	data, err := src.Bytes(SaveOptions{Compress: true})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.7")) {
		t.Errorf("version should be kept at 1.7")
	}
	if !bytes.Contains(data, []byte("/ObjStm")) || !bytes.Contains(data, []byte("/XRef")) {
		t.Error("compressed save should use object and cross-reference streams")
	}

	doc, err := Load(data, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := pageCount(t, doc); got != 4 {
		t.Errorf("pages = %d, want 4", got)
	}
	if got := pageText(t, doc, 3); got != "BT /F1 12 Tf 72 720 Td (Page 4) Tj ET" {
		t.Errorf("page 4 content = %q", got)
	}
	// object and cross-reference streams are not kept as objects
	for _, ref := range doc.Refs() {
		if s, ok := doc.Stream(ref); ok && (s.Dict.IsType("ObjStm") || s.Dict.IsType("XRef")) {
			t.Errorf("container %v survived load", ref)
		}
	}
}

func TestCompressBumpsVersion(t *testing.T) {
	src := sampleDoc(t, 1)
	src.Version = "1.4"
	data, err := src.Bytes(SaveOptions{Compress: true})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.5")) {
		t.Errorf("header = %q, want %%PDF-1.5", data[:8])
	}
}

func TestManyObjectsSpanStreams(t *testing.T) {
	src := sampleDoc(t, 150)
	data, err := src.Bytes(SaveOptions{Compress: true})
	if err != nil {
		t.Fatal(err)
	}
	if n := bytes.Count(data, []byte("/ObjStm")); n < 2 {
		t.Errorf("found %d object streams, want at least 2", n)
	}
	doc, err := Load(data, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := pageCount(t, doc); got != 150 {
		t.Errorf("pages = %d, want 150", got)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	src := sampleDoc(t, 2)
	opts := SaveOptions{Encrypt: &Encryption{
		UserPassword:  "user",
		OwnerPassword: "owner",
		Permissions:   Permissions(true, false),
	}}
	data, err := src.Bytes(opts)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if bytes.Contains(data, []byte("(Page 1) Tj")) {
		t.Error("content stored in clear")
	}
	if !bytes.Contains(data, []byte("/AESV2")) {
		t.Error("missing AESV2 crypt filter")
	}

	for _, pw := range []string{"user", "owner"} {
		t.Run(pw, func(t *testing.T) {
			doc, err := Load(data, LoadOptions{Password: pw})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !doc.Encrypted {
				t.Error("Encrypted flag not set")
			}
			if doc.Trailer.Has("Encrypt") {
				t.Error("trailer still has /Encrypt")
			}
			if got := pageText(t, doc, 0); got != "BT /F1 12 Tf 72 720 Td (Page 1) Tj ET" {
				t.Errorf("page 1 content = %q", got)
			}
			info, _ := doc.Dict(doc.Trailer.Get("Info"))
			if title, _ := info.GetString("Title"); title != "Sample" {
				t.Errorf("Title = %q", title)
			}
		})
	}

	_, err = Load(data, LoadOptions{Password: "wrong"})
	if !errors.Is(err, errs.ErrCrypto) {
		t.Errorf("wrong password: got %v, want crypto error", err)
	}
}

func TestEncryptEmptyUserPassword(t *testing.T) {
	src := sampleDoc(t, 1)
	data, err := src.Bytes(SaveOptions{Encrypt: &Encryption{OwnerPassword: "owner", Permissions: Permissions(false, false)}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Load(data, LoadOptions{}); err != nil {
		t.Errorf("empty user password should open: %v", err)
	}
}

func TestEncryptedPermissions(t *testing.T) {
	tests := []struct {
		print, copy bool
		want        int32
	}{
		{false, false, -3904},
		{true, false, -3904 | 1<<2 | 1<<11},
		{false, true, -3904 | 1<<4 | 1<<9},
		{true, true, -3904 | 1<<2 | 1<<4 | 1<<9 | 1<<11},
	}
	for _, tt := range tests {
		if got := Permissions(tt.print, tt.copy); got != tt.want {
			t.Errorf("Permissions(%v, %v) = %d, want %d", tt.print, tt.copy, got, tt.want)
		}
	}
}

// rc4File writes doc encrypted with the RC4 handler at the given revision.
func rc4File(t *testing.T, doc *Document, r int, user, owner string) []byte {
	t.Helper()
	doc.ensureID()
	h := &securityHandler{v: 2, r: r, keyLen: 16, p: Permissions(true, true), id0: doc.fileID(), encryptMetadata: true}
	if r == 2 {
		h.v, h.keyLen = 1, 5
	}
	h.o = padPassword([]byte(user))
	if r == 2 {
		c, err := rc4.NewCipher(h.ownerKey([]byte(owner)))
		if err != nil {
			t.Fatal(err)
		}
		c.XORKeyStream(h.o, h.o)
	} else {
		rc4Rounds(h.ownerKey([]byte(owner)), h.o, false)
	}
	h.key = h.fileKey([]byte(user))
	h.u = h.userHash(h.key)

	enc := New()
	for _, ref := range doc.Refs() {
		obj, _ := doc.Object(ref)
		out, err := h.transform(ref, obj, h.encryptBytes)
		if err != nil {
			t.Fatal(err)
		}
		enc.Set(ref, out)
	}
	encDict := core.Dict{
		"Filter": core.Name("Standard"),
		"V":      core.Int(h.v),
		"R":      core.Int(r),
		"Length": core.Int(h.keyLen * 8),
		"O":      core.String(h.o),
		"U":      core.String(h.u),
		"P":      core.Int(h.p),
	}
	encRef := enc.Add(encDict)
	enc.Trailer = doc.Trailer.Clone()
	enc.Trailer["Encrypt"] = encRef
	var buf bytes.Buffer
	trailer := enc.Trailer.Clone()
	if err := writeClassic(&buf, "1.4", enc.objects, trailer); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecryptRC4(t *testing.T) {
	for _, r := range []int{2, 3} {
		t.Run(fmt.Sprintf("R%d", r), func(t *testing.T) {
			data := rc4File(t, sampleDoc(t, 2), r, "secret", "boss")
			for _, pw := range []string{"secret", "boss"} {
				doc, err := Load(data, LoadOptions{Password: pw})
				if err != nil {
					t.Fatalf("Load(%q): %v", pw, err)
				}
				if got := pageText(t, doc, 1); got != "BT /F1 12 Tf 72 720 Td (Page 2) Tj ET" {
					t.Errorf("page 2 content = %q", got)
				}
			}
			if _, err := Load(data, LoadOptions{Password: "nope"}); !errors.Is(err, errs.ErrCrypto) {
				t.Errorf("wrong password: got %v", err)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no header", "hello world"},
		{"no catalog", "%PDF-1.4\n1 0 obj\n<< /Foo 1 >>\nendobj\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data), LoadOptions{})
			if !errors.Is(err, errs.ErrLoad) {
				t.Errorf("got %v, want load error", err)
			}
		})
	}
}

func TestLoadRepairsBrokenXRef(t *testing.T) {
	data, err := sampleDoc(t, 2).Bytes(SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// shift every offset by inserting junk after the header
	broken := append([]byte(nil), data[:9]...)
	broken = append(broken, []byte("% padding that moves every object\n")...)
	broken = append(broken, data[9:]...)

	doc, err := Load(broken, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := pageCount(t, doc); got != 2 {
		t.Errorf("pages = %d, want 2", got)
	}
}

func TestOpenAndWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdf")
	if err := sampleDoc(t, 2).WriteFile(path, SaveOptions{Compress: true}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	doc, err := Open(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := pageCount(t, doc); got != 2 {
		t.Errorf("pages = %d", got)
	}

	_, err = Open(filepath.Join(dir, "missing.pdf"), LoadOptions{})
	if !errors.Is(err, errs.ErrIO) {
		t.Errorf("missing file: got %v, want IO error", err)
	}
}

func TestSaveWithoutCatalog(t *testing.T) {
	if _, err := New().Bytes(SaveOptions{}); !errors.Is(err, errs.ErrStructure) {
		t.Errorf("got %v, want structure error", err)
	}
}

func TestResolve(t *testing.T) {
	d := New()
	a := d.Add(core.Int(7))
	b := d.Add(a)
	if got := d.Resolve(b); got != core.Int(7) {
		t.Errorf("Resolve chain = %v", got)
	}
	if got := d.Resolve(core.IndirectRef{Number: 99}); got != (core.Null{}) {
		t.Errorf("dangling = %v, want null", got)
	}
	loop := core.IndirectRef{Number: 50}
	d.Set(loop, loop)
	if got := d.Resolve(loop); got != (core.Null{}) {
		t.Errorf("self reference = %v, want null", got)
	}
}
