package pdfdoc

import (
	"bytes"
	"compress/zlib"
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
)

// Encryption requests AES-128 encryption on save.
type Encryption struct {
	UserPassword  string
	OwnerPassword string
	Permissions   int32
}

// SaveOptions controls serialization.
type SaveOptions struct {
	// Compress packs non-stream objects into object streams, writes a
	// cross-reference stream and deflates every unfiltered stream at
	// maximum effort.
	Compress bool
	// Encrypt, when set, encrypts strings and streams. Object streams are
	// not used for encrypted output.
	Encrypt *Encryption
}

// objectsPerStream bounds the size of each generated object stream.
const objectsPerStream = 100

// WriteFile saves the document to path.
func (d *Document) WriteFile(path string, opts SaveOptions) error {
	data, err := d.Bytes(opts)
	if err != nil {
		return errs.WithPath(err, errs.CodeIO, "save", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.E(errs.CodeIO, "save", path, err)
	}
	return nil
}

// Bytes serializes the document.
func (d *Document) Bytes(opts SaveOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Save(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to w.
func (d *Document) Save(w io.Writer, opts SaveOptions) error {
	if _, ok := d.Catalog(); !ok {
		return errs.Structure("save", "document has no catalog")
	}
	d.ensureID()

	var sec *securityHandler
	var encRef core.IndirectRef
	trailer := core.Dict{}
	for _, k := range []string{"Root", "Info", "ID"} {
		if v, ok := d.Trailer[k]; ok {
			trailer[k] = v
		}
	}

	objects := d.objects
	if opts.Compress {
		if err := d.CompressStreams(); err != nil {
			return err
		}
	}
	if opts.Encrypt != nil {
		h, encDict, err := newAESHandler(opts.Encrypt.UserPassword, opts.Encrypt.OwnerPassword,
			opts.Encrypt.Permissions, d.fileID())
		if err != nil {
			return errs.E(errs.CodeCrypto, "save", "", err)
		}
		sec = h
		objects = make(map[core.IndirectRef]core.Object, len(d.objects)+1)
		for ref, obj := range d.objects {
			enc, err := h.transform(ref, obj, h.encryptBytes)
			if err != nil {
				return errs.E(errs.CodeCrypto, "save", "", err)
			}
			objects[ref] = enc
		}
		encRef = core.IndirectRef{Number: d.maxNum + 1}
		objects[encRef] = encDict
		trailer["Encrypt"] = encRef
	}

	version := d.Version
	if opts.Compress && sec == nil {
		if version < "1.5" {
			version = "1.5"
		}
		return writeCompressed(w, version, objects, trailer)
	}
	return writeClassic(w, version, objects, trailer)
}

// ensureID gives the trailer a file identifier when it lacks one.
func (d *Document) ensureID() {
	if id, ok := d.Array(d.Trailer["ID"]); ok && len(id) == 2 {
		return
	}
	seed := make([]byte, 16)
	_, _ = rand.Read(seed)
	sum := md5.Sum(append(seed, []byte(strconv.Itoa(d.Len()))...))
	id := core.String(sum[:])
	d.Trailer["ID"] = core.Array{id, id}
}

// location records where an object ended up in a compressed file: a byte
// offset (typ 1) or a slot in an object stream (typ 2).
type location struct {
	typ    int
	offset int
	gen    int
	stream int
	index  int
}

func writeHeader(buf *bytes.Buffer, version string) {
	buf.WriteString("%PDF-")
	buf.WriteString(version)
	buf.WriteString("\n%\xE2\xE3\xCF\xD3\n")
}

func writeIndirect(buf *bytes.Buffer, ref core.IndirectRef, obj core.Object) {
	fmt.Fprintf(buf, "%d %d obj\n", ref.Number, ref.Generation)
	core.WriteObject(buf, obj)
	buf.WriteString("\nendobj\n")
}

func writeClassic(w io.Writer, version string, objects map[core.IndirectRef]core.Object, trailer core.Dict) error {
	var buf bytes.Buffer
	writeHeader(&buf, version)

	refs := refsOf(objects)
	size := 1
	offsets := map[int]core.IndirectRef{}
	offsetOf := map[int]int{}
	for _, ref := range refs {
		offsetOf[ref.Number] = buf.Len()
		offsets[ref.Number] = ref
		writeIndirect(&buf, ref, objects[ref])
		if ref.Number+1 > size {
			size = ref.Number + 1
		}
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f\r\n", size)
	for n := 1; n < size; n++ {
		if ref, ok := offsets[n]; ok {
			fmt.Fprintf(&buf, "%010d %05d n\r\n", offsetOf[n], ref.Generation)
		} else {
			buf.WriteString("0000000000 00000 f\r\n")
		}
	}
	trailer["Size"] = core.Int(size)
	buf.WriteString("trailer\n")
	core.WriteObject(&buf, trailer)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xref)

	_, err := w.Write(buf.Bytes())
	return err
}

func writeCompressed(w io.Writer, version string, objects map[core.IndirectRef]core.Object, trailer core.Dict) error {
	var buf bytes.Buffer
	writeHeader(&buf, version)

	refs := refsOf(objects)
	maxNum := 0
	var packable []core.IndirectObject
	locs := map[int]location{}

	for _, ref := range refs {
		if ref.Number > maxNum {
			maxNum = ref.Number
		}
		obj := objects[ref]
		if _, isStream := obj.(*core.Stream); isStream || ref.Generation != 0 {
			locs[ref.Number] = location{typ: 1, offset: buf.Len(), gen: ref.Generation}
			writeIndirect(&buf, ref, obj)
			continue
		}
		packable = append(packable, core.IndirectObject{Ref: ref, Object: obj})
	}

	next := maxNum + 1
	for start := 0; start < len(packable); start += objectsPerStream {
		end := min(start+objectsPerStream, len(packable))
		chunk := packable[start:end]
		stm, err := core.BuildObjectStream(chunk)
		if err != nil {
			return err
		}
		if _, err := stm.Compress(zlib.BestCompression); err != nil {
			return err
		}
		stmRef := core.IndirectRef{Number: next}
		next++
		locs[stmRef.Number] = location{typ: 1, offset: buf.Len()}
		writeIndirect(&buf, stmRef, stm)
		for i, o := range chunk {
			locs[o.Ref.Number] = location{typ: 2, stream: stmRef.Number, index: i}
		}
	}

	xrefNum := next
	size := xrefNum + 1
	xrefOffset := buf.Len()
	locs[xrefNum] = location{typ: 1, offset: xrefOffset}

	w2 := bytesNeeded(xrefOffset)
	if w2 < bytesNeeded(size) {
		w2 = bytesNeeded(size)
	}
	var rows bytes.Buffer
	for n := 0; n < size; n++ {
		l, ok := locs[n]
		switch {
		case !ok:
			rows.WriteByte(0)
			putBigEndian(&rows, 0, w2)
			putBigEndian(&rows, freeGeneration(n), 2)
		case l.typ == 1:
			rows.WriteByte(1)
			putBigEndian(&rows, l.offset, w2)
			putBigEndian(&rows, l.gen, 2)
		default:
			rows.WriteByte(2)
			putBigEndian(&rows, l.stream, w2)
			putBigEndian(&rows, l.index, 2)
		}
	}

	dict := trailer.Clone()
	dict["Type"] = core.Name("XRef")
	dict["Size"] = core.Int(size)
	dict["W"] = core.Array{core.Int(1), core.Int(w2), core.Int(2)}
	xs := core.NewStream(dict, rows.Bytes())
	if _, err := xs.Compress(zlib.BestCompression); err != nil {
		return err
	}
	writeIndirect(&buf, core.IndirectRef{Number: xrefNum}, xs)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	_, err := w.Write(buf.Bytes())
	return err
}

// freeGeneration is 65535 for the head of the free list, 0 otherwise.
func freeGeneration(num int) int {
	if num == 0 {
		return 0xffff
	}
	return 0
}

func bytesNeeded(n int) int {
	b := 1
	for n > 0xff {
		n >>= 8
		b++
	}
	return b
}

func putBigEndian(buf *bytes.Buffer, v, width int) {
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(v >> (8 * i)))
	}
}
