package pdfdoc

import (
	"errors"
	"os"
	"regexp"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
)

// LoadOptions controls Load.
type LoadOptions struct {
	// Password authenticates against an encrypted file. The empty string
	// opens files that have no user password.
	Password string
}

// Open reads and parses the file at path.
func Open(path string, opts LoadOptions) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.E(errs.CodeIO, "open", path, err)
	}
	doc, err := Load(data, opts)
	if err != nil {
		return nil, errs.WithPath(err, errs.CodeLoad, "open", path)
	}
	return doc, nil
}

var headerRe = regexp.MustCompile(`%PDF-(\d\.\d)`)

// Load parses a complete PDF file held in data. Encrypted files are
// decrypted in memory; the returned document has no /Encrypt entry.
func Load(data []byte, opts LoadOptions) (*Document, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	m := headerRe.FindSubmatchIndex(head)
	if m == nil {
		return nil, &errs.Error{Code: errs.CodeLoad, Msg: "missing %PDF header"}
	}
	// offsets in the file are relative to the header
	data = data[m[0]:]
	version := string(head[m[2]:m[3]])

	if table, err := readXRef(data); err == nil {
		doc, err := build(data, version, table, opts.Password)
		if err == nil || errors.Is(err, errs.ErrCrypto) {
			return doc, err
		}
	}
	// damaged cross-reference data: rebuild from the object headers
	return build(data, version, core.ScanObjects(data), opts.Password)
}

func build(data []byte, version string, table *core.XRefTable, password string) (*Document, error) {
	doc := New()
	doc.Version = version
	doc.readObjects(data, table)
	if err := doc.decrypt(password); err != nil {
		return nil, err
	}
	doc.expandObjectStreams(table)
	if _, ok := doc.Catalog(); !ok {
		doc.findCatalog()
	}
	if _, ok := doc.Catalog(); !ok {
		return nil, &errs.Error{Code: errs.CodeLoad, Msg: "no document catalog found"}
	}
	return doc, nil
}

func readXRef(data []byte) (*core.XRefTable, error) {
	start, err := core.FindStartXRef(data)
	if err != nil {
		return nil, err
	}
	return core.ParseXRefChain(data, start)
}

// readObjects parses every in-file object listed in table.
func (d *Document) readObjects(data []byte, table *core.XRefTable) {
	p := core.NewParser(data)
	p.SetLengthResolver(func(ref core.IndirectRef) (int, bool) {
		e, ok := table.Entries[ref.Number]
		if !ok || e.Type != core.XRefUncompressed {
			return 0, false
		}
		sub := core.NewParser(data)
		sub.Seek(int(e.Offset))
		obj, err := sub.ParseIndirectObject()
		if err != nil {
			return 0, false
		}
		n, ok := obj.Object.(core.Int)
		return int(n), ok
	})

	for num, e := range table.Entries {
		if e.Type != core.XRefUncompressed || num == 0 {
			continue
		}
		if e.Offset < 0 || e.Offset >= int64(len(data)) {
			d.Skipped++
			continue
		}
		p.Seek(int(e.Offset))
		obj, err := p.ParseIndirectObject()
		if err != nil || obj.Ref.Number != num {
			d.Skipped++
			continue
		}
		d.Set(obj.Ref, obj.Object)
	}

	d.Trailer = core.Dict{}
	for _, key := range []string{"Root", "Info", "ID", "Encrypt"} {
		if v, ok := table.Trailer[key]; ok {
			d.Trailer[key] = v
		}
	}
}

// findCatalog looks for a /Type /Catalog object when the trailer is
// missing or points nowhere.
func (d *Document) findCatalog() {
	for _, ref := range d.Refs() {
		if dict, ok := d.objects[ref].(core.Dict); ok && dict.IsType("Catalog") {
			d.Trailer["Root"] = ref
			return
		}
	}
}

// decrypt authenticates with password and decrypts every object in place.
func (d *Document) decrypt(password string) error {
	encObj, ok := d.Trailer["Encrypt"]
	if !ok {
		return nil
	}
	encDict, ok := d.Dict(encObj)
	if !ok {
		return errs.Crypto("", "unreadable encryption dictionary")
	}
	h, err := newSecurityHandler(encDict, d.fileID())
	if err != nil {
		return err
	}
	if err := h.authenticate(password); err != nil {
		return err
	}

	encRef, _ := encObj.(core.IndirectRef)
	for ref, obj := range d.objects {
		if ref == encRef {
			continue
		}
		plain, err := h.transform(ref, obj, h.decryptBytes)
		if err != nil {
			return &errs.Error{Code: errs.CodeCrypto, Msg: "decryption failed", Err: err}
		}
		d.objects[ref] = plain
	}
	if encRef.Number != 0 {
		delete(d.objects, encRef)
	}
	delete(d.Trailer, "Encrypt")
	d.Encrypted = true
	return nil
}

func (d *Document) fileID() []byte {
	id, ok := d.Array(d.Trailer["ID"])
	if !ok || len(id) == 0 {
		return nil
	}
	s, _ := d.Resolve(id[0]).(core.String)
	return []byte(s)
}

// expandObjectStreams moves objects stored in object streams into the arena
// and drops the containers along with any cross-reference streams. When
// the table lists no compressed entries (a rebuilt table) every object
// stream is unpacked for objects not already present.
func (d *Document) expandObjectStreams(table *core.XRefTable) {
	streams := map[int]*core.ObjectStream{}
	open := func(num int) *core.ObjectStream {
		if stm, ok := streams[num]; ok {
			return stm
		}
		s, isStream := d.objects[core.IndirectRef{Number: num}].(*core.Stream)
		if !isStream {
			return nil
		}
		stm, err := core.NewObjectStream(s)
		if err != nil {
			stm = nil
		}
		streams[num] = stm
		return stm
	}

	compressed := 0
	for num, e := range table.Entries {
		if e.Type != core.XRefCompressed {
			continue
		}
		compressed++
		ref := core.IndirectRef{Number: num}
		if _, exists := d.objects[ref]; exists {
			continue
		}
		stm := open(e.StreamNumber)
		if stm == nil {
			d.Skipped++
			continue
		}
		obj, n, err := stm.ObjectAt(e.Index)
		if err != nil || n != num {
			d.Skipped++
			continue
		}
		d.Set(ref, obj)
	}

	if compressed == 0 {
		for _, ref := range d.Refs() {
			s, ok := d.objects[ref].(*core.Stream)
			if !ok || !s.Dict.IsType("ObjStm") {
				continue
			}
			stm := open(ref.Number)
			if stm == nil {
				continue
			}
			for i := 0; i < stm.N(); i++ {
				obj, n, err := stm.ObjectAt(i)
				if err != nil {
					continue
				}
				if _, exists := d.objects[core.IndirectRef{Number: n}]; !exists {
					d.Set(core.IndirectRef{Number: n}, obj)
				}
			}
		}
	}

	for ref, obj := range d.objects {
		if s, ok := obj.(*core.Stream); ok && (s.Dict.IsType("ObjStm") || s.Dict.IsType("XRef")) {
			delete(d.objects, ref)
		}
	}
}
