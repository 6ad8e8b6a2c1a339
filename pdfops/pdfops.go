package pdfops

import (
	"os"
	"path/filepath"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/pdfdoc"
)

// defaultMediaBox is used for overlays on pages without a MediaBox.
var defaultMediaBox = [4]float64{0, 0, 595, 842}

func open(op, path string) (*pdfdoc.Document, error) {
	doc, err := pdfdoc.Open(path, pdfdoc.LoadOptions{})
	if err != nil {
		return nil, errs.WithPath(err, errs.CodeLoad, op, path)
	}
	return doc, nil
}

// SameFile reports whether a and b name the same file. Paths that do not
// both exist are compared in absolute, cleaned form.
func SameFile(a, b string) bool {
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(ai, bi)
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// distinct fails when out would overwrite one of ins.
func distinct(op, out string, ins ...string) error {
	for _, in := range ins {
		if SameFile(in, out) {
			return &errs.Error{Code: errs.CodeInvalidArgument, Op: op, Path: out, Msg: "output would overwrite the input"}
		}
	}
	return nil
}

func save(op string, doc *pdfdoc.Document, path string, opts pdfdoc.SaveOptions) error {
	if err := doc.WriteFile(path, opts); err != nil {
		return errs.WithPath(err, errs.CodeIO, op, path)
	}
	return nil
}

// selected returns the pages named in numbers, in document order.
// Numbers outside the document are ignored.
func selected(doc *pdfdoc.Document, numbers []int) ([]*pages.Page, error) {
	list, err := pages.List(doc)
	if err != nil {
		return nil, err
	}
	if numbers == nil {
		return list, nil
	}
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}
	out := list[:0:0]
	for _, p := range list {
		if want[p.Number] {
			out = append(out, p)
		}
	}
	return out, nil
}

// edit applies fn to a copy of the page dictionary and commits it.
func edit(doc *pdfdoc.Document, ref core.IndirectRef, fn func(core.Dict)) {
	page, ok := doc.Dict(ref)
	if !ok {
		return
	}
	page = page.Clone()
	fn(page)
	doc.Set(ref, page)
}

// mediaBox is the page's MediaBox, or A4 when it has none.
func mediaBox(p *pages.Page) [4]float64 {
	box, err := p.MediaBox()
	if err != nil {
		return defaultMediaBox
	}
	return box
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	doc, err := open("pages", path)
	if err != nil {
		return 0, err
	}
	n, err := pages.Count(doc)
	if err != nil {
		return 0, errs.WithPath(err, errs.CodeStructure, "pages", path)
	}
	return n, nil
}
