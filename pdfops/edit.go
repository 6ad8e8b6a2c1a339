package pdfops

import (
	"math"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/pdfdoc"
)

// Rotate adds degrees to the rotation of the selected pages. Only quarter
// turns are accepted.
func Rotate(in, out string, degrees int, numbers []int) error {
	if err := distinct("rotate", out, in); err != nil {
		return err
	}
	switch degrees {
	case 90, 180, 270:
	default:
		return errs.Invalid("rotate", "rotation must be 90, 180 or 270 degrees, got %d", degrees)
	}
	doc, err := open("rotate", in)
	if err != nil {
		return err
	}
	list, err := selected(doc, numbers)
	if err != nil {
		return errs.WithPath(err, errs.CodeStructure, "rotate", in)
	}
	for _, p := range list {
		rot := (p.Rotate() + degrees) % 360
		edit(doc, p.Ref, func(d core.Dict) { d["Rotate"] = core.Int(rot) })
	}
	return save("rotate", doc, out, pdfdoc.SaveOptions{})
}

// Box is a crop rectangle in percent of the media box: X and Y locate the
// lower-left corner, W and H give the size.
type Box struct {
	X, Y, W, H float64
}

func (b Box) validate() error {
	for _, v := range []float64{b.X, b.Y, b.W, b.H} {
		if v < 0 || v > 100 || math.IsNaN(v) {
			return errs.Invalid("crop", "crop percentages must lie in [0, 100], got %+v", b)
		}
	}
	return nil
}

// Crop sets the CropBox of the selected pages to box, measured against
// each page's MediaBox. Coordinates are rounded to two decimals.
func Crop(in, out string, box Box, numbers []int) error {
	if err := distinct("crop", out, in); err != nil {
		return err
	}
	if err := box.validate(); err != nil {
		return err
	}
	doc, err := open("crop", in)
	if err != nil {
		return err
	}
	list, err := selected(doc, numbers)
	if err != nil {
		return errs.WithPath(err, errs.CodeStructure, "crop", in)
	}
	for _, p := range list {
		mb, err := p.MediaBox()
		if err != nil {
			return errs.WithPath(err, errs.CodeStructure, "crop", in)
		}
		w, h := mb[2]-mb[0], mb[3]-mb[1]
		llx := mb[0] + w*box.X/100
		lly := mb[1] + h*box.Y/100
		urx := llx + w*box.W/100
		ury := lly + h*box.H/100
		crop := core.Array{round2(llx), round2(lly), round2(urx), round2(ury)}
		edit(doc, p.Ref, func(d core.Dict) { d["CropBox"] = crop })
	}
	return save("crop", doc, out, pdfdoc.SaveOptions{})
}

func round2(v float64) core.Real {
	return core.Real(math.Round(v*100) / 100)
}

// Organize rewrites the page tree so that it holds exactly the pages in
// order, which lists old page numbers. Pages left out are removed from
// the file.
func Organize(in, out string, order []int) error {
	if err := distinct("organize", out, in); err != nil {
		return err
	}
	if len(order) == 0 {
		return errs.Invalid("organize", "page order is empty")
	}
	doc, err := open("organize", in)
	if err != nil {
		return err
	}
	if err := reorder(doc, order); err != nil {
		return errs.WithPath(err, errs.CodeStructure, "organize", in)
	}
	return save("organize", doc, out, pdfdoc.SaveOptions{})
}

func reorder(doc *pdfdoc.Document, order []int) error {
	refs, err := pages.Refs(doc)
	if err != nil {
		return err
	}
	seen := make(map[int]bool, len(order))
	kids := make([]core.IndirectRef, 0, len(order))
	for _, n := range order {
		if n < 1 || n > len(refs) {
			return errs.Structure("organize", "invalid page %d: the document has %d pages", n, len(refs))
		}
		if seen[n] {
			return errs.Invalid("organize", "page %d listed twice", n)
		}
		seen[n] = true
		kids = append(kids, refs[n-1])
	}
	if err := pages.SetKids(doc, kids); err != nil {
		return err
	}
	doc.Prune()
	return nil
}

// DeletePages removes the listed pages. Removing every page is an error.
func DeletePages(in, out string, numbers []int) error {
	if err := distinct("delete", out, in); err != nil {
		return err
	}
	doc, err := open("delete", in)
	if err != nil {
		return err
	}
	total, err := pages.Count(doc)
	if err != nil {
		return errs.WithPath(err, errs.CodeStructure, "delete", in)
	}
	drop := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		drop[n] = true
	}
	var keep []int
	for n := 1; n <= total; n++ {
		if !drop[n] {
			keep = append(keep, n)
		}
	}
	if len(keep) == 0 {
		return errs.Invalid("delete", "cannot delete every page")
	}
	if err := reorder(doc, keep); err != nil {
		return errs.WithPath(err, errs.CodeStructure, "delete", in)
	}
	return save("delete", doc, out, pdfdoc.SaveOptions{})
}
