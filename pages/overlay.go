package pages

import (
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/pdfdoc"
)

// Overlay names the resources an overlay content stream refers to.
// Empty names are not added.
type Overlay struct {
	FontName   string
	Font       core.Object
	GStateName string
	GState     core.Object
}

// AddOverlay appends content as a new content stream drawn after the
// page's existing content. The page's Resources, Font and ExtGState
// dictionaries are resolved one level and replaced with page-local copies
// holding the new entries, so resources shared with other pages are left
// untouched.
func AddOverlay(doc *pdfdoc.Document, ref core.IndirectRef, content []byte, ov Overlay) error {
	page, ok := doc.Dict(ref)
	if !ok {
		return errs.Structure("overlay", "page object %v is missing", ref)
	}
	page = page.Clone()

	res := resolveDict(doc, page.Get("Resources"))
	if res == nil {
		if parent, ok := doc.Dict(page.Get("Parent")); ok {
			res = resolveDict(doc, parent.Get("Resources"))
		}
	}
	// Clone of a nil Dict is an empty Dict
	res = res.Clone()
	if ov.FontName != "" {
		fonts := resolveDict(doc, res.Get("Font")).Clone()
		fonts[ov.FontName] = ov.Font
		res["Font"] = fonts
	}
	if ov.GStateName != "" {
		gs := resolveDict(doc, res.Get("ExtGState")).Clone()
		gs[ov.GStateName] = ov.GState
		res["ExtGState"] = gs
	}
	page["Resources"] = res

	stmRef := doc.Add(core.NewStream(core.Dict{}, content))
	switch cur := page.Get("Contents").(type) {
	case nil:
		page["Contents"] = stmRef
	case core.IndirectRef:
		if arr, ok := doc.Resolve(cur).(core.Array); ok {
			page["Contents"] = append(append(core.Array{}, arr...), stmRef)
		} else {
			page["Contents"] = core.Array{cur, stmRef}
		}
	case core.Array:
		page["Contents"] = append(append(core.Array{}, cur...), stmRef)
	default:
		page["Contents"] = stmRef
	}
	doc.Set(ref, page)
	return nil
}

func resolveDict(doc *pdfdoc.Document, obj core.Object) core.Dict {
	d, _ := doc.Resolve(obj).(core.Dict)
	return d
}
