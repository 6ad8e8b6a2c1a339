package pages

import (
	"math"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/pdfdoc"
)

// inheritable lists the page attributes a Pages node can supply.
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// Page is one leaf of the page tree.
type Page struct {
	Number int // 1-based position in reading order
	Ref    core.IndirectRef
	Dict   core.Dict

	doc *pdfdoc.Document
}

// Root returns the identity and dictionary of the root Pages node.
func Root(doc *pdfdoc.Document) (core.IndirectRef, core.Dict, error) {
	cat, ok := doc.Catalog()
	if !ok {
		return core.IndirectRef{}, nil, errs.Structure("", "document has no catalog")
	}
	ref, ok := cat.GetIndirectRef("Pages")
	if !ok {
		return core.IndirectRef{}, nil, errs.Structure("", "catalog has no /Pages reference")
	}
	root, ok := doc.Dict(ref)
	if !ok {
		return core.IndirectRef{}, nil, errs.Structure("", "page tree root %v is missing", ref)
	}
	return ref, root, nil
}

// List returns every page in reading order. Cycles in /Kids are ignored.
func List(doc *pdfdoc.Document) ([]*Page, error) {
	rootRef, root, err := Root(doc)
	if err != nil {
		return nil, err
	}
	var out []*Page
	visited := map[core.IndirectRef]bool{rootRef: true}
	var walk func(node core.Dict)
	walk = func(node core.Dict) {
		kids, _ := doc.Array(node.Get("Kids"))
		for _, kid := range kids {
			ref, ok := kid.(core.IndirectRef)
			if !ok || visited[ref] {
				continue
			}
			visited[ref] = true
			dict, ok := doc.Dict(ref)
			if !ok {
				continue
			}
			if isPagesNode(dict) {
				walk(dict)
				continue
			}
			out = append(out, &Page{Number: len(out) + 1, Ref: ref, Dict: dict, doc: doc})
		}
	}
	walk(root)
	return out, nil
}

func isPagesNode(d core.Dict) bool {
	if d.IsType("Pages") {
		return true
	}
	return !d.IsType("Page") && d.Has("Kids")
}

// Refs returns the page identities in reading order.
func Refs(doc *pdfdoc.Document) ([]core.IndirectRef, error) {
	list, err := List(doc)
	if err != nil {
		return nil, err
	}
	refs := make([]core.IndirectRef, len(list))
	for i, p := range list {
		refs[i] = p.Ref
	}
	return refs, nil
}

// Map returns page number to identity.
func Map(doc *pdfdoc.Document) (map[int]core.IndirectRef, error) {
	list, err := List(doc)
	if err != nil {
		return nil, err
	}
	m := make(map[int]core.IndirectRef, len(list))
	for _, p := range list {
		m[p.Number] = p.Ref
	}
	return m, nil
}

// Count returns the number of reachable pages.
func Count(doc *pdfdoc.Document) (int, error) {
	list, err := List(doc)
	return len(list), err
}

// Get returns the page with the given 1-based number.
func Get(doc *pdfdoc.Document, number int) (*Page, error) {
	list, err := List(doc)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > len(list) {
		return nil, errs.Invalid("", "page %d out of range 1..%d", number, len(list))
	}
	return list[number-1], nil
}

// parent returns the immediate parent dictionary, if any.
func (p *Page) parent() core.Dict {
	d, _ := p.doc.Dict(p.Dict.Get("Parent"))
	return d
}

// attr looks the key up on the page, then on its immediate parent.
func (p *Page) attr(key string) core.Object {
	if v, ok := p.Dict[key]; ok {
		return p.doc.Resolve(v)
	}
	if parent := p.parent(); parent != nil {
		if v, ok := parent[key]; ok {
			return p.doc.Resolve(v)
		}
	}
	return nil
}

// Box returns a rectangle attribute as [llx lly urx ury].
func (p *Page) Box(name string) ([4]float64, bool) {
	arr, ok := p.attr(name).(core.Array)
	if !ok || len(arr) != 4 {
		return [4]float64{}, false
	}
	vals, ok := arr.Numbers()
	if !ok {
		return [4]float64{}, false
	}
	return [4]float64{vals[0], vals[1], vals[2], vals[3]}, true
}

// MediaBox returns the page's media box, consulting the immediate parent
// when the page has none.
func (p *Page) MediaBox() ([4]float64, error) {
	box, ok := p.Box("MediaBox")
	if !ok {
		return box, errs.Structure("", "page %d has no MediaBox", p.Number)
	}
	return box, nil
}

// Size returns width and height of the media box.
func (p *Page) Size() (w, h float64, err error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, 0, err
	}
	return math.Abs(box[2] - box[0]), math.Abs(box[3] - box[1]), nil
}

// Rotate returns the page rotation normalized into [0, 360).
func (p *Page) Rotate() int {
	n, ok := core.Number(p.attr("Rotate"))
	if !ok {
		return 0
	}
	return ((int(n) % 360) + 360) % 360
}

// Resources returns the page's resource dictionary, or nil.
func (p *Page) Resources() core.Dict {
	d, _ := p.attr("Resources").(core.Dict)
	return d
}

// Contents returns the page's content streams in order.
func (p *Page) Contents() []*core.Stream {
	var out []*core.Stream
	switch v := p.doc.Resolve(p.Dict.Get("Contents")).(type) {
	case *core.Stream:
		out = append(out, v)
	case core.Array:
		for _, el := range v {
			if s, ok := p.doc.Stream(el); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Content returns the decoded content streams joined by newlines.
// Streams that fail to decode are skipped.
func (p *Page) Content() []byte {
	var out []byte
	for _, s := range p.Contents() {
		data, err := s.Decode()
		if err != nil {
			continue
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out
}

// PushDown copies every inheritable attribute found on the page's
// ancestors onto the page itself, nearest ancestor first.
func PushDown(doc *pdfdoc.Document, ref core.IndirectRef) {
	orig, ok := doc.Dict(ref)
	if !ok {
		return
	}
	page := orig.Clone()
	defer doc.Set(ref, page)
	seen := map[core.IndirectRef]bool{ref: true}
	next := page.Get("Parent")
	for {
		pref, ok := next.(core.IndirectRef)
		if !ok || seen[pref] {
			return
		}
		seen[pref] = true
		node, ok := doc.Dict(pref)
		if !ok {
			return
		}
		for _, key := range inheritable {
			if _, has := page[key]; !has {
				if v, ok := node[key]; ok {
					page[key] = v
				}
			}
		}
		next = node.Get("Parent")
	}
}

// SetKids makes refs the complete, flat child list of the root Pages node.
// Inherited attributes are pushed down first so no page loses geometry or
// resources, and every page's /Parent is pointed at the root.
func SetKids(doc *pdfdoc.Document, refs []core.IndirectRef) error {
	rootRef, root, err := Root(doc)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		PushDown(doc, ref)
	}
	kids := make(core.Array, len(refs))
	for i, ref := range refs {
		page, ok := doc.Dict(ref)
		if !ok {
			return errs.Structure("", "page object %v is missing", ref)
		}
		page = page.Clone()
		page["Parent"] = rootRef
		doc.Set(ref, page)
		kids[i] = ref
	}
	updated := root.Clone()
	updated["Kids"] = kids
	updated["Count"] = core.Int(len(refs))
	doc.Set(rootRef, updated)
	return nil
}
