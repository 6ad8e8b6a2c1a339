// Package pdfdoc holds a whole PDF file in memory as an arena of indirect
// objects and provides the structural operations built on it: loading
// (classic and cross-reference stream files, object streams, the standard
// security handler), page tree queries, reference closure and copying,
// resource overlays, cleanup and serialization.
//
// Objects are addressed by identity only. Mutation follows a
// resolve, copy, commit pattern: read a value with Resolve, build a
// modified copy, then store it back with Set.
package pdfdoc

import (
	"sort"

	"github.com/tsawler/folio/core"
)

// Document is an arena of indirect objects plus the trailer entries that
// survive a rewrite (Root, Info, ID).
type Document struct {
	Version string
	Trailer core.Dict

	// Encrypted reports whether the source file used the security handler.
	Encrypted bool
	// Skipped counts objects that could not be parsed during Load.
	Skipped int

	objects map[core.IndirectRef]core.Object
	maxNum  int
}

// New returns an empty document.
func New() *Document {
	return &Document{
		Version: "1.7",
		Trailer: core.Dict{},
		objects: make(map[core.IndirectRef]core.Object),
	}
}

// Add stores obj under a fresh identity and returns it.
func (d *Document) Add(obj core.Object) core.IndirectRef {
	d.maxNum++
	ref := core.IndirectRef{Number: d.maxNum}
	d.objects[ref] = obj
	return ref
}

// Set stores obj under ref, replacing any previous value.
func (d *Document) Set(ref core.IndirectRef, obj core.Object) {
	d.objects[ref] = obj
	if ref.Number > d.maxNum {
		d.maxNum = ref.Number
	}
}

// Delete removes ref from the arena. References to it become dangling.
func (d *Document) Delete(ref core.IndirectRef) {
	delete(d.objects, ref)
}

// Object returns the value stored under ref.
func (d *Document) Object(ref core.IndirectRef) (core.Object, bool) {
	obj, ok := d.objects[ref]
	return obj, ok
}

// Len returns the number of objects held.
func (d *Document) Len() int { return len(d.objects) }

// MaxNumber returns the highest object number in use.
func (d *Document) MaxNumber() int { return d.maxNum }

// Refs returns every identity in ascending order.
func (d *Document) Refs() []core.IndirectRef {
	return refsOf(d.objects)
}

func refsOf(objects map[core.IndirectRef]core.Object) []core.IndirectRef {
	refs := make([]core.IndirectRef, 0, len(objects))
	for ref := range objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Number != refs[j].Number {
			return refs[i].Number < refs[j].Number
		}
		return refs[i].Generation < refs[j].Generation
	})
	return refs
}

const maxResolveDepth = 32

// Resolve follows references until a direct value is reached. Dangling
// references resolve to Null.
func (d *Document) Resolve(obj core.Object) core.Object {
	for i := 0; i < maxResolveDepth; i++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj
		}
		next, found := d.objects[ref]
		if !found {
			return core.Null{}
		}
		obj = next
	}
	return core.Null{}
}

// Dict resolves obj and returns it as a dictionary. A stream yields its
// dictionary.
func (d *Document) Dict(obj core.Object) (core.Dict, bool) {
	switch v := d.Resolve(obj).(type) {
	case core.Dict:
		return v, true
	case *core.Stream:
		return v.Dict, true
	}
	return nil, false
}

// Array resolves obj and returns it as an array.
func (d *Document) Array(obj core.Object) (core.Array, bool) {
	a, ok := d.Resolve(obj).(core.Array)
	return a, ok
}

// Stream resolves obj and returns it as a stream.
func (d *Document) Stream(obj core.Object) (*core.Stream, bool) {
	s, ok := d.Resolve(obj).(*core.Stream)
	return s, ok
}

// Catalog returns the document catalog named by the trailer's /Root.
func (d *Document) Catalog() (core.Dict, bool) {
	root, ok := d.Trailer["Root"]
	if !ok {
		return nil, false
	}
	cat, ok := d.Dict(root)
	return cat, ok && cat != nil
}
