package pdfdoc

import "github.com/tsawler/folio/core"

// CollectReferences walks obj and every object it reaches, appending each
// identity to the result the first time it is seen. Values under keys in
// skip are not followed. seen may be shared between calls to gather the
// union of several closures.
func (d *Document) CollectReferences(obj core.Object, seen map[core.IndirectRef]bool, skip ...string) []core.IndirectRef {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}
	var out []core.IndirectRef
	var walk func(core.Object)
	walkDict := func(dict core.Dict) {
		for _, k := range dict.Keys() {
			if !skipped[k] {
				walk(dict[k])
			}
		}
	}
	walk = func(obj core.Object) {
		switch v := obj.(type) {
		case core.IndirectRef:
			if seen[v] {
				return
			}
			seen[v] = true
			target, ok := d.objects[v]
			if !ok {
				return
			}
			out = append(out, v)
			walk(target)
		case core.Array:
			for _, el := range v {
				walk(el)
			}
		case core.Dict:
			walkDict(v)
		case *core.Stream:
			walkDict(v.Dict)
		}
	}
	walk(obj)
	return out
}

// Closure returns root followed by every object transitively reachable
// from it, excluding whatever hangs off keys in skip.
func (d *Document) Closure(root core.IndirectRef, skip ...string) []core.IndirectRef {
	return d.CollectReferences(root, map[core.IndirectRef]bool{}, skip...)
}

// Copier copies objects from one document into another, allocating fresh
// identities in the target and translating references. Each source object
// is copied at most once.
type Copier struct {
	src, dst *Document
	trans    map[core.IndirectRef]core.IndirectRef
	skip     map[string]bool
}

// NewCopier returns a Copier from src to dst. Dictionary entries named in
// skip are dropped from every copied dictionary.
func NewCopier(dst, src *Document, skip ...string) *Copier {
	c := &Copier{
		src:   src,
		dst:   dst,
		trans: make(map[core.IndirectRef]core.IndirectRef),
		skip:  make(map[string]bool, len(skip)),
	}
	for _, k := range skip {
		c.skip[k] = true
	}
	return c
}

// Redirect makes references to from resolve to to in the target.
func (c *Copier) Redirect(from, to core.IndirectRef) {
	c.trans[from] = to
}

// CopyRef copies the object behind ref and returns its target identity.
// Dangling references map to a Null object in the target.
func (c *Copier) CopyRef(ref core.IndirectRef) core.IndirectRef {
	if out, ok := c.trans[ref]; ok {
		return out
	}
	out := c.dst.Add(core.Null{})
	c.trans[ref] = out
	if obj, ok := c.src.objects[ref]; ok {
		c.dst.Set(out, c.Copy(obj))
	}
	return out
}

// Copy returns a deep copy of obj with every reference translated.
func (c *Copier) Copy(obj core.Object) core.Object {
	switch v := obj.(type) {
	case core.IndirectRef:
		return c.CopyRef(v)
	case core.Array:
		out := make(core.Array, len(v))
		for i, el := range v {
			out[i] = c.Copy(el)
		}
		return out
	case core.Dict:
		return c.copyDict(v)
	case *core.Stream:
		return &core.Stream{Dict: c.copyDict(v.Dict), Data: append([]byte(nil), v.Data...)}
	}
	return obj
}

func (c *Copier) copyDict(dict core.Dict) core.Dict {
	out := make(core.Dict, len(dict))
	for k, v := range dict {
		if c.skip[k] {
			continue
		}
		out[k] = c.Copy(v)
	}
	return out
}

// Renumber assigns identities densely from first upward, in ascending
// order of the current numbers, with generation zero, and rewrites every
// reference including those in the trailer. References to missing objects
// are replaced by null.
func (d *Document) Renumber(first int) {
	refs := d.Refs()
	trans := make(map[core.IndirectRef]core.IndirectRef, len(refs))
	for i, ref := range refs {
		trans[ref] = core.IndirectRef{Number: first + i}
	}
	objects := make(map[core.IndirectRef]core.Object, len(refs))
	for ref, obj := range d.objects {
		objects[trans[ref]] = rewriteRefs(obj, trans)
	}
	d.objects = objects
	d.maxNum = first + len(refs) - 1
	if d.maxNum < 0 {
		d.maxNum = 0
	}
	d.Trailer = rewriteRefs(d.Trailer, trans).(core.Dict)
}

// rewriteRefs copies obj with references translated through trans.
func rewriteRefs(obj core.Object, trans map[core.IndirectRef]core.IndirectRef) core.Object {
	switch v := obj.(type) {
	case core.IndirectRef:
		if out, ok := trans[v]; ok {
			return out
		}
		return core.Null{}
	case core.Array:
		out := make(core.Array, len(v))
		for i, el := range v {
			out[i] = rewriteRefs(el, trans)
		}
		return out
	case core.Dict:
		out := make(core.Dict, len(v))
		for k, el := range v {
			out[k] = rewriteRefs(el, trans)
		}
		return out
	case *core.Stream:
		return &core.Stream{Dict: rewriteRefs(v.Dict, trans).(core.Dict), Data: v.Data}
	}
	return obj
}
