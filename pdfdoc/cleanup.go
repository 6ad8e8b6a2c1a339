package pdfdoc

import (
	"compress/zlib"
	"errors"

	"github.com/tsawler/folio/core"
)

// DeleteZeroLengthStreams removes streams with no data and scrubs the
// references that pointed at them. It returns the number removed.
func (d *Document) DeleteZeroLengthStreams() int {
	gone := map[core.IndirectRef]bool{}
	for ref, obj := range d.objects {
		if s, ok := obj.(*core.Stream); ok && len(s.Data) == 0 {
			gone[ref] = true
		}
	}
	if len(gone) == 0 {
		return 0
	}
	for ref := range gone {
		delete(d.objects, ref)
	}
	for ref, obj := range d.objects {
		d.objects[ref] = scrub(obj, gone)
	}
	return len(gone)
}

// scrub drops array elements and dictionary entries referring to gone.
func scrub(obj core.Object, gone map[core.IndirectRef]bool) core.Object {
	switch v := obj.(type) {
	case core.Array:
		out := make(core.Array, 0, len(v))
		for _, el := range v {
			if ref, ok := el.(core.IndirectRef); ok && gone[ref] {
				continue
			}
			out = append(out, scrub(el, gone))
		}
		return out
	case core.Dict:
		out := make(core.Dict, len(v))
		for k, el := range v {
			if ref, ok := el.(core.IndirectRef); ok && gone[ref] {
				continue
			}
			out[k] = scrub(el, gone)
		}
		return out
	case *core.Stream:
		return &core.Stream{Dict: scrub(v.Dict, gone).(core.Dict), Data: v.Data}
	}
	return obj
}

// Prune deletes every object not reachable from the trailer's /Root or
// /Info and returns the number deleted.
func (d *Document) Prune() int {
	seen := map[core.IndirectRef]bool{}
	for _, key := range []string{"Root", "Info"} {
		d.CollectReferences(d.Trailer[key], seen)
	}
	n := 0
	for ref := range d.objects {
		if !seen[ref] {
			delete(d.objects, ref)
			n++
		}
	}
	return n
}

// CompressStreams deflates every unfiltered stream at maximum compression.
func (d *Document) CompressStreams() error {
	for _, obj := range d.objects {
		if s, ok := obj.(*core.Stream); ok {
			if _, err := s.Compress(zlib.BestCompression); err != nil {
				return err
			}
		}
	}
	return nil
}

// DamagedStreams returns, in object order, the streams whose data fails
// to decode through their filter chain, image codecs included. Streams
// using a filter Decode does not implement are not reported.
func (d *Document) DamagedStreams() []core.IndirectRef {
	var damaged []core.IndirectRef
	for _, ref := range d.Refs() {
		s, ok := d.objects[ref].(*core.Stream)
		if !ok {
			continue
		}
		if _, err := s.Decode(); err != nil && !errors.Is(err, core.ErrUnsupportedFilter) {
			damaged = append(damaged, ref)
		}
	}
	return damaged
}

// Cleanup removes empty streams and unreachable objects, then renumbers
// the survivors densely from 1.
func (d *Document) Cleanup() {
	d.DeleteZeroLengthStreams()
	d.Prune()
	d.Renumber(1)
}
