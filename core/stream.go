package core

import (
	"errors"
	"fmt"

	"github.com/tsawler/folio/internal/filters"
)

// ErrUnsupportedFilter is returned by Decode for a filter it cannot undo.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Decode returns the stream data with every filter in /Filter undone.
func (s *Stream) Decode() ([]byte, error) {
	names, params, err := s.filterChain()
	if err != nil {
		return nil, err
	}
	data := s.Data
	for i, name := range names {
		data, err = decodeWithFilter(data, name, params[i])
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", name, err)
		}
	}
	return data, nil
}

// Filters returns the filter names applied to the stream, outermost first.
func (s *Stream) Filters() []string {
	names, _, _ := s.filterChain()
	return names
}

func (s *Stream) filterChain() ([]string, []Dict, error) {
	var names []string
	switch f := s.Dict.Get("Filter").(type) {
	case nil:
		return nil, nil, nil
	case Name:
		names = []string{string(f)}
	case Array:
		for _, v := range f {
			n, ok := v.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("filter entry %v is not a name", v)
			}
			names = append(names, string(n))
		}
	default:
		return nil, nil, fmt.Errorf("invalid /Filter of type %v", f.Type())
	}

	params := make([]Dict, len(names))
	switch p := s.Dict.Get("DecodeParms").(type) {
	case Dict:
		params[0] = p
	case Array:
		for i := range names {
			if i < len(p) {
				params[i], _ = p[i].(Dict)
			}
		}
	}
	return names, params, nil
}

func decodeWithFilter(data []byte, name string, params Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, toParams(params))
	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)
	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)
	case "CCITTFaxDecode", "CCF":
		return filters.CCITTFaxDecode(data, toParams(params))
	case "DCTDecode", "DCT", "JPXDecode":
		// image payloads are kept in their native encoding
		return data, nil
	case "Crypt":
		if n, ok := params.GetName("Name"); !ok || n == "Identity" {
			return data, nil
		}
		return nil, fmt.Errorf("%w: crypt filter %v", ErrUnsupportedFilter, params.Get("Name"))
	}
	return nil, fmt.Errorf("%w %s", ErrUnsupportedFilter, name)
}

func toParams(d Dict) filters.Params {
	if d == nil {
		return nil
	}
	out := make(filters.Params, len(d))
	for k, v := range d {
		switch o := v.(type) {
		case Int:
			out[k] = int(o)
		case Real:
			out[k] = float64(o)
		case Bool:
			out[k] = bool(o)
		case Name:
			out[k] = string(o)
		}
	}
	return out
}

// Compress flate-encodes an unfiltered stream at the given zlib level.
// Streams that already carry a filter are left alone. It reports whether
// the stream was changed.
func (s *Stream) Compress(level int) (bool, error) {
	if s.Dict.Has("Filter") || len(s.Data) == 0 {
		return false, nil
	}
	enc, err := filters.FlateEncode(s.Data, level)
	if err != nil {
		return false, err
	}
	s.Dict["Filter"] = Name("FlateDecode")
	s.Dict.Delete("DecodeParms")
	s.SetData(enc)
	return true, nil
}
