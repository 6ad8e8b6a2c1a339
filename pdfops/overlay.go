package pdfops

import (
	"math"
	"strconv"

	"github.com/tsawler/folio/contentstream"
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/pdfdoc"
	"github.com/tsawler/folio/textpdf"
)

// Position places page numbers.
type Position int

const (
	BottomCenter Position = iota
	BottomLeft
	BottomRight
	TopCenter
	TopLeft
	TopRight
)

var positionNames = map[Position]string{
	BottomCenter: "bottom-center",
	BottomLeft:   "bottom-left",
	BottomRight:  "bottom-right",
	TopCenter:    "top-center",
	TopLeft:      "top-left",
	TopRight:     "top-right",
}

func (p Position) String() string {
	if s, ok := positionNames[p]; ok {
		return s
	}
	return "position(" + strconv.Itoa(int(p)) + ")"
}

// ParsePosition maps a name such as "top-right" to a Position.
func ParsePosition(s string) (Position, error) {
	for p, name := range positionNames {
		if name == s {
			return p, nil
		}
	}
	return 0, errs.Invalid("number", "unknown position %q", s)
}

// anchor returns the text origin for a w×h page.
func (p Position) anchor(w, h float64) (x, y float64) {
	switch p {
	case BottomLeft, TopLeft:
		x = 40
	case BottomRight, TopRight:
		x = w - 60
	default:
		x = w/2 - 10
	}
	switch p {
	case TopCenter, TopLeft, TopRight:
		y = h - 30
	default:
		y = 30
	}
	return x, y
}

// NumberOptions configures Number. Start is used as given, so the zero
// value labels the first page 0; DefaultNumberOptions starts at 1.
type NumberOptions struct {
	Start    int // label of the first page
	Position Position
	FontSize float64 // default 10
}

// DefaultNumberOptions numbers pages from 1 at the bottom centre in 10pt.
func DefaultNumberOptions() NumberOptions {
	return NumberOptions{Start: 1, Position: BottomCenter, FontSize: 10}
}

const (
	numberFont    = "Fnum"
	watermarkFont = "Fwm"
	watermarkGS   = "GSwm"
)

// Number stamps a page number on every page in Helvetica.
func Number(in, out string, opts NumberOptions) error {
	size, err := fontSize("number", opts.FontSize, 10)
	if err != nil {
		return err
	}
	opts.FontSize = size
	if _, ok := positionNames[opts.Position]; !ok {
		return errs.Invalid("number", "unknown position %d", opts.Position)
	}
	if err := distinct("number", out, in); err != nil {
		return err
	}
	doc, err := open("number", in)
	if err != nil {
		return err
	}
	list, err := pages.List(doc)
	if err != nil {
		return errs.WithPath(err, errs.CodeStructure, "number", in)
	}
	font := doc.Add(overlayFont("Helvetica"))
	for i, p := range list {
		mb := mediaBox(p)
		x, y := opts.Position.anchor(mb[2]-mb[0], mb[3]-mb[1])
		label := strconv.Itoa(opts.Start + i)
		content := contentstream.Encode([]contentstream.Operation{
			contentstream.Op("BT"),
			contentstream.Op("Tf", core.Name(numberFont), core.Real(opts.FontSize)),
			contentstream.Op("Td", core.Real(x), core.Real(y)),
			contentstream.Op("Tj", core.String(label)),
			contentstream.Op("ET"),
		})
		if err := pages.AddOverlay(doc, p.Ref, content, pages.Overlay{FontName: numberFont, Font: font}); err != nil {
			return errs.WithPath(err, errs.CodeStructure, "number", in)
		}
	}
	return save("number", doc, out, pdfdoc.SaveOptions{})
}

// WatermarkOptions configures Watermark.
type WatermarkOptions struct {
	Text     string
	FontSize float64 // default 48
	Opacity  float64 // in (0, 1]
	Pages    []int
}

// Watermark draws Text diagonally across the centre of the selected pages
// in translucent grey Helvetica-Bold. Characters outside WinAnsiEncoding
// are drawn as '?'; their number is returned.
func Watermark(in, out string, opts WatermarkOptions) (int, error) {
	if opts.Text == "" {
		return 0, errs.Invalid("watermark", "watermark text is empty")
	}
	if !(opts.Opacity > 0 && opts.Opacity <= 1) {
		return 0, errs.Invalid("watermark", "opacity must lie in (0, 1], got %g", opts.Opacity)
	}
	size, err := fontSize("watermark", opts.FontSize, 48)
	if err != nil {
		return 0, err
	}
	opts.FontSize = size
	if err := distinct("watermark", out, in); err != nil {
		return 0, err
	}
	doc, err := open("watermark", in)
	if err != nil {
		return 0, err
	}
	list, err := selected(doc, opts.Pages)
	if err != nil {
		return 0, errs.WithPath(err, errs.CodeStructure, "watermark", in)
	}
	gs := doc.Add(core.Dict{
		"Type": core.Name("ExtGState"),
		"CA":   core.Real(opts.Opacity),
		"ca":   core.Real(opts.Opacity),
	})
	font := doc.Add(overlayFont("Helvetica-Bold"))
	text, substituted := textpdf.Encode(opts.Text)
	sin, cos := math.Sincos(math.Pi / 4)

	for _, p := range list {
		mb := mediaBox(p)
		cx, cy := (mb[2]-mb[0])/2, (mb[3]-mb[1])/2
		content := contentstream.Encode([]contentstream.Operation{
			contentstream.Op("q"),
			contentstream.Op("gs", core.Name(watermarkGS)),
			contentstream.Op("BT"),
			contentstream.Op("Tf", core.Name(watermarkFont), core.Real(opts.FontSize)),
			contentstream.Op("rg", core.Real(0.7), core.Real(0.7), core.Real(0.7)),
			contentstream.Op("Tm", core.Real(cos), core.Real(sin), core.Real(-sin), core.Real(cos), core.Real(cx), core.Real(cy)),
			contentstream.Op("Tj", core.String(text)),
			contentstream.Op("ET"),
			contentstream.Op("Q"),
		})
		ov := pages.Overlay{FontName: watermarkFont, Font: font, GStateName: watermarkGS, GState: gs}
		if err := pages.AddOverlay(doc, p.Ref, content, ov); err != nil {
			return 0, errs.WithPath(err, errs.CodeStructure, "watermark", in)
		}
	}
	return substituted, save("watermark", doc, out, pdfdoc.SaveOptions{})
}

// fontSize returns size, or def when size is zero. Negative and
// non-finite sizes are rejected.
func fontSize(op string, size, def float64) (float64, error) {
	switch {
	case size == 0:
		return def, nil
	case size < 0 || math.IsNaN(size) || math.IsInf(size, 0):
		return 0, errs.Invalid(op, "font size must be a positive number, got %g", size)
	}
	return size, nil
}

func overlayFont(name string) core.Dict {
	return core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name(name),
		"Encoding": core.Name("WinAnsiEncoding"),
	}
}
