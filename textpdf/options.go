package textpdf

import (
	"math"

	"github.com/tsawler/folio/errs"
)

// Default layout, in points.
const (
	DefaultPageWidth  = 595
	DefaultPageHeight = 842
	DefaultMargin     = 56
	DefaultFontSize   = 11
	DefaultLeading    = 14
	// DefaultGlyphWidth is the average glyph width as a fraction of the
	// font size.
	DefaultGlyphWidth = 0.5
)

// Options configures page geometry and typography.
type Options struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	FontSize   float64
	Leading    float64
	GlyphWidth float64

	// LinesPerPage overrides the count derived from the page height,
	// margins and leading when positive.
	LinesPerPage int
}

// DefaultOptions returns A4 pages with 11pt Helvetica.
func DefaultOptions() Options {
	return Options{
		PageWidth:  DefaultPageWidth,
		PageHeight: DefaultPageHeight,
		Margin:     DefaultMargin,
		FontSize:   DefaultFontSize,
		Leading:    DefaultLeading,
		GlyphWidth: DefaultGlyphWidth,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PageWidth == 0 {
		o.PageWidth = d.PageWidth
	}
	if o.PageHeight == 0 {
		o.PageHeight = d.PageHeight
	}
	if o.Margin == 0 {
		o.Margin = d.Margin
	}
	if o.FontSize == 0 {
		o.FontSize = d.FontSize
	}
	if o.Leading == 0 {
		o.Leading = d.Leading
	}
	if o.GlyphWidth == 0 {
		o.GlyphWidth = d.GlyphWidth
	}
	return o
}

func (o Options) validate() error {
	if o.PageWidth <= 2*o.Margin || o.PageHeight <= 2*o.Margin {
		return errs.Invalid("textpdf", "margins %g leave no room on a %gx%g page", o.Margin, o.PageWidth, o.PageHeight)
	}
	if o.FontSize < 0 || o.Leading < 0 || o.GlyphWidth < 0 || o.Margin < 0 || o.LinesPerPage < 0 {
		return errs.Invalid("textpdf", "negative layout value")
	}
	if o.MaxChars() < 1 || o.Lines() < 1 {
		return errs.Invalid("textpdf", "font size %g does not fit the page", o.FontSize)
	}
	return nil
}

// MaxChars is the number of characters that fit on one line.
func (o Options) MaxChars() int {
	return int(math.Floor((o.PageWidth - 2*o.Margin) / (o.FontSize * o.GlyphWidth)))
}

// Lines is the number of lines per page.
func (o Options) Lines() int {
	if o.LinesPerPage > 0 {
		return o.LinesPerPage
	}
	return int(math.Floor((o.PageHeight - 2*o.Margin) / o.Leading))
}
