// Package folio converts documents between formats and edits PDF files.
//
// Basic usage:
//
//	engine := folio.New()
//	if err := engine.Convert(ctx, "notes.md", "notes.pdf"); err != nil {
//	    // handle error
//	}
//
// Every PDF operation accepts any supported input. A non-PDF input is
// converted to PDF in a private scratch directory, edited there, and the
// result is converted back to the format named by the output path:
//
//	engine := folio.New(folio.WithLogger(logger))
//	err := engine.Rotate(ctx, "report.docx", "report-rotated.docx", 90, nil)
//
// An output path that names the input is rejected with an
// InvalidArgument error.
//
// Errors carry a kind that can be matched with errors.Is against the
// sentinels in the errs package.
//
// For direct access to the PDF object model, use the pdfdoc, pages and
// pdfops packages.
package folio

import (
	"context"

	"github.com/tsawler/folio/convert"
	"github.com/tsawler/folio/internal/logging"
	"github.com/tsawler/folio/pdfops"
)

// Version of the folio engine.
const Version = "0.3.0"

// Engine runs conversions and PDF operations. It holds configuration
// only, so one Engine may serve concurrent calls on distinct paths.
type Engine struct {
	opts      options
	converter *convert.Converter
}

// New returns an Engine configured by opts.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := convert.New(o.logger)
	c.Layout = o.layout
	c.Compress = o.compress
	return &Engine{opts: o, converter: c}
}

// Convert writes input to output in the format named by output's
// extension.
func (e *Engine) Convert(ctx context.Context, input, output string) error {
	return e.converter.Convert(ctx, input, output)
}

// PageCount returns the number of pages input has as a PDF.
func (e *Engine) PageCount(ctx context.Context, input string) (int, error) {
	var n int
	err := e.inspect(ctx, "pages", input, func(pdf string) error {
		var err error
		n, err = pdfops.PageCount(pdf)
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.Debug(e.opts.logger).Add(logging.Path(input)).Add(logging.Pages(n)).Msg("counted pages")
	return n, nil
}
