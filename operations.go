package folio

import (
	"context"
	"fmt"
	"os"

	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/internal/logging"
	"github.com/tsawler/folio/pdfops"
)

// Re-exported option types, so callers need not import pdfops.
type (
	Box              = pdfops.Box
	Position         = pdfops.Position
	NumberOptions    = pdfops.NumberOptions
	WatermarkOptions = pdfops.WatermarkOptions
	ProtectOptions   = pdfops.ProtectOptions
	RepairReport     = pdfops.RepairReport
)

// Split writes each page of input to its own PDF in outDir and returns
// the paths in page order. Pages of a non-PDF input are written as PDF.
func (e *Engine) Split(ctx context.Context, input, outDir string) ([]string, error) {
	logging.Info(e.opts.logger).Add(logging.Op("split")).Add(logging.Path(input)).Add(logging.Output(outDir)).Msg("starting")
	var paths []string
	err := e.inspect(ctx, "split", input, func(pdf string) error {
		var err error
		paths, err = pdfops.Split(pdf, outDir)
		return err
	})
	if err != nil {
		logging.Error(e.opts.logger).Add(logging.Op("split")).Add(logging.Path(input)).Add(logging.Err(err)).Msg("operation failed")
		return nil, err
	}
	logging.Info(e.opts.logger).Add(logging.Op("split")).Add(logging.Pages(len(paths))).Msg("done")
	return paths, nil
}

// Merge concatenates inputs into output. Inputs that are not PDF are
// converted first.
func (e *Engine) Merge(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return errs.Invalid("merge", "no input files")
	}
	if err := distinct("merge", output, inputs...); err != nil {
		return err
	}
	logging.Info(e.opts.logger).Add(logging.Op("merge")).Add(logging.Files(len(inputs))).Add(logging.Output(output)).Msg("starting")
	if err := e.merge(ctx, inputs, output); err != nil {
		logging.Error(e.opts.logger).Add(logging.Op("merge")).Add(logging.Output(output)).Add(logging.Err(err)).Msg("operation failed")
		return err
	}
	logging.Info(e.opts.logger).Add(logging.Op("merge")).Add(logging.Output(output)).Msg("done")
	return nil
}

func (e *Engine) merge(ctx context.Context, inputs []string, output string) error {
	s, err := e.newScratch("merge", inputs[0])
	if err != nil {
		return err
	}
	defer e.release(s)

	pdfs := make([]string, len(inputs))
	for i, in := range inputs {
		pdf, err := isPDF("merge", in)
		if err != nil {
			return err
		}
		if pdf {
			pdfs[i] = in
			continue
		}
		if pdfs[i], err = e.stage(ctx, s, "merge", in, fmt.Sprintf("%03d-%s.pdf", i, stem(in))); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	result := s.path("merged.pdf")
	if err := pdfops.Merge(pdfs, result); err != nil {
		return err
	}
	return e.deliver(ctx, "merge", result, output, false)
}

// Rotate turns the selected pages by degrees (90, 180 or 270). A nil page
// list selects every page.
func (e *Engine) Rotate(ctx context.Context, input, output string, degrees int, pages []int) error {
	return e.run(ctx, "rotate", input, output, func(in, out string) error {
		return pdfops.Rotate(in, out, degrees, pages)
	})
}

// Crop sets the crop box of the selected pages, in percent of each page.
func (e *Engine) Crop(ctx context.Context, input, output string, box Box, pages []int) error {
	return e.run(ctx, "crop", input, output, func(in, out string) error {
		return pdfops.Crop(in, out, box, pages)
	})
}

// Organize keeps the pages listed in order, in that order.
func (e *Engine) Organize(ctx context.Context, input, output string, order []int) error {
	return e.run(ctx, "organize", input, output, func(in, out string) error {
		return pdfops.Organize(in, out, order)
	})
}

// DeletePages removes the listed pages.
func (e *Engine) DeletePages(ctx context.Context, input, output string, pages []int) error {
	return e.run(ctx, "delete", input, output, func(in, out string) error {
		return pdfops.DeletePages(in, out, pages)
	})
}

// Number stamps page numbers.
func (e *Engine) Number(ctx context.Context, input, output string, opts NumberOptions) error {
	return e.run(ctx, "number", input, output, func(in, out string) error {
		return pdfops.Number(in, out, opts)
	})
}

// Watermark draws diagonal text across the selected pages. Characters
// the PDF fonts cannot show are drawn as '?' and logged.
func (e *Engine) Watermark(ctx context.Context, input, output string, opts WatermarkOptions) error {
	var substituted int
	err := e.run(ctx, "watermark", input, output, func(in, out string) error {
		var err error
		substituted, err = pdfops.Watermark(in, out, opts)
		return err
	})
	if err == nil && substituted > 0 {
		logging.Warn(e.opts.logger).
			Add(logging.Path(input)).
			Add(logging.Substituted(substituted)).
			Add(logging.Err(errs.ErrEncodingLoss)).
			Msg("characters outside WinAnsiEncoding replaced")
	}
	return err
}

// Protect encrypts the document with AES-128. The output is always a
// PDF, whatever its extension, since no other format can carry the
// encryption.
func (e *Engine) Protect(ctx context.Context, input, output string, opts ProtectOptions) error {
	return e.runPDF(ctx, "protect", input, output, func(in, out string) error {
		return pdfops.Protect(in, out, opts)
	})
}

// Unlock writes a decrypted copy of input.
func (e *Engine) Unlock(ctx context.Context, input, output, password string) error {
	return e.run(ctx, "unlock", input, output, func(in, out string) error {
		return pdfops.Unlock(in, out, password)
	})
}

// Compress rewrites the document compactly and returns the bytes saved
// relative to input, never negative.
func (e *Engine) Compress(ctx context.Context, input, output string) (int64, error) {
	var saved int64
	err := e.run(ctx, "compress", input, output, func(in, out string) error {
		var err error
		saved, err = pdfops.Compress(in, out)
		return err
	})
	if err != nil {
		return 0, err
	}
	if in, err := os.Stat(input); err == nil {
		if out, err := os.Stat(output); err == nil {
			saved = max(in.Size()-out.Size(), 0)
		}
	}
	logging.Info(e.opts.logger).Add(logging.Op("compress")).Add(logging.Bytes(saved)).Msg("bytes saved")
	return saved, nil
}

// Repair rebuilds a damaged document and reports the objects dropped and
// the streams whose data could not be decoded.
func (e *Engine) Repair(ctx context.Context, input, output string) (RepairReport, error) {
	var report RepairReport
	err := e.run(ctx, "repair", input, output, func(in, out string) error {
		var err error
		report, err = pdfops.Repair(in, out)
		return err
	})
	if report.Skipped > 0 || report.Damaged > 0 {
		logging.Warn(e.opts.logger).
			Add(logging.Path(input)).
			Add(logging.Skipped(report.Skipped)).
			Add(logging.Damaged(report.Damaged)).
			Msg("unrecoverable data")
	}
	return report, err
}
