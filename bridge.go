package folio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tsawler/folio/convert"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/internal/logging"
	"github.com/tsawler/folio/pdfops"
)

// scratch is the private working directory of one call.
type scratch struct {
	dir string
}

// newScratch creates a directory unique to this call. The name carries a
// random token and the input's stem so concurrent calls on files with the
// same name never share intermediates.
func (e *Engine) newScratch(op, input string) (*scratch, error) {
	pattern := fmt.Sprintf("folio-%s-%s-*", uuid.NewString(), strings.ReplaceAll(stem(input), "*", "_"))
	dir, err := os.MkdirTemp(e.opts.tempDir, pattern)
	if err != nil {
		return nil, errs.E(errs.CodeIO, op, e.opts.tempDir, err)
	}
	return &scratch{dir: dir}, nil
}

func (s *scratch) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (e *Engine) release(s *scratch) {
	if err := os.RemoveAll(s.dir); err != nil {
		logging.Warn(e.opts.logger).Add(logging.Path(s.dir)).Add(logging.Err(err)).Msg("removing scratch directory")
	}
}

// isPDF reports whether input is read as a PDF.
func isPDF(op, input string) (bool, error) {
	in, err := convert.Detect(input)
	if err != nil {
		return false, errs.WithPath(err, errs.CodeIO, op, input)
	}
	return in == format.PDF, nil
}

// stage converts input to a PDF named name inside s.
func (e *Engine) stage(ctx context.Context, s *scratch, op, input, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	in, err := convert.Detect(input)
	if err != nil {
		return "", errs.WithPath(err, errs.CodeIO, op, input)
	}
	if in == format.UnknownInput {
		return "", &errs.Error{Code: errs.CodeUnsupportedConversion, Op: op, Path: input, Msg: "cannot convert input to PDF"}
	}
	pdf := s.path(name)
	if err := e.converter.Convert(ctx, input, pdf); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", errs.WithPath(err, errs.CodeLoad, op, input)
	}
	return pdf, nil
}

// deliver moves a finished PDF to output, converting it when output names
// another format unless raw is set.
func (e *Engine) deliver(ctx context.Context, op, pdf, output string, raw bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if raw || format.DetectOutput(output) == format.OutPDF {
		return copyFile(op, pdf, output)
	}
	return e.converter.Convert(ctx, pdf, output)
}

// run applies fn to input and writes output. A PDF input is handed to fn
// directly. Anything else is converted to a scratch PDF, fn writes a
// second scratch PDF, and that is delivered to output.
func (e *Engine) run(ctx context.Context, op, input, output string, fn func(in, out string) error) error {
	return e.logged(op, input, output, func() error {
		return e.bridge(ctx, op, input, output, false, fn)
	})
}

// runPDF is run for results that must stay PDF whatever output's
// extension.
func (e *Engine) runPDF(ctx context.Context, op, input, output string, fn func(in, out string) error) error {
	return e.logged(op, input, output, func() error {
		return e.bridge(ctx, op, input, output, true, fn)
	})
}

func (e *Engine) logged(op, input, output string, fn func() error) error {
	logging.Info(e.opts.logger).Add(logging.Op(op)).Add(logging.Path(input)).Add(logging.Output(output)).Msg("starting")
	err := fn()
	if err != nil {
		logging.Error(e.opts.logger).Add(logging.Op(op)).Add(logging.Path(input)).Add(logging.Err(err)).Msg("operation failed")
		return err
	}
	logging.Info(e.opts.logger).Add(logging.Op(op)).Add(logging.Output(output)).Msg("done")
	return nil
}

// distinct fails when output names one of inputs. Operations never
// write over their input, whatever the formats involved.
func distinct(op, output string, inputs ...string) error {
	for _, in := range inputs {
		if pdfops.SameFile(in, output) {
			return &errs.Error{Code: errs.CodeInvalidArgument, Op: op, Path: output, Msg: "output would overwrite the input"}
		}
	}
	return nil
}

func (e *Engine) bridge(ctx context.Context, op, input, output string, raw bool, fn func(in, out string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := distinct(op, output, input); err != nil {
		return err
	}
	pdf, err := isPDF(op, input)
	if err != nil {
		return err
	}
	if pdf {
		return fn(input, output)
	}

	s, err := e.newScratch(op, input)
	if err != nil {
		return err
	}
	defer e.release(s)

	staged, err := e.stage(ctx, s, op, input, stem(input)+".pdf")
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	result := s.path("result.pdf")
	if err := fn(staged, result); err != nil {
		return err
	}
	return e.deliver(ctx, op, result, output, raw)
}

// inspect hands fn a PDF rendition of input without writing anything.
func (e *Engine) inspect(ctx context.Context, op, input string, fn func(pdf string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pdf, err := isPDF(op, input)
	if err != nil {
		return err
	}
	if pdf {
		return fn(input)
	}
	s, err := e.newScratch(op, input)
	if err != nil {
		return err
	}
	defer e.release(s)
	staged, err := e.stage(ctx, s, op, input, stem(input)+".pdf")
	if err != nil {
		return err
	}
	return fn(staged)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func copyFile(op, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errs.E(errs.CodeIO, op, src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errs.E(errs.CodeIO, op, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errs.E(errs.CodeIO, op, dst, err)
	}
	if err := out.Close(); err != nil {
		return errs.E(errs.CodeIO, op, dst, err)
	}
	return nil
}
