package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/tsawler/folio/docx"
	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/htmldoc"
	"github.com/tsawler/folio/internal/logging"
	"github.com/tsawler/folio/markdown"
	"github.com/tsawler/folio/odt"
	"github.com/tsawler/folio/pdfdoc"
	"github.com/tsawler/folio/textpdf"
)

// Converter converts single files. The zero value logs nothing and uses
// the default PDF layout.
type Converter struct {
	Logger *bolt.Logger
	Layout textpdf.Options
	// Compress writes generated PDFs with object streams.
	Compress bool
}

// New returns a converter that logs to logger.
func New(logger *bolt.Logger) *Converter {
	return &Converter{Logger: logger, Layout: textpdf.DefaultOptions()}
}

// Convert writes input to output in the format named by output's
// extension. A source with an unrecognized extension is identified by its
// content when possible. A pair with no conversion path is copied byte
// for byte and a warning is logged.
func (c *Converter) Convert(ctx context.Context, input, output string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := Detect(input)
	if err != nil {
		return err
	}
	out := format.DetectOutput(output)
	logging.Info(c.Logger).
		Add(logging.Op("convert")).
		Add(logging.Path(input)).
		Add(logging.Output(output)).
		Add(logging.Formats(in.String(), out.String())).
		Msg("converting")

	if err := c.dispatch(ctx, in, out, input, output); err != nil {
		logging.Error(c.Logger).Add(logging.Path(input)).Add(logging.Err(err)).Msg("conversion failed")
		return err
	}
	return nil
}

// Detect maps the extension of path to a format and falls back to
// sniffing the content. Content that cannot be identified is UnknownInput
// with a nil error.
func Detect(path string) (format.Input, error) {
	if in := format.DetectInput(path); in != format.UnknownInput {
		return in, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return format.UnknownInput, errs.E(errs.CodeIO, "convert", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return format.UnknownInput, errs.E(errs.CodeIO, "convert", path, err)
	}
	in, err := format.Sniff(f, info.Size())
	if err != nil {
		// unreadable archives and the like stay unknown and are copied
		return format.UnknownInput, nil
	}
	return in, nil
}

func (c *Converter) dispatch(ctx context.Context, in format.Input, out format.Output, input, output string) error {
	if in == format.UnknownInput || out == format.UnknownOutput {
		return c.fallback(in, out, input, output)
	}
	if sameFormat(in, out) {
		return copyFile(input, output)
	}

	switch out {
	case format.OutPDF:
		return c.toPDF(ctx, in, input, output)
	case format.OutHTML:
		if in == format.Markdown {
			src, err := readFile(input)
			if err != nil {
				return err
			}
			body, err := markdown.ToHTML(src)
			if err != nil {
				return errs.E(errs.CodeLoad, "convert", input, err)
			}
			return writeFile(ctx, output, htmlPage(stem(input), body))
		}
		return c.render(ctx, in, input, output, func(nodes []node) string {
			return htmlPage(stem(input), renderHTML(nodes))
		})
	case format.OutMarkdown:
		if in == format.HTML {
			src, err := readFile(input)
			if err != nil {
				return err
			}
			md, err := htmldoc.ToMarkdown(src)
			if err != nil {
				return errs.E(errs.CodeLoad, "convert", input, err)
			}
			return writeFile(ctx, output, md)
		}
		return c.render(ctx, in, input, output, renderMarkdown)
	case format.OutText:
		if in == format.Markdown {
			src, err := readFile(input)
			if err != nil {
				return err
			}
			text, err := markdown.ToText(src)
			if err != nil {
				return errs.E(errs.CodeLoad, "convert", input, err)
			}
			return writeFile(ctx, output, text+"\n")
		}
		return c.render(ctx, in, input, output, renderText)
	case format.OutTeX:
		return c.render(ctx, in, input, output, func(nodes []node) string {
			return renderTeX(stem(input), nodes)
		})
	case format.OutDOCX:
		nodes, err := c.nodes(in, input)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := docx.WriteFile(output, strings.TrimSuffix(renderText(nodes), "\n")); err != nil {
			return errs.E(errs.CodeIO, "convert", output, err)
		}
		return nil
	case format.OutODT:
		nodes, err := c.nodes(in, input)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := odt.WriteFile(output, strings.TrimSuffix(renderText(nodes), "\n")); err != nil {
			return errs.E(errs.CodeIO, "convert", output, err)
		}
		return nil
	case format.UnknownOutput:
	}
	return c.fallback(in, out, input, output)
}

// sameFormat reports pairs where the source already is the target.
// Text-family sources are plain text already.
func sameFormat(in format.Input, out format.Output) bool {
	switch out {
	case format.OutPDF:
		return in == format.PDF
	case format.OutHTML:
		return in == format.HTML
	case format.OutMarkdown:
		return in == format.Markdown
	case format.OutDOCX:
		return in == format.DOCX || in == format.DOTX
	case format.OutODT:
		return in == format.ODT
	case format.OutTeX:
		return in == format.TeX
	case format.OutText:
		return in.IsTextFamily()
	case format.UnknownOutput:
	}
	return false
}

func (c *Converter) fallback(in format.Input, out format.Output, input, output string) error {
	logging.Warn(c.Logger).
		Add(logging.Path(input)).
		Add(logging.Formats(in.String(), out.String())).
		Add(logging.Err(errs.ErrUnsupportedConversion)).
		Msg("no conversion path, copying bytes")
	return copyFile(input, output)
}

func (c *Converter) nodes(in format.Input, input string) ([]node, error) {
	nodes, err := readNodes(in, input)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, err
		}
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, errs.E(errs.CodeIO, "convert", input, err)
		}
		return nil, errs.E(errs.CodeLoad, "convert", input, err)
	}
	return nodes, nil
}

func (c *Converter) render(ctx context.Context, in format.Input, input, output string, fn func([]node) string) error {
	nodes, err := c.nodes(in, input)
	if err != nil {
		return err
	}
	return writeFile(ctx, output, fn(nodes))
}

func (c *Converter) toPDF(ctx context.Context, in format.Input, input, output string) error {
	var blocks []textpdf.Block
	switch in {
	case format.Markdown:
		src, err := readFile(input)
		if err != nil {
			return err
		}
		if blocks, err = markdown.ToBlocks(src); err != nil {
			return errs.E(errs.CodeLoad, "convert", input, err)
		}
	case format.HTML:
		src, err := readFile(input)
		if err != nil {
			return err
		}
		if blocks, err = htmldoc.ToBlocks(src); err != nil {
			return errs.E(errs.CodeLoad, "convert", input, err)
		}
	default:
		nodes, err := c.nodes(in, input)
		if err != nil {
			return err
		}
		blocks = renderBlocks(nodes)
	}

	doc, stats, err := textpdf.FromBlocks(blocks, c.Layout)
	if err != nil {
		return err
	}
	if stats.Substituted > 0 {
		logging.Warn(c.Logger).
			Add(logging.Path(input)).
			Add(logging.Substituted(stats.Substituted)).
			Add(logging.Err(errs.ErrEncodingLoss)).
			Msg("characters outside WinAnsiEncoding replaced")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := doc.WriteFile(output, pdfdoc.SaveOptions{Compress: c.Compress}); err != nil {
		return err
	}
	logging.Info(c.Logger).Add(logging.Output(output)).Add(logging.Pages(stats.Pages)).Msg("pdf written")
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.E(errs.CodeIO, "convert", path, err)
	}
	return string(data), nil
}

func writeFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errs.E(errs.CodeIO, "convert", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errs.E(errs.CodeIO, "convert", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errs.E(errs.CodeIO, "convert", dst, err)
	}
	return nil
}
