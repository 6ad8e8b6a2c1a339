package folio

import (
	"github.com/felixgeelhaar/bolt/v3"

	"github.com/tsawler/folio/internal/logging"
	"github.com/tsawler/folio/textpdf"
)

// Option configures an Engine.
type Option func(*options)

// options holds the Engine configuration.
type options struct {
	logger *bolt.Logger
	// tempDir is where per-call scratch directories are created;
	// empty means os.TempDir.
	tempDir string
	layout  textpdf.Options
	// compress writes generated PDFs with object streams.
	compress bool
}

// defaultOptions logs nothing and lays out A4 pages.
func defaultOptions() options {
	return options{
		logger: logging.Discard(),
		layout: textpdf.DefaultOptions(),
	}
}

// WithLogger sends engine events to l.
func WithLogger(l *bolt.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTempDir places scratch files under dir instead of the system
// temporary directory.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithLayout sets the page geometry and typography of generated PDFs.
func WithLayout(layout textpdf.Options) Option {
	return func(o *options) {
		o.layout = layout
	}
}

// WithCompression writes PDFs produced by conversion with object streams.
func WithCompression() Option {
	return func(o *options) {
		o.compress = true
	}
}
