// Package cli implements the folio command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/spf13/cobra"

	"github.com/tsawler/folio"
	"github.com/tsawler/folio/internal/logging"
)

// Version information set at build time.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App is the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string

	cfg    Config
	logger *bolt.Logger
	engine *folio.Engine
}

// New creates the CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "folio",
		Short: "Convert documents and edit PDF files",
		Long: `folio converts documents between plain text, Markdown, HTML, DOCX, ODT,
LaTeX and PDF, and edits PDF files: split, merge, rotate, crop, reorder,
delete pages, number pages, watermark, protect, unlock, compress and repair.

PDF commands accept any supported input. Other formats are converted to
PDF, edited, and written back in the format named by the output path.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	flags := app.root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&app.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&app.logFormat, "log-format", "", "Log format (console or json)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newConvertCmd(),
		app.newSplitCmd(),
		app.newMergeCmd(),
		app.newRotateCmd(),
		app.newCropCmd(),
		app.newOrganizeCmd(),
		app.newDeleteCmd(),
		app.newNumberCmd(),
		app.newWatermarkCmd(),
		app.newProtectCmd(),
		app.newUnlockCmd(),
		app.newCompressCmd(),
		app.newRepairCmd(),
		app.newPagesCmd(),
		app.newWatchCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application until it finishes or is interrupted.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// setup loads the configuration and builds the logger and engine.
func (a *App) setup(cmd *cobra.Command, args []string) error {
	cfg := DefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = LoadConfig(a.configPath); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	cfg.Log.Output = a.stderr
	a.cfg = cfg
	a.logger = logging.New(cfg.Log)

	opts := []folio.Option{
		folio.WithLogger(a.logger),
		folio.WithTempDir(cfg.TempDir),
		folio.WithLayout(cfg.Layout.options()),
	}
	if cfg.Compress {
		opts = append(opts, folio.WithCompression())
	}
	a.engine = folio.New(opts...)
	return nil
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "folio version %s\n", folio.Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
