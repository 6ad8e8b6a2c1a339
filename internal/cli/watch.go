package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tsawler/folio/format"
	"github.com/tsawler/folio/internal/logging"
)

func (a *App) newWatchCmd() *cobra.Command {
	var to, outDir string
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Convert files as they appear in a directory",
		Long: `Watch a directory and convert every supported file that is created or
modified to the format given by --to. A file is converted once it has
stopped changing for the configured settle time. Runs until interrupted.`,
		Example: `  folio watch inbox --to pdf --out outbox`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = args[0]
			}
			target := strings.TrimPrefix(strings.ToLower(to), ".")
			if format.DetectOutput("x."+target) == format.UnknownOutput {
				return fmt.Errorf("unsupported output format %q", to)
			}
			return a.watch(cmd.Context(), args[0], outDir, target)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output extension, e.g. pdf or md (required)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default: the watched directory)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// watch converts settled files in dir until ctx is done.
func (a *App) watch(ctx context.Context, dir, outDir, target string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	settle := a.cfg.Watch.Settle
	if settle <= 0 {
		settle = DefaultConfig().Watch.Settle
	}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	logging.Info(a.logger).Add(logging.Path(dir)).Add(logging.Output(outDir)).Msg("watching")
	pending := map[string]time.Time{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) && watchable(ev.Name, target) {
				pending[ev.Name] = time.Now()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Warn(a.logger).Add(logging.Path(dir)).Add(logging.Err(err)).Msg("watcher error")
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)
				a.convertWatched(ctx, path, outDir, target)
			}
		}
	}
}

func (a *App) convertWatched(ctx context.Context, path, outDir, target string) {
	base := filepath.Base(path)
	out := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+"."+target)
	if err := a.engine.Convert(ctx, path, out); err != nil {
		// already logged by the converter
		return
	}
	fmt.Fprintln(a.stdout, out)
}

// watchable skips hidden and temporary files, unsupported inputs, and
// files already in the target format.
func watchable(path, target string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), ".")
	if ext == target {
		return false
	}
	return format.DetectInput(path) != format.UnknownInput
}
