package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/folio/internal/logging"
	"github.com/tsawler/folio/textpdf"
)

// Config is the YAML configuration file.
type Config struct {
	Log logging.Config `yaml:"log"`

	// TempDir holds per-call scratch directories; empty means the system
	// temporary directory.
	TempDir string `yaml:"temp_dir"`

	// Compress writes PDFs produced by conversion with object streams.
	Compress bool `yaml:"compress"`

	Layout LayoutConfig `yaml:"layout"`
	Watch  WatchConfig  `yaml:"watch"`
}

// LayoutConfig sets the geometry of generated PDFs, in points. Zero
// values keep the defaults.
type LayoutConfig struct {
	PageWidth    float64 `yaml:"page_width"`
	PageHeight   float64 `yaml:"page_height"`
	Margin       float64 `yaml:"margin"`
	FontSize     float64 `yaml:"font_size"`
	Leading      float64 `yaml:"leading"`
	LinesPerPage int     `yaml:"lines_per_page"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	// Settle is how long a file must stay unchanged before it is
	// converted.
	Settle time.Duration `yaml:"settle"`
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() Config {
	return Config{
		Log:   logging.DefaultConfig(),
		Watch: WatchConfig{Settle: 500 * time.Millisecond},
	}
}

// LoadConfig reads path over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// options converts the layout section for the PDF generator.
func (l LayoutConfig) options() textpdf.Options {
	return textpdf.Options{
		PageWidth:    l.PageWidth,
		PageHeight:   l.PageHeight,
		Margin:       l.Margin,
		FontSize:     l.FontSize,
		Leading:      l.Leading,
		LinesPerPage: l.LinesPerPage,
	}
}
