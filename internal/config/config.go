package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/imagecraft/internal/overlay"
)

// HitBox modes for selection boxes and hit testing.
const (
	// HitBoxLegacy measures the whole text as one run and uses the font
	// size as the height, so only the first line of multi-line text is
	// reliably hit.
	HitBoxLegacy = "legacy"
	// HitBoxMultiline uses the widest line and the full extent of all lines.
	HitBoxMultiline = "multiline"
)

type Config struct {
	SurfaceWidth  int     `yaml:"surface_width"`
	SurfaceHeight int     `yaml:"surface_height"`
	ExportScale   float64 `yaml:"export_scale"`
	ExportName    string  `yaml:"export_name"`
	Background    string  `yaml:"background"`

	SelectionColor   string    `yaml:"selection_color"`
	SelectionWidth   float64   `yaml:"selection_width"`
	SelectionDash    []float64 `yaml:"selection_dash"`
	SelectionPadding float64   `yaml:"selection_padding"`
	HitBox           string    `yaml:"hit_box"`

	AnchorX     float64       `yaml:"anchor_x"`
	AnchorY     float64       `yaml:"anchor_y"`
	Draft       overlay.Style `yaml:"draft"`
	MinFontSize float64       `yaml:"min_font_size"`
	MaxFontSize float64       `yaml:"max_font_size"`

	TemplatesDir string  `yaml:"templates_dir"`
	FontsDir     string  `yaml:"fonts_dir"`
	FetchTimeout float64 `yaml:"fetch_timeout"` // seconds
	PDFDPI       int     `yaml:"pdf_dpi"`

	AutoColor bool   `yaml:"auto_color"`
	QRText    string `yaml:"qr_text"`
	QRSize    int    `yaml:"qr_size"`

	OutputDir    string `yaml:"output_dir"`
	Workers      int    `yaml:"workers"`
	ShowStats    bool   `yaml:"show_stats"`
	Debug        bool   `yaml:"debug"`
	LogFile      string `yaml:"log_file"` // log destination while the TUI owns the terminal
	BuildVersion string `yaml:"-"`
}

// Default returns the settings of the stock editor.
func Default() *Config {
	return &Config{
		SurfaceWidth:     800,
		SurfaceHeight:    600,
		ExportScale:      2,
		ExportName:       "edited-image.png",
		Background:       "#f8fafc",
		SelectionColor:   "#3b82f6",
		SelectionWidth:   2,
		SelectionDash:    []float64{5, 5},
		SelectionPadding: 5,
		HitBox:           HitBoxLegacy,
		AnchorX:          100,
		AnchorY:          100,
		Draft: overlay.Style{
			Text:       "Sample Text",
			FontSize:   32,
			FontFamily: "Arial",
			Color:      "#000000",
			Alignment:  overlay.AlignLeft,
		},
		MinFontSize:  12,
		MaxFontSize:  100,
		TemplatesDir: "public",
		FetchTimeout: 15,
		PDFDPI:       150,
		QRSize:       96,
		OutputDir:    "output",
		Workers:      1,
	}
}

// Load reads a YAML file over the defaults. Missing keys keep their default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the compositor cannot work with.
func (c *Config) Validate() error {
	if c.SurfaceWidth <= 0 || c.SurfaceHeight <= 0 {
		return fmt.Errorf("surface must be positive, got %dx%d", c.SurfaceWidth, c.SurfaceHeight)
	}
	if c.ExportScale < 1 {
		return fmt.Errorf("export_scale must be >= 1, got %g", c.ExportScale)
	}
	if c.ExportName == "" {
		return fmt.Errorf("export_name is empty")
	}
	if !overlay.ValidColor(c.Background) {
		return fmt.Errorf("background: %w: %q", overlay.ErrBadColor, c.Background)
	}
	if !overlay.ValidColor(c.SelectionColor) {
		return fmt.Errorf("selection_color: %w: %q", overlay.ErrBadColor, c.SelectionColor)
	}
	if c.MinFontSize <= 0 || c.MinFontSize > c.MaxFontSize {
		return fmt.Errorf("font size range [%g, %g] is invalid", c.MinFontSize, c.MaxFontSize)
	}
	if c.HitBox != HitBoxLegacy && c.HitBox != HitBoxMultiline {
		return fmt.Errorf("hit_box must be %q or %q, got %q", HitBoxLegacy, HitBoxMultiline, c.HitBox)
	}
	if err := c.Draft.Validate(c.MinFontSize, c.MaxFontSize); err != nil {
		return fmt.Errorf("draft: %w", err)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}
