package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.SurfaceWidth != 800 || cfg.SurfaceHeight != 600 {
		t.Errorf("Expected 800x600, got %dx%d", cfg.SurfaceWidth, cfg.SurfaceHeight)
	}
	if cfg.ExportScale != 2 || cfg.ExportName != "edited-image.png" {
		t.Errorf("Unexpected export settings: %g %s", cfg.ExportScale, cfg.ExportName)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagecraft.yaml")
	data := []byte("surface_width: 640\nhit_box: multiline\ndraft:\n  text: Hello\n  font_size: 48\n  font_family: Impact\n  color: \"#ffffff\"\n  alignment: center\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SurfaceWidth != 640 {
		t.Errorf("Expected width 640, got %d", cfg.SurfaceWidth)
	}
	if cfg.SurfaceHeight != 600 {
		t.Errorf("Expected default height 600, got %d", cfg.SurfaceHeight)
	}
	if cfg.HitBox != HitBoxMultiline {
		t.Errorf("Expected multiline hit box, got %s", cfg.HitBox)
	}
	if cfg.Draft.FontFamily != "Impact" || cfg.Draft.FontSize != 48 {
		t.Errorf("Draft not loaded: %+v", cfg.Draft)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero surface", func(c *Config) { c.SurfaceWidth = 0 }},
		{"small scale", func(c *Config) { c.ExportScale = 0.5 }},
		{"bad background", func(c *Config) { c.Background = "white" }},
		{"inverted sizes", func(c *Config) { c.MinFontSize = 200 }},
		{"hit box", func(c *Config) { c.HitBox = "exact" }},
		{"draft font", func(c *Config) { c.Draft.FontFamily = "Wingdings" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Draft.Text != "Sample Text" {
		t.Errorf("Expected default draft, got %q", cfg.Draft.Text)
	}
}
