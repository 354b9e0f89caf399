package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/imagecraft/internal/compositor"
	"github.com/ivlev/imagecraft/internal/config"
	"github.com/ivlev/imagecraft/internal/source"
)

func writePNG(t *testing.T, dir, name string, w, h int, c color.Gray) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = c.Y
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestEditor(t *testing.T, cfg *config.Config) *Editor {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLatestLoadWins(t *testing.T) {
	dir := t.TempDir()
	first := writePNG(t, dir, "first.png", 300, 100, color.Gray{Y: 10})
	second := writePNG(t, dir, "second.png", 40, 80, color.Gray{Y: 200})

	e := newTestEditor(t, config.Default())
	ctx := waitCtx(t)
	e.LoadBackground(ctx, first)
	e.LoadBackground(ctx, second)

	if err := e.WaitLoad(ctx); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}
	img, ok := e.Compositor().Background()
	if !ok {
		t.Fatal("Expected a background")
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 80 {
		t.Errorf("Expected the second image, got %v", b)
	}
	if e.Compositor().BackgroundSource() != second {
		t.Errorf("Unexpected source %s", e.Compositor().BackgroundSource())
	}
}

func TestFailedLoadResetsBackground(t *testing.T) {
	e := newTestEditor(t, config.Default())
	ctx := waitCtx(t)
	e.LoadBackground(ctx, filepath.Join(t.TempDir(), "missing.png"))

	if err := e.WaitLoad(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Compositor().Background(); ok {
		t.Errorf("Expected no background after a failed load")
	}
	if _, pending := e.Compositor().Pending(); pending {
		t.Errorf("Expected no pending load")
	}
}

func TestStaleResultAfterReset(t *testing.T) {
	e := newTestEditor(t, config.Default())
	c := e.Compositor()
	token := c.BeginLoad("late.png")
	c.Reset()

	applied := e.Apply(source.Result{Token: token, Image: image.NewRGBA(image.Rect(0, 0, 10, 10))})
	if applied {
		t.Errorf("Expected stale result to be ignored")
	}
	if _, ok := c.Background(); ok {
		t.Errorf("Stale result must not install a background")
	}
}

func TestAutoColor(t *testing.T) {
	cfg := config.Default()
	cfg.AutoColor = true
	dir := t.TempDir()
	dark := writePNG(t, dir, "dark.png", 800, 600, color.Gray{Y: 5})

	e := newTestEditor(t, cfg)
	ctx := waitCtx(t)
	e.LoadBackground(ctx, dark)
	if err := e.WaitLoad(ctx); err != nil {
		t.Fatal(err)
	}
	if got := e.Compositor().Draft().Color; got != "#ffffff" {
		t.Errorf("Expected white text over a dark image, got %s", got)
	}
}

func TestImageRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 1000, 500)
	got := ImageRegion(800, 600, bounds, compositor.Rect{X: 100, Y: 100, W: 100, H: 50})
	want := image.Rect(125, 0, 250, 63)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// Entirely in the letterbox.
	if r := ImageRegion(800, 600, bounds, compositor.Rect{X: 10, Y: 10, W: 50, H: 50}); !r.Empty() {
		t.Errorf("Expected empty region, got %v", r)
	}
}

func TestFrameRendersOnChange(t *testing.T) {
	e := newTestEditor(t, config.Default())

	_, fresh, err := e.Frame()
	if err != nil || !fresh {
		t.Fatalf("Expected first frame to render: fresh=%v err=%v", fresh, err)
	}
	if _, fresh, _ := e.Frame(); fresh {
		t.Errorf("Expected cached frame without changes")
	}
	e.Compositor().AddText()
	if _, fresh, _ := e.Frame(); !fresh {
		t.Errorf("Expected new frame after AddText")
	}
}

func TestExport(t *testing.T) {
	e := newTestEditor(t, config.Default())
	e.Compositor().AddText()

	var buf bytes.Buffer
	if err := e.Export(&buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 1600 || cfg.Height != 1200 {
		t.Errorf("Expected 1600x1200, got %dx%d", cfg.Width, cfg.Height)
	}
}
