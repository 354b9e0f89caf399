// Package editor ties the compositor, the renderer and the image loader
// into one owner. Every method must be called from the same goroutine;
// background decodes come back as source.Result values on Events() and are
// installed with Apply.
package editor

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/ivlev/imagecraft/internal/analyzer"
	"github.com/ivlev/imagecraft/internal/compositor"
	"github.com/ivlev/imagecraft/internal/config"
	"github.com/ivlev/imagecraft/internal/fonts"
	"github.com/ivlev/imagecraft/internal/render"
	"github.com/ivlev/imagecraft/internal/source"
)

type Editor struct {
	cfg    *config.Config
	comp   *compositor.Compositor
	fonts  *fonts.Registry
	render *render.Renderer
	loader *source.Loader
	events chan source.Result

	frame    *image.RGBA
	frameRev uint64
}

func New(cfg *config.Config) (*Editor, error) {
	reg, err := fonts.NewRegistry(cfg.FontsDir)
	if err != nil {
		return nil, fmt.Errorf("fonts: %w", err)
	}
	return &Editor{
		cfg:    cfg,
		comp:   compositor.New(compositor.OptionsFromConfig(cfg), reg),
		fonts:  reg,
		render: render.New(cfg, reg),
		loader: source.NewLoader(cfg),
		events: make(chan source.Result, 8),
	}, nil
}

// Compositor exposes the state container for interaction.
func (e *Editor) Compositor() *compositor.Compositor {
	return e.comp
}

func (e *Editor) Loader() *source.Loader {
	return e.loader
}

// Events delivers finished background loads.
func (e *Editor) Events() <-chan source.Result {
	return e.events
}

// LoadBackground starts decoding src in the background and returns the
// token of the request. The previous background is discarded at once.
func (e *Editor) LoadBackground(ctx context.Context, src string) compositor.Token {
	token := e.comp.BeginLoad(src)
	e.loader.Start(ctx, token, src, func(r source.Result) {
		select {
		case e.events <- r:
		case <-ctx.Done():
		}
	})
	return token
}

// Apply installs a load result if it belongs to the latest request. It
// reports whether the state changed.
func (e *Editor) Apply(r source.Result) bool {
	if r.Err != nil {
		return e.comp.FailLoad(r.Token, r.Err)
	}
	if !e.comp.CompleteLoad(r.Token, r.Image) {
		return false
	}
	if e.cfg.AutoColor {
		e.autoColor(r.Image)
	}
	return true
}

// WaitLoad applies results until no load is outstanding.
func (e *Editor) WaitLoad(ctx context.Context) error {
	for {
		if _, pending := e.comp.Pending(); !pending {
			return nil
		}
		select {
		case r := <-e.events:
			e.Apply(r)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// autoColor picks black or white for the draft depending on the
// brightness behind the default anchor.
func (e *Editor) autoColor(img image.Image) {
	draft := e.comp.Draft()
	w := e.fonts.Measure(draft, draft.Text)
	area := compositor.Rect{
		X: e.cfg.AnchorX - draft.Alignment.Offset(w),
		Y: e.cfg.AnchorY - draft.FontSize,
		W: w,
		H: draft.FontSize,
	}
	region := ImageRegion(e.cfg.SurfaceWidth, e.cfg.SurfaceHeight, img.Bounds(), area)
	c := analyzer.SuggestTextColor(img, region, draft.Color)
	if c == draft.Color {
		return
	}
	if err := e.comp.SetColor(c); err == nil {
		fmt.Printf("[*] Цвет текста подобран под фон: %s\n", c)
	}
}

// ImageRegion maps a surface rectangle onto pixel coordinates of an image
// drawn with contain-fit.
func ImageRegion(surfaceW, surfaceH int, bounds image.Rectangle, area compositor.Rect) image.Rectangle {
	fit := render.ContainFit(float64(surfaceW), float64(surfaceH), float64(bounds.Dx()), float64(bounds.Dy()))
	if fit.W == 0 || fit.H == 0 {
		return image.Rectangle{}
	}
	sx := float64(bounds.Dx()) / fit.W
	sy := float64(bounds.Dy()) / fit.H
	r := image.Rect(
		bounds.Min.X+int(math.Floor((area.X-fit.X)*sx)),
		bounds.Min.Y+int(math.Floor((area.Y-fit.Y)*sy)),
		bounds.Min.X+int(math.Ceil((area.X+area.W-fit.X)*sx)),
		bounds.Min.Y+int(math.Ceil((area.Y+area.H-fit.Y)*sy)),
	)
	return r.Intersect(bounds)
}

// Frame returns the preview, re-rendering only if something changed since
// the last call. fresh reports whether a new frame was produced.
func (e *Editor) Frame() (img *image.RGBA, fresh bool, err error) {
	rev := e.comp.Revision()
	if e.frame != nil && rev == e.frameRev {
		return e.frame, false, nil
	}
	img, err = e.render.Frame(e.comp.Scene())
	if err != nil {
		return nil, false, err
	}
	e.frame, e.frameRev = img, rev
	return img, true, nil
}

// Export writes the 2x PNG to w.
func (e *Editor) Export(w io.Writer) error {
	return e.render.ExportPNG(w, e.comp.Scene())
}

// SaveExport writes the export under its fixed name into dir.
func (e *Editor) SaveExport(dir string) (string, error) {
	return e.render.SaveExport(dir, e.comp.Scene())
}

// SaveExportAs writes the export to path.
func (e *Editor) SaveExportAs(path string) error {
	return e.render.SaveExportAs(path, e.comp.Scene())
}
