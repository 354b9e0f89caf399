// Package render paints a compositor scene onto a gg drawing context. The
// same routine serves the on-screen preview and the upscaled export; the
// differences are expressed through Options.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/imagecraft/internal/compositor"
	"github.com/ivlev/imagecraft/internal/config"
	"github.com/ivlev/imagecraft/internal/fonts"
	"github.com/ivlev/imagecraft/internal/overlay"
	"github.com/ivlev/imagecraft/internal/system"
)

// FillPolicy decides what lies under the background image.
type FillPolicy int

const (
	// FillOpaque always paints the flat background color first.
	FillOpaque FillPolicy = iota
	// FillClearUnderImage leaves the letterbox transparent when an image
	// is present and paints the flat color only when there is none.
	FillClearUnderImage
)

// Options parameterise one pass of the pipeline.
type Options struct {
	Scale     float64
	Fill      FillPolicy
	Selection bool
	Watermark bool
}

// Preview is the on-screen pass: scale 1, opaque fill, selection outline.
var Preview = Options{Scale: 1, Fill: FillOpaque, Selection: true}

type Renderer struct {
	fonts *fonts.Registry

	background     string
	selectionColor string
	selectionWidth float64
	selectionDash  []float64
	exportScale    float64
	exportName     string
	qrText         string
	qrSize         int

	// cached conversion of the current background
	bgSrc image.Image
	bgBuf *gg.ImageBuf
}

func New(cfg *config.Config, reg *fonts.Registry) *Renderer {
	return &Renderer{
		fonts:          reg,
		background:     cfg.Background,
		selectionColor: cfg.SelectionColor,
		selectionWidth: cfg.SelectionWidth,
		selectionDash:  cfg.SelectionDash,
		exportScale:    cfg.ExportScale,
		exportName:     cfg.ExportName,
		qrText:         cfg.QRText,
		qrSize:         cfg.QRSize,
	}
}

// ContainFit scales an image uniformly to fit inside the surface without
// cropping and centers it on the axis with slack.
func ContainFit(surfaceW, surfaceH, imgW, imgH float64) compositor.Rect {
	if surfaceW <= 0 || surfaceH <= 0 || imgW <= 0 || imgH <= 0 {
		return compositor.Rect{}
	}
	surfaceAR := surfaceW / surfaceH
	imgAR := imgW / imgH

	if imgAR > surfaceAR {
		h := surfaceW / imgAR
		return compositor.Rect{X: 0, Y: (surfaceH - h) / 2, W: surfaceW, H: h}
	}
	w := surfaceH * imgAR
	return compositor.Rect{X: (surfaceW - w) / 2, Y: 0, W: w, H: surfaceH}
}

// Draw paints scene onto dc. dc must be at least Scale times the scene size.
func (r *Renderer) Draw(dc *gg.Context, scene compositor.Scene, opts Options) error {
	if dc == nil {
		return nil
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	// 1-2. Clear, then the flat fill.
	dc.Clear()
	if opts.Fill == FillOpaque || scene.Background == nil {
		dc.ClearWithColor(gg.Hex(r.background))
	}

	// 3. Background image, contain-fit.
	if scene.Background != nil {
		b := scene.Background.Bounds()
		fit := ContainFit(float64(scene.Width), float64(scene.Height), float64(b.Dx()), float64(b.Dy()))
		dc.DrawImageEx(r.backgroundBuf(scene.Background), gg.DrawImageOptions{
			X:             fit.X * scale,
			Y:             fit.Y * scale,
			DstWidth:      fit.W * scale,
			DstHeight:     fit.H * scale,
			Interpolation: gg.InterpBilinear,
			Opacity:       1,
			BlendMode:     gg.BlendNormal,
		})
	}

	// 4-5. Text in insertion order, outline right after the selected one.
	for _, o := range scene.Overlays {
		r.drawText(dc, o, scale)
		if opts.Selection && o.Selected && scene.Selection != nil {
			if err := r.strokeSelection(dc, *scene.Selection, scale); err != nil {
				return fmt.Errorf("selection outline: %w", err)
			}
		}
	}

	if opts.Watermark && r.qrText != "" {
		if err := r.drawQR(dc, scene, scale); err != nil {
			log.Printf("[!] QR-код не нарисован: %v", err)
		}
	}
	return nil
}

func (r *Renderer) drawText(dc *gg.Context, o overlay.TextOverlay, scale float64) {
	face := r.fonts.Face(o.Style, scale)
	dc.SetFont(face)
	dc.SetHexColor(o.Style.Color)

	step := o.Style.FontSize * overlay.LineHeight
	for i, line := range o.Style.Lines() {
		if line == "" {
			continue
		}
		w, _ := text.Measure(line, face)
		x := o.X*scale - o.Style.Alignment.Offset(w)
		y := (o.Y + float64(i)*step) * scale
		dc.DrawString(line, x, y)
	}
}

func (r *Renderer) strokeSelection(dc *gg.Context, box compositor.Rect, scale float64) error {
	dash := make([]float64, len(r.selectionDash))
	for i, d := range r.selectionDash {
		dash[i] = d * scale
	}
	stroke := gg.DefaultStroke().WithWidth(r.selectionWidth * scale)
	if len(dash) > 0 {
		stroke = stroke.WithDashPattern(dash...)
	}
	dc.SetStroke(stroke)
	dc.SetHexColor(r.selectionColor)
	dc.DrawRectangle(box.X*scale, box.Y*scale, box.W*scale, box.H*scale)
	err := dc.Stroke()
	dc.SetStroke(gg.DefaultStroke())
	return err
}

func (r *Renderer) drawQR(dc *gg.Context, scene compositor.Scene, scale float64) error {
	q, err := qrcode.New(r.qrText, qrcode.Medium)
	if err != nil {
		return err
	}
	side := int(float64(r.qrSize) * scale)
	margin := 8 * scale
	img := q.Image(side)
	dc.DrawImage(gg.ImageBufFromImage(img),
		float64(scene.Width)*scale-float64(side)-margin,
		float64(scene.Height)*scale-float64(side)-margin)
	return nil
}

func (r *Renderer) backgroundBuf(img image.Image) *gg.ImageBuf {
	if r.bgBuf == nil || r.bgSrc != img {
		r.bgBuf = gg.ImageBufFromImage(img)
		r.bgSrc = img
	}
	return r.bgBuf
}

// Frame renders the on-screen preview.
func (r *Renderer) Frame(scene compositor.Scene) (*image.RGBA, error) {
	pm := system.GetPixmap(scene.Width, scene.Height)
	defer system.PutPixmap(pm)

	dc := gg.NewContext(scene.Width, scene.Height, gg.WithPixmap(pm))
	defer dc.Close()

	if err := r.Draw(dc, scene, Preview); err != nil {
		return nil, err
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	return pm.ToImage(), nil
}

// Export renders the flattened composition at the export scale. The
// selection outline is never part of an export.
func (r *Renderer) Export(scene compositor.Scene) (*image.RGBA, error) {
	w := int(float64(scene.Width) * r.exportScale)
	h := int(float64(scene.Height) * r.exportScale)

	dc := gg.NewContext(w, h)
	defer dc.Close()

	opts := Options{Scale: r.exportScale, Fill: FillClearUnderImage, Watermark: true}
	if err := r.Draw(dc, scene, opts); err != nil {
		return nil, err
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("unexpected surface type %T", dc.Image())
	}
	return img, nil
}

// ExportPNG writes the export as PNG to w.
func (r *Renderer) ExportPNG(w io.Writer, scene compositor.Scene) error {
	img, err := r.Export(scene)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SaveExport writes the export into dir under the fixed export name and
// returns the file path.
func (r *Renderer) SaveExport(dir string, scene compositor.Scene) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, r.exportName)
	return path, r.SaveExportAs(path, scene)
}

// SaveExportAs writes the export to path.
func (r *Renderer) SaveExportAs(path string, scene compositor.Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := r.ExportPNG(f, scene); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
