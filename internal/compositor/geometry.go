package compositor

import (
	"math"

	"github.com/ivlev/imagecraft/internal/config"
	"github.com/ivlev/imagecraft/internal/overlay"
)

// Point is a position in surface coordinates.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned box in surface coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Contains is inclusive on all four edges.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Pad grows the box by d on every side.
func (r Rect) Pad(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Measurer returns the advance width of str rendered with style s at scale 1.
type Measurer interface {
	Measure(s overlay.Style, str string) float64
}

// TextBounds computes the box used both for the selection outline and for
// hit testing. In legacy mode the whole string is measured as one run and
// the height is the font size, anchored on the first baseline. In
// multiline mode the widest line and the full line stack are used.
func TextBounds(m Measurer, o overlay.TextOverlay, mode string) Rect {
	s := o.Style
	if mode != config.HitBoxMultiline {
		w := m.Measure(s, s.Text)
		return Rect{
			X: o.X - s.Alignment.Offset(w),
			Y: o.Y - s.FontSize,
			W: w,
			H: s.FontSize,
		}
	}

	lines := s.Lines()
	w := 0.0
	for _, line := range lines {
		w = math.Max(w, m.Measure(s, line))
	}
	return Rect{
		X: o.X - s.Alignment.Offset(w),
		Y: o.Y - s.FontSize,
		W: w,
		H: s.FontSize + float64(len(lines)-1)*s.FontSize*overlay.LineHeight,
	}
}

// Viewport maps display coordinates (where the surface is shown, possibly
// scaled and offset) back into surface coordinates.
type Viewport struct {
	OffsetX, OffsetY   float64
	DisplayW, DisplayH float64
	SurfaceW, SurfaceH float64
}

// Identity is a viewport that shows the surface 1:1 at the origin.
func Identity(surfaceW, surfaceH int) Viewport {
	w, h := float64(surfaceW), float64(surfaceH)
	return Viewport{DisplayW: w, DisplayH: h, SurfaceW: w, SurfaceH: h}
}

// ToSurface converts a display position into surface coordinates.
func (v Viewport) ToSurface(x, y float64) Point {
	if v.DisplayW <= 0 || v.DisplayH <= 0 {
		return Point{X: x - v.OffsetX, Y: y - v.OffsetY}
	}
	return Point{
		X: (x - v.OffsetX) * v.SurfaceW / v.DisplayW,
		Y: (y - v.OffsetY) * v.SurfaceH / v.DisplayH,
	}
}

// Inside reports whether a display position falls on the shown surface.
func (v Viewport) Inside(x, y float64) bool {
	return x >= v.OffsetX && x < v.OffsetX+v.DisplayW &&
		y >= v.OffsetY && y < v.OffsetY+v.DisplayH
}
