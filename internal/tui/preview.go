package tui

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ivlev/imagecraft/internal/compositor"
)

// layout places the preview on the terminal grid. One cell shows two
// vertically stacked pixels using the upper half block.
type layout struct {
	top        int // first terminal row of the preview
	cols, rows int
}

// fitLayout sizes the preview to the terminal, keeping the surface aspect
// ratio with square pixels.
func fitLayout(termW, termH, top, bottom, surfaceW, surfaceH int) layout {
	availW := termW
	availH := termH - top - bottom
	if availW < 1 || availH < 1 || surfaceW < 1 || surfaceH < 1 {
		return layout{top: top}
	}

	cols := availW
	rows := cols * surfaceH / (surfaceW * 2)
	if rows > availH {
		rows = availH
		cols = rows * 2 * surfaceW / surfaceH
	}
	if cols < 1 || rows < 1 {
		return layout{top: top}
	}
	return layout{top: top, cols: cols, rows: rows}
}

// viewport maps terminal cells to surface coordinates. Cell centers are
// used so a click lands in the middle of the cell.
func (l layout) viewport(surfaceW, surfaceH int) compositor.Viewport {
	return compositor.Viewport{
		OffsetY:  float64(l.top),
		DisplayW: float64(l.cols),
		DisplayH: float64(l.rows),
		SurfaceW: float64(surfaceW),
		SurfaceH: float64(surfaceH),
	}
}

func (l layout) empty() bool {
	return l.cols == 0 || l.rows == 0
}

// halfBlocks scales frame to cols x 2*rows and renders it with 24-bit
// foreground/background colors.
func halfBlocks(frame image.Image, cols, rows int) string {
	if frame == nil || cols < 1 || rows < 1 {
		return ""
	}
	small := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	var b strings.Builder
	b.Grow(cols * rows * 40)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			t := small.RGBAAt(x, 2*y)
			u := small.RGBAAt(x, 2*y+1)
			fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀", t.R, t.G, t.B, u.R, u.G, u.B)
		}
		b.WriteString("\x1b[0m")
		if y < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
