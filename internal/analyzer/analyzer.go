// Package analyzer inspects background images to pick a readable text color.
package analyzer

import (
	"image"
	"image/color"
)

const (
	Dark  = "#000000"
	Light = "#ffffff"
)

// threshold splits dark from light backgrounds on the 0-255 luma scale.
const threshold = 128

// Luminance returns the mean luma (0-255) of img inside region. Fully
// transparent pixels are skipped. ok is false when no pixel was sampled.
func Luminance(img image.Image, region image.Rectangle) (float64, bool) {
	if img == nil {
		return 0, false
	}
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return 0, false
	}

	// Large regions are sampled on a grid.
	step := 1
	if n := region.Dx() * region.Dy(); n > 256*256 {
		step = 4
	}

	var sum float64
	var count int
	for y := region.Min.Y; y < region.Max.Y; y += step {
		for x := region.Min.X; x < region.Max.X; x += step {
			c := img.At(x, y)
			if _, _, _, a := c.RGBA(); a == 0 {
				continue
			}
			sum += float64(color.GrayModel.Convert(c).(color.Gray).Y)
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// SuggestTextColor returns Light over dark areas and Dark over light ones.
// fallback is returned when the region has nothing to sample.
func SuggestTextColor(img image.Image, region image.Rectangle, fallback string) string {
	l, ok := Luminance(img, region)
	if !ok {
		return fallback
	}
	if l < threshold {
		return Light
	}
	return Dark
}
