package fonts

import (
	"testing"

	"github.com/ivlev/imagecraft/internal/overlay"
)

func style(size float64) overlay.Style {
	return overlay.Style{FontSize: size, FontFamily: "Arial", Color: "#000000", Alignment: overlay.AlignLeft}
}

func TestMeasureScalesWithSize(t *testing.T) {
	r, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	small := r.Measure(style(16), "Sample Text")
	large := r.Measure(style(32), "Sample Text")
	if small <= 0 {
		t.Fatalf("Expected positive width, got %v", small)
	}
	if large <= small*1.5 {
		t.Errorf("Expected width to grow with size: 16px=%v 32px=%v", small, large)
	}
	t.Logf("16px=%.2f 32px=%.2f", small, large)
}

func TestMeasureTreatsNewlineAsSpace(t *testing.T) {
	r, err := NewRegistry("")
	if err != nil {
		t.Fatal(err)
	}
	s := style(24)
	if a, b := r.Measure(s, "top\nbottom"), r.Measure(s, "top bottom"); a != b {
		t.Errorf("Expected equal widths, got %v and %v", a, b)
	}
	if r.Measure(s, "") != 0 {
		t.Errorf("Expected zero width for empty text")
	}
}

func TestFaceCache(t *testing.T) {
	r, err := NewRegistry("")
	if err != nil {
		t.Fatal(err)
	}
	s := style(20)
	if r.Face(s, 2) != r.Face(s, 2) {
		t.Errorf("Expected cached face")
	}
	bold := s
	bold.Bold = true
	if r.Face(bold, 2) == r.Face(s, 2) {
		t.Errorf("Expected separate face for bold")
	}
}
