package overlay

import (
	"errors"
	"testing"
)

func validStyle() Style {
	return Style{
		Text:       "Sample Text",
		FontSize:   32,
		FontFamily: "Arial",
		Color:      "#000000",
		Alignment:  AlignLeft,
	}
}

func TestStyleValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Style)
		want   error
	}{
		{"ok", func(s *Style) {}, nil},
		{"short color", func(s *Style) { s.Color = "#fff" }, nil},
		{"unknown font", func(s *Style) { s.FontFamily = "Papyrus" }, ErrUnknownFont},
		{"bad color", func(s *Style) { s.Color = "red" }, ErrBadColor},
		{"too small", func(s *Style) { s.FontSize = 11 }, ErrFontSize},
		{"too big", func(s *Style) { s.FontSize = 101 }, ErrFontSize},
		{"bad alignment", func(s *Style) { s.Alignment = "justify" }, ErrUnknownAlignment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validStyle()
			tt.mutate(&s)
			err := s.Validate(12, 100)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAlignmentOffset(t *testing.T) {
	if got := AlignLeft.Offset(100); got != 0 {
		t.Errorf("left: got %v", got)
	}
	if got := AlignCenter.Offset(100); got != 50 {
		t.Errorf("center: got %v", got)
	}
	if got := AlignRight.Offset(100); got != 100 {
		t.Errorf("right: got %v", got)
	}
	if AlignRight.Next() != AlignLeft {
		t.Errorf("right should cycle to left")
	}
}

func TestFontDescriptor(t *testing.T) {
	s := validStyle()
	if got := s.FontDescriptor(); got != "32px Arial" {
		t.Errorf("plain: got %q", got)
	}
	s.Bold, s.Italic = true, true
	if got := s.FontDescriptor(); got != "italic bold 32px Arial" {
		t.Errorf("styled: got %q", got)
	}
}

func TestClampAndLines(t *testing.T) {
	s := validStyle()
	s.FontSize = 500
	if got := s.Clamp(12, 100).FontSize; got != 100 {
		t.Errorf("Expected clamp to 100, got %v", got)
	}
	s.Text = "top\nbottom"
	if lines := s.Lines(); len(lines) != 2 || lines[1] != "bottom" {
		t.Errorf("Unexpected lines: %q", lines)
	}
}

func TestIDSourceUnique(t *testing.T) {
	ids := NewIDSource()
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := ids.Next()
		if seen[id] {
			t.Fatalf("Duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestNextFamily(t *testing.T) {
	if NextFamily("Impact") != "Arial" {
		t.Errorf("Expected wrap-around to Arial")
	}
	if NextFamily("nope") != "Arial" {
		t.Errorf("Expected unknown family to reset to Arial")
	}
}
