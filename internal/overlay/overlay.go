// Package overlay describes the text elements placed on the editor surface
// and the style settings that seed and edit them.
package overlay

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	ErrUnknownFont      = errors.New("unknown font family")
	ErrBadColor         = errors.New("color must be #rgb or #rrggbb")
	ErrFontSize         = errors.New("font size out of range")
	ErrUnknownAlignment = errors.New("unknown alignment")
)

// LineHeight is the baseline step between lines, as a multiple of the font size.
const LineHeight = 1.2

// Alignment is the horizontal anchor of an overlay.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ParseAlignment accepts "left", "center" or "right" (case-insensitive).
func ParseAlignment(s string) (Alignment, error) {
	switch a := Alignment(strings.ToLower(strings.TrimSpace(s))); a {
	case AlignLeft, AlignCenter, AlignRight:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlignment, s)
}

// Offset returns how far left of the anchor a run of the given width starts.
func (a Alignment) Offset(width float64) float64 {
	switch a {
	case AlignCenter:
		return width / 2
	case AlignRight:
		return width
	default:
		return 0
	}
}

// Next cycles left -> center -> right -> left.
func (a Alignment) Next() Alignment {
	switch a {
	case AlignLeft:
		return AlignCenter
	case AlignCenter:
		return AlignRight
	default:
		return AlignLeft
	}
}

// FontFamilies is the closed list of families offered to the user.
var FontFamilies = []string{
	"Arial",
	"Helvetica",
	"Times New Roman",
	"Georgia",
	"Verdana",
	"Comic Sans MS",
	"Impact",
}

// KnownFamily reports whether family is in FontFamilies.
func KnownFamily(family string) bool {
	for _, f := range FontFamilies {
		if f == family {
			return true
		}
	}
	return false
}

// NextFamily returns the family following cur in FontFamilies.
func NextFamily(cur string) string {
	for i, f := range FontFamilies {
		if f == cur {
			return FontFamilies[(i+1)%len(FontFamilies)]
		}
	}
	return FontFamilies[0]
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidColor reports whether c is a #rgb or #rrggbb hex color.
func ValidColor(c string) bool {
	return hexColor.MatchString(c)
}

// Style holds the editable settings of a piece of text. The Style Draft of
// the editor has the same shape.
type Style struct {
	Text       string    `yaml:"text"`
	FontSize   float64   `yaml:"font_size"`
	FontFamily string    `yaml:"font_family"`
	Color      string    `yaml:"color"`
	Bold       bool      `yaml:"bold"`
	Italic     bool      `yaml:"italic"`
	Alignment  Alignment `yaml:"alignment"`
}

// Validate checks the style against the allow-list and size bounds.
func (s Style) Validate(minSize, maxSize float64) error {
	if !KnownFamily(s.FontFamily) {
		return fmt.Errorf("%w: %q", ErrUnknownFont, s.FontFamily)
	}
	if !ValidColor(s.Color) {
		return fmt.Errorf("%w: %q", ErrBadColor, s.Color)
	}
	if s.FontSize < minSize || s.FontSize > maxSize {
		return fmt.Errorf("%w: %g not in [%g, %g]", ErrFontSize, s.FontSize, minSize, maxSize)
	}
	if _, err := ParseAlignment(string(s.Alignment)); err != nil {
		return err
	}
	return nil
}

// Clamp returns a copy with the font size forced into [minSize, maxSize].
func (s Style) Clamp(minSize, maxSize float64) Style {
	if s.FontSize < minSize {
		s.FontSize = minSize
	}
	if s.FontSize > maxSize {
		s.FontSize = maxSize
	}
	return s
}

// Lines splits the text on line breaks; each line is painted on its own.
func (s Style) Lines() []string {
	return strings.Split(s.Text, "\n")
}

// FontDescriptor composes the CSS font shorthand, e.g. "italic bold 32px Arial".
func (s Style) FontDescriptor() string {
	parts := make([]string, 0, 4)
	if s.Italic {
		parts = append(parts, "italic")
	}
	if s.Bold {
		parts = append(parts, "bold")
	}
	parts = append(parts, strconv.FormatFloat(s.FontSize, 'f', -1, 64)+"px", s.FontFamily)
	return strings.Join(parts, " ")
}

// TextOverlay is one placed piece of text.
type TextOverlay struct {
	ID       string
	Style    Style
	X, Y     float64
	Selected bool
}

// IDSource hands out overlay ids that are unique within a session.
type IDSource struct {
	prefix string
	next   atomic.Uint64
}

// NewIDSource seeds the prefix from the current time so ids from two
// sessions do not collide when their output lands side by side.
func NewIDSource() *IDSource {
	return &IDSource{prefix: strconv.FormatInt(time.Now().UnixMilli(), 36)}
}

// Next returns a fresh id.
func (s *IDSource) Next() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.next.Add(1))
}
