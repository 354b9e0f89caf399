// Package fonts maps the editor's font families onto concrete font faces
// and measures text the way a 2D canvas does.
package fonts

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ivlev/imagecraft/internal/overlay"
)

type variant struct {
	family string
	bold   bool
	italic bool
}

type faceKey struct {
	variant
	px float64
}

// Registry resolves (family, bold, italic) to a font source and caches faces
// per pixel size. It is safe for concurrent use.
type Registry struct {
	dir string

	mu      sync.Mutex
	sources map[variant]*text.FontSource
	faces   map[faceKey]text.Face
	builtin [4]*text.FontSource
}

// NewRegistry parses the embedded Go fonts. If dir is not empty, TTF files
// named "<Family>.ttf", "<Family>-Bold.ttf", "<Family>-Italic.ttf" or
// "<Family>-BoldItalic.ttf" in it take precedence.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{
		dir:     dir,
		sources: make(map[variant]*text.FontSource),
		faces:   make(map[faceKey]text.Face),
	}
	for i, data := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF} {
		src, err := text.NewFontSource(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin font %d: %w", i, err)
		}
		r.builtin[i] = src
	}
	return r, nil
}

// Face returns the face for a style rendered at style.FontSize*scale pixels.
func (r *Registry) Face(s overlay.Style, scale float64) text.Face {
	v := variantOf(s)
	key := faceKey{variant: v, px: s.FontSize * scale}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f
	}
	f := r.sourceLocked(v).Face(key.px)
	r.faces[key] = f
	return f
}

// Measure returns the advance width of str in surface units. Line breaks and
// other whitespace are measured as plain spaces.
func (r *Registry) Measure(s overlay.Style, str string) float64 {
	if str == "" {
		return 0
	}
	w, _ := text.Measure(canvasWhitespace(str), r.Face(s, 1))
	return w
}

func variantOf(s overlay.Style) variant {
	v := variant{family: s.FontFamily, bold: s.Bold, italic: s.Italic}
	// Impact only exists as a heavy face.
	if v.family == "Impact" {
		v.bold = true
	}
	return v
}

func (r *Registry) sourceLocked(v variant) *text.FontSource {
	if src, ok := r.sources[v]; ok {
		return src
	}
	src := r.loadOverride(v)
	if src == nil {
		src = r.builtin[builtinIndex(v.bold, v.italic)]
	}
	r.sources[v] = src
	return src
}

func (r *Registry) loadOverride(v variant) *text.FontSource {
	if r.dir == "" {
		return nil
	}
	suffix := ""
	switch {
	case v.bold && v.italic:
		suffix = "-BoldItalic"
	case v.bold:
		suffix = "-Bold"
	case v.italic:
		suffix = "-Italic"
	}
	path := filepath.Join(r.dir, v.family+suffix+".ttf")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		log.Printf("[!] Шрифт %s не загружен: %v", path, err)
		return nil
	}
	return src
}

func builtinIndex(bold, italic bool) int {
	switch {
	case bold && italic:
		return 3
	case italic:
		return 2
	case bold:
		return 1
	}
	return 0
}

func canvasWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', '\f':
			return ' '
		}
		return r
	}, s)
}
