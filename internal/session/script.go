// Package session replays scripted editing sessions: a background plus a
// list of pointer and style actions, ending in one or more exports.
package session

import (
	"fmt"

	"github.com/ivlev/imagecraft/internal/overlay"
)

// Actions understood by the runner.
const (
	ActionAddText  = "add_text"
	ActionSetStyle = "set_style"
	ActionClick    = "click"
	ActionDown     = "down"
	ActionMove     = "move"
	ActionUp       = "up"
	ActionLeave    = "leave"
	ActionDelete   = "delete"
	ActionReset    = "reset"
	ActionLoad     = "load"
	ActionExport   = "export"
)

var knownActions = map[string]bool{
	ActionAddText: true, ActionSetStyle: true, ActionClick: true,
	ActionDown: true, ActionMove: true, ActionUp: true, ActionLeave: true,
	ActionDelete: true, ActionReset: true, ActionLoad: true, ActionExport: true,
}

// Script is a complete editing session.
type Script struct {
	Version    string `yaml:"version"`
	Name       string `yaml:"name,omitempty"`
	Background string `yaml:"background,omitempty"`
	Steps      []Step `yaml:"steps"`
}

// Step is one user action. X and Y are surface coordinates for pointer
// actions.
type Step struct {
	Action string      `yaml:"action"`
	X      float64     `yaml:"x,omitempty"`
	Y      float64     `yaml:"y,omitempty"`
	Style  *StylePatch `yaml:"style,omitempty"`
	Source string      `yaml:"source,omitempty"` // load
	Path   string      `yaml:"path,omitempty"`   // export
}

// StylePatch changes only the fields that are set.
type StylePatch struct {
	Text       *string  `yaml:"text,omitempty"`
	FontSize   *float64 `yaml:"font_size,omitempty"`
	FontFamily *string  `yaml:"font_family,omitempty"`
	Color      *string  `yaml:"color,omitempty"`
	Bold       *bool    `yaml:"bold,omitempty"`
	Italic     *bool    `yaml:"italic,omitempty"`
	Alignment  *string  `yaml:"alignment,omitempty"`
}

// Apply writes the set fields onto s.
func (p *StylePatch) Apply(s *overlay.Style) error {
	if p == nil {
		return nil
	}
	if p.Text != nil {
		s.Text = *p.Text
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Bold != nil {
		s.Bold = *p.Bold
	}
	if p.Italic != nil {
		s.Italic = *p.Italic
	}
	if p.Alignment != nil {
		a, err := overlay.ParseAlignment(*p.Alignment)
		if err != nil {
			return err
		}
		s.Alignment = a
	}
	return nil
}

// PatchOf returns a patch that sets every field of s.
func PatchOf(s overlay.Style) *StylePatch {
	align := string(s.Alignment)
	return &StylePatch{
		Text:       &s.Text,
		FontSize:   &s.FontSize,
		FontFamily: &s.FontFamily,
		Color:      &s.Color,
		Bold:       &s.Bold,
		Italic:     &s.Italic,
		Alignment:  &align,
	}
}

// Validate checks that every step has a known action and its required fields.
func (s *Script) Validate() error {
	for i, st := range s.Steps {
		if !knownActions[st.Action] {
			return fmt.Errorf("step %d: unknown action %q", i+1, st.Action)
		}
		if st.Action == ActionSetStyle && st.Style == nil {
			return fmt.Errorf("step %d: set_style without style", i+1)
		}
		if st.Action == ActionLoad && st.Source == "" {
			return fmt.Errorf("step %d: load without source", i+1)
		}
	}
	return nil
}

// Snapshot describes the given overlays as a script that rebuilds them on
// the background: each one is added, styled and dragged into place.
func Snapshot(background string, anchorX, anchorY float64, overlays []overlay.TextOverlay) *Script {
	s := &Script{Version: "1.0", Background: background}
	for _, o := range overlays {
		s.Steps = append(s.Steps,
			Step{Action: ActionAddText},
			Step{Action: ActionSetStyle, Style: PatchOf(o.Style)},
		)
		if o.X != anchorX || o.Y != anchorY {
			s.Steps = append(s.Steps,
				Step{Action: ActionDown, X: anchorX, Y: anchorY},
				Step{Action: ActionMove, X: o.X, Y: o.Y},
				Step{Action: ActionUp},
			)
		}
	}
	return s
}
