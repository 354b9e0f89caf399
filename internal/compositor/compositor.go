// Package compositor owns the editor state: the ordered text overlays, the
// current selection, the style draft, the drag session and the background
// image slot. All mutation goes through its methods, which keep at most one
// overlay selected at any time.
//
// A Compositor is not safe for concurrent use. It is meant to live on a
// single event loop; asynchronous image decodes report back through
// CompleteLoad/FailLoad on that same loop.
package compositor

import (
	"fmt"
	"image"
	"log"

	"github.com/ivlev/imagecraft/internal/config"
	"github.com/ivlev/imagecraft/internal/overlay"
)

// State of the pointer interaction.
type State int

const (
	Idle State = iota
	Selected
	Dragging
)

func (s State) String() string {
	switch s {
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	}
	return "idle"
}

// Token identifies one background load request. Only the result carrying
// the latest token is applied.
type Token uint64

// Options are the compositor's fixed parameters.
type Options struct {
	Width, Height    int
	Anchor           Point
	Draft            overlay.Style
	MinSize, MaxSize float64
	HitBox           string
	Padding          float64
}

// OptionsFromConfig extracts compositor parameters from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Width:   cfg.SurfaceWidth,
		Height:  cfg.SurfaceHeight,
		Anchor:  Point{X: cfg.AnchorX, Y: cfg.AnchorY},
		Draft:   cfg.Draft,
		MinSize: cfg.MinFontSize,
		MaxSize: cfg.MaxFontSize,
		HitBox:  cfg.HitBox,
		Padding: cfg.SelectionPadding,
	}
}

type dragSession struct {
	index  int
	offset Point
}

type background struct {
	source string
	img    image.Image
	loaded bool
}

type Compositor struct {
	opts    Options
	measure Measurer
	ids     *overlay.IDSource

	overlays   []overlay.TextOverlay
	selectedID string
	draft      overlay.Style
	drag       *dragSession

	bg         background
	generation Token
	revision   uint64
}

// New creates an empty compositor. m measures text for hit testing and
// selection boxes and must match the renderer's fonts.
func New(opts Options, m Measurer) *Compositor {
	return &Compositor{
		opts:    opts,
		measure: m,
		ids:     overlay.NewIDSource(),
		draft:   opts.Draft,
	}
}

// Size returns the logical surface size.
func (c *Compositor) Size() (int, int) {
	return c.opts.Width, c.opts.Height
}

// Revision increases on every change that affects the rendered frame.
func (c *Compositor) Revision() uint64 {
	return c.revision
}

func (c *Compositor) changed() {
	c.revision++
}

// State reports the interaction state.
func (c *Compositor) State() State {
	switch {
	case c.drag != nil:
		return Dragging
	case c.selectedID != "":
		return Selected
	}
	return Idle
}

// Overlays returns a copy of the overlays in paint order.
func (c *Compositor) Overlays() []overlay.TextOverlay {
	out := make([]overlay.TextOverlay, len(c.overlays))
	copy(out, c.overlays)
	return out
}

// Selection returns the selected overlay, if any.
func (c *Compositor) Selection() (overlay.TextOverlay, bool) {
	if i := c.indexOf(c.selectedID); i >= 0 {
		return c.overlays[i], true
	}
	return overlay.TextOverlay{}, false
}

func (c *Compositor) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.overlays {
		if c.overlays[i].ID == id {
			return i
		}
	}
	return -1
}

// selectID marks id selected and every other overlay deselected. An empty
// id clears the selection.
func (c *Compositor) selectID(id string) {
	if id == "" || id != c.selectedID {
		c.drag = nil
	}
	c.selectedID = id
	for i := range c.overlays {
		c.overlays[i].Selected = c.overlays[i].ID == id
	}
	c.changed()
}

// Bounds returns the hit-test box of o.
func (c *Compositor) Bounds(o overlay.TextOverlay) Rect {
	return TextBounds(c.measure, o, c.opts.HitBox)
}

// SelectionBox returns the padded outline of the selected overlay.
func (c *Compositor) SelectionBox() (Rect, bool) {
	o, ok := c.Selection()
	if !ok {
		return Rect{}, false
	}
	return c.Bounds(o).Pad(c.opts.Padding), true
}

// HitTest returns the topmost overlay whose box contains p.
func (c *Compositor) HitTest(p Point) (overlay.TextOverlay, bool) {
	for i := len(c.overlays) - 1; i >= 0; i-- {
		if c.Bounds(c.overlays[i]).Contains(p) {
			return c.overlays[i], true
		}
	}
	return overlay.TextOverlay{}, false
}

// Click selects the overlay under p and loads its style into the draft, or
// clears the selection when p hits nothing.
func (c *Compositor) Click(p Point) {
	o, ok := c.HitTest(p)
	if !ok {
		c.selectID("")
		return
	}
	c.selectID(o.ID)
	c.draft = o.Style
}

// PointerDown starts dragging the selected overlay. The pointer does not
// need to be on the overlay itself.
func (c *Compositor) PointerDown(p Point) {
	i := c.indexOf(c.selectedID)
	if i < 0 {
		return
	}
	o := c.overlays[i]
	c.drag = &dragSession{
		index:  i,
		offset: Point{X: p.X - o.X, Y: p.Y - o.Y},
	}
}

// PointerMove repositions the dragged overlay. It is a no-op unless a drag
// is in progress.
func (c *Compositor) PointerMove(p Point) {
	d := c.drag
	if d == nil || d.index >= len(c.overlays) {
		return
	}
	o := &c.overlays[d.index]
	o.X = p.X - d.offset.X
	o.Y = p.Y - d.offset.Y
	c.changed()
}

// PointerUp ends a drag.
func (c *Compositor) PointerUp() {
	c.drag = nil
}

// PointerLeave behaves like PointerUp so a drag cannot get stuck when the
// pointer leaves the surface.
func (c *Compositor) PointerLeave() {
	c.PointerUp()
}

// Draft returns the current style draft.
func (c *Compositor) Draft() overlay.Style {
	return c.draft
}

// SetDraft replaces the draft and copies it onto the selected overlay. The
// font size is clamped into range; other invalid values are rejected and
// leave the state untouched.
func (c *Compositor) SetDraft(s overlay.Style) error {
	s = s.Clamp(c.opts.MinSize, c.opts.MaxSize)
	if err := s.Validate(c.opts.MinSize, c.opts.MaxSize); err != nil {
		return err
	}
	c.draft = s
	if i := c.indexOf(c.selectedID); i >= 0 {
		c.overlays[i].Style = s
	}
	c.changed()
	return nil
}

// UpdateDraft applies fn to a copy of the draft and stores it via SetDraft.
func (c *Compositor) UpdateDraft(fn func(*overlay.Style)) error {
	s := c.draft
	fn(&s)
	return c.SetDraft(s)
}

func (c *Compositor) SetText(text string) error {
	return c.UpdateDraft(func(s *overlay.Style) { s.Text = text })
}

func (c *Compositor) SetFontSize(size float64) error {
	return c.UpdateDraft(func(s *overlay.Style) { s.FontSize = size })
}

func (c *Compositor) SetFontFamily(family string) error {
	return c.UpdateDraft(func(s *overlay.Style) { s.FontFamily = family })
}

func (c *Compositor) SetColor(color string) error {
	return c.UpdateDraft(func(s *overlay.Style) { s.Color = color })
}

func (c *Compositor) SetBold(on bool) error {
	return c.UpdateDraft(func(s *overlay.Style) { s.Bold = on })
}

func (c *Compositor) SetItalic(on bool) error {
	return c.UpdateDraft(func(s *overlay.Style) { s.Italic = on })
}

func (c *Compositor) SetAlignment(a overlay.Alignment) error {
	return c.UpdateDraft(func(s *overlay.Style) { s.Alignment = a })
}

// AddText appends a new overlay built from the draft at the default anchor
// and selects it.
func (c *Compositor) AddText() overlay.TextOverlay {
	o := overlay.TextOverlay{
		ID:    c.ids.Next(),
		Style: c.draft,
		X:     c.opts.Anchor.X,
		Y:     c.opts.Anchor.Y,
	}
	c.overlays = append(c.overlays, o)
	c.selectID(o.ID)
	return c.overlays[len(c.overlays)-1]
}

// DeleteSelected removes the selected overlay. It reports whether one was removed.
func (c *Compositor) DeleteSelected() bool {
	i := c.indexOf(c.selectedID)
	if i < 0 {
		return false
	}
	c.overlays = append(c.overlays[:i], c.overlays[i+1:]...)
	c.selectID("")
	return true
}

// Reset drops the background, every overlay and the selection. Loads that
// are still in flight are invalidated.
func (c *Compositor) Reset() {
	c.overlays = nil
	c.bg = background{}
	c.generation++
	c.selectID("")
}

// BeginLoad registers a new background request. Until CompleteLoad is
// called with the returned token the background counts as absent.
func (c *Compositor) BeginLoad(source string) Token {
	c.generation++
	c.bg = background{source: source}
	c.changed()
	return c.generation
}

// CompleteLoad installs a decoded image if t is still the latest request.
// It reports whether the image was applied.
func (c *Compositor) CompleteLoad(t Token, img image.Image) bool {
	if t != c.generation {
		return false
	}
	if img == nil || img.Bounds().Empty() {
		return c.FailLoad(t, fmt.Errorf("empty image"))
	}
	c.bg.img = img
	c.bg.loaded = true
	c.changed()
	return true
}

// FailLoad resets the background to absent if t is still the latest request.
func (c *Compositor) FailLoad(t Token, err error) bool {
	if t != c.generation {
		return false
	}
	log.Printf("[!] Не удалось загрузить фон %q: %v", c.bg.source, err)
	c.bg = background{}
	c.changed()
	return true
}

// Background returns the background image once it is fully loaded.
func (c *Compositor) Background() (image.Image, bool) {
	if !c.bg.loaded || c.bg.img == nil {
		return nil, false
	}
	return c.bg.img, true
}

// BackgroundSource returns the source of the current or pending background.
func (c *Compositor) BackgroundSource() string {
	return c.bg.source
}

// Pending reports whether a background load is outstanding.
func (c *Compositor) Pending() (Token, bool) {
	return c.generation, c.bg.source != "" && !c.bg.loaded
}

// Scene is a read-only snapshot for the renderer.
type Scene struct {
	Width, Height int
	Background    image.Image
	Overlays      []overlay.TextOverlay
	Selection     *Rect
}

// Scene snapshots the current state for rendering.
func (c *Compositor) Scene() Scene {
	s := Scene{
		Width:    c.opts.Width,
		Height:   c.opts.Height,
		Overlays: c.Overlays(),
	}
	if img, ok := c.Background(); ok {
		s.Background = img
	}
	if box, ok := c.SelectionBox(); ok {
		s.Selection = &box
	}
	return s
}
