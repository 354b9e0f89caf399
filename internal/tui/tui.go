// Package tui is an interactive terminal front end for the editor. The
// composed image is shown with half-block characters; the mouse drags text
// on it and the keyboard edits the style draft.
package tui

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/imagecraft/internal/compositor"
	"github.com/ivlev/imagecraft/internal/config"
	"github.com/ivlev/imagecraft/internal/editor"
	"github.com/ivlev/imagecraft/internal/overlay"
	"github.com/ivlev/imagecraft/internal/session"
	"github.com/ivlev/imagecraft/internal/source"
)

// Run opens the editor in the terminal until the user quits.
func Run(ctx context.Context, cfg *config.Config, ed *editor.Editor) error {
	restore, err := redirectLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer restore()

	m := newModel(ctx, cfg, ed)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// redirectLog moves the standard logger off the terminal while the alt
// screen is active: into path when set, otherwise nowhere. The returned
// func puts stderr back.
func redirectLog(path string) (func(), error) {
	prevOut, prevPrefix := log.Writer(), log.Prefix()
	restore := func() {
		log.SetOutput(prevOut)
		log.SetPrefix(prevPrefix)
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return restore, nil
	}
	f, err := tea.LogToFile(path, "imagecraft")
	if err != nil {
		return nil, err
	}
	return func() {
		restore()
		f.Close()
	}, nil
}

// ===== Model =====

type mode string

const (
	modeEdit  mode = "edit"  // pointer + shortcuts
	modeText  mode = "text"  // editing the draft text
	modeColor mode = "color" // entering a hex color
	modeOpen  mode = "open"  // entering a background source
)

const (
	headerRows = 1
	footerRows = 3
)

// loadMsg carries a finished background load back onto the event loop.
type loadMsg source.Result

type model struct {
	ctx context.Context
	cfg *config.Config
	ed  *editor.Editor

	width, height int
	layout        layout
	pressed       bool // left button held inside the preview

	mode  mode
	input textinput.Model

	status     string
	lastExport string

	// preview cache
	previewRev   uint64
	previewShape layout
	preview      string
}

func newModel(ctx context.Context, cfg *config.Config, ed *editor.Editor) *model {
	in := textinput.New()
	in.CharLimit = 512
	return &model{
		ctx:        ctx,
		cfg:        cfg,
		ed:         ed,
		mode:       modeEdit,
		input:      in,
		previewRev: ^uint64(0),
	}
}

func (m *model) Init() tea.Cmd {
	return waitLoad(m.ed.Events())
}

func waitLoad(events <-chan source.Result) tea.Cmd {
	return func() tea.Msg {
		return loadMsg(<-events)
	}
}

func (m *model) comp() *compositor.Compositor {
	return m.ed.Compositor()
}

// Update handles all TUI interactions.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w, h := m.comp().Size()
		m.layout = fitLayout(m.width, m.height, headerRows, footerRows, w, h)
		return m, nil

	case loadMsg:
		r := source.Result(msg)
		if m.ed.Apply(r) {
			if r.Err != nil {
				m.status = "Фон не загружен: " + r.Err.Error()
			} else {
				m.status = "Фон загружен: " + r.Source
			}
		}
		return m, waitLoad(m.ed.Events())

	case tea.MouseMsg:
		m.mouse(msg)
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeEdit {
			return m.prompt(msg)
		}
		return m.key(msg)
	}
	return m, nil
}

// mouse mirrors the browser event order: down starts a drag of the
// current selection, up ends it and is followed by a click.
func (m *model) mouse(msg tea.MouseMsg) {
	if m.layout.empty() {
		return
	}
	c := m.comp()
	w, h := c.Size()
	vp := m.layout.viewport(w, h)
	x, y := float64(msg.X), float64(msg.Y)
	inside := vp.Inside(x, y)
	p := vp.ToSurface(x+0.5, y+0.5)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return
		}
		m.pressed = true
		c.PointerDown(p)
	case tea.MouseActionMotion:
		if !inside {
			if m.pressed {
				m.pressed = false
				c.PointerLeave()
			}
			return
		}
		c.PointerMove(p)
	case tea.MouseActionRelease:
		if !m.pressed {
			return
		}
		m.pressed = false
		c.PointerUp()
		if inside {
			c.Click(p)
		}
	}
}

func (m *model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.comp()
	var err error

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a":
		c.AddText()
	case "d", "delete", "backspace":
		c.DeleteSelected()
	case "r":
		c.Reset()
		m.status = "Холст очищен"
	case "b":
		err = c.SetBold(!c.Draft().Bold)
	case "i":
		err = c.SetItalic(!c.Draft().Italic)
	case "l":
		err = c.SetAlignment(overlay.AlignLeft)
	case "c":
		err = c.SetAlignment(overlay.AlignCenter)
	case "R":
		err = c.SetAlignment(overlay.AlignRight)
	case "tab":
		err = c.SetAlignment(c.Draft().Alignment.Next())
	case "+", "=":
		err = c.SetFontSize(c.Draft().FontSize + 2)
	case "-":
		err = c.SetFontSize(c.Draft().FontSize - 2)
	case "f":
		err = c.SetFontFamily(overlay.NextFamily(c.Draft().FontFamily))
	case "e":
		m.startPrompt(modeText, strings.ReplaceAll(c.Draft().Text, "\n", `\n`))
	case "k":
		m.startPrompt(modeColor, c.Draft().Color)
	case "o":
		m.startPrompt(modeOpen, c.BackgroundSource())
	case "s":
		m.export()
	case "w":
		m.saveScript()
	case "y":
		m.copyExportPath()
	}
	if err != nil {
		m.status = err.Error()
	}
	return m, nil
}

func (m *model) startPrompt(md mode, value string) {
	m.mode = md
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *model) prompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeEdit
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.submit(m.input.Value())
		m.mode = modeEdit
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit applies the prompt value. A literal \n in the text prompt
// becomes a line break.
func (m *model) submit(value string) {
	c := m.comp()
	var err error
	switch m.mode {
	case modeText:
		err = c.SetText(strings.ReplaceAll(value, `\n`, "\n"))
	case modeColor:
		err = c.SetColor(strings.TrimSpace(value))
	case modeOpen:
		value = strings.TrimSpace(value)
		if t, terr := source.TemplateFromQuery(value); terr == nil {
			value = t
		}
		if value == "" {
			return
		}
		m.ed.LoadBackground(m.ctx, value)
		m.status = "Загрузка: " + value
	}
	if err != nil {
		m.status = err.Error()
	}
}

func (m *model) export() {
	path, err := m.ed.SaveExport(m.cfg.OutputDir)
	if err != nil {
		m.status = "Экспорт не удался: " + err.Error()
		return
	}
	m.lastExport = path
	m.status = "Сохранено: " + path
}

func (m *model) saveScript() {
	c := m.comp()
	script := session.Snapshot(c.BackgroundSource(), m.cfg.AnchorX, m.cfg.AnchorY, c.Overlays())
	if err := os.MkdirAll(m.cfg.OutputDir, 0755); err != nil {
		m.status = "Сценарий не сохранён: " + err.Error()
		return
	}
	path := session.GenerateScriptPath(m.cfg.OutputDir)
	if err := session.WriteScript(script, path); err != nil {
		m.status = "Сценарий не сохранён: " + err.Error()
		return
	}
	m.status = "Сценарий: " + path
}

func (m *model) copyExportPath() {
	if m.lastExport == "" {
		m.status = "Сначала экспортируйте (s)"
		return
	}
	if err := clipboard.WriteAll(m.lastExport); err != nil {
		m.status = "Буфер обмена недоступен: " + err.Error()
		return
	}
	m.status = "Путь скопирован"
}

// ===== View =====

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "114"})
	selStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "205", Dark: "213"}).Bold(true)
)

func (m *model) View() string {
	c := m.comp()
	var b strings.Builder

	b.WriteString(titleStyle.Render("imagecraft"))
	b.WriteString(faintStyle.Render(fmt.Sprintf("  %s  %d текст(ов)", c.State(), len(c.Overlays()))))
	b.WriteByte('\n')

	if m.layout.empty() {
		b.WriteString(faintStyle.Render("окно слишком маленькое"))
		b.WriteByte('\n')
	} else {
		b.WriteString(m.renderPreview())
		b.WriteByte('\n')
	}

	d := c.Draft()
	b.WriteString(selStyle.Render(d.FontDescriptor()))
	b.WriteString(fmt.Sprintf(" %s %s %q\n", d.Color, d.Alignment, d.Text))

	switch m.mode {
	case modeText:
		b.WriteString("Текст: " + m.input.View())
	case modeColor:
		b.WriteString("Цвет: " + m.input.View())
	case modeOpen:
		b.WriteString("Фон (файл, URL, ?template=): " + m.input.View())
	default:
		b.WriteString(faintStyle.Render("a добавить  d удалить  r сброс  e текст  k цвет  f шрифт  b/i  l/c/R/tab  +/-  o фон  s экспорт  w сценарий  y копировать  q выход"))
	}
	b.WriteByte('\n')
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	}
	return b.String()
}

func (m *model) renderPreview() string {
	frame, _, err := m.ed.Frame()
	if err != nil {
		return err.Error()
	}
	rev := m.comp().Revision()
	if rev == m.previewRev && m.previewShape == m.layout {
		return m.preview
	}
	m.preview = halfBlocks(frame, m.layout.cols, m.layout.rows)
	m.previewRev, m.previewShape = rev, m.layout
	return m.preview
}
