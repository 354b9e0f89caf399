package session

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/imagecraft/internal/compositor"
	"github.com/ivlev/imagecraft/internal/config"
	"github.com/ivlev/imagecraft/internal/editor"
)

// Report summarises one finished script.
type Report struct {
	Name     string
	Exports  []string
	Overlays int
	// Finished is the 1-based completion position within a batch.
	Finished int
}

// Runner replays scripts against a fresh editor each time.
type Runner struct {
	Config *config.Config
}

func NewRunner(cfg *config.Config) *Runner {
	return &Runner{Config: cfg}
}

// Run executes script on a fresh editor. When the script has no export
// step, a single export is written to the output directory at the end.
func (r *Runner) Run(ctx context.Context, script *Script) (*Report, error) {
	ed, err := editor.New(r.Config)
	if err != nil {
		return nil, err
	}
	rep, err := r.Replay(ctx, ed, script)
	if err != nil {
		return nil, err
	}
	if len(rep.Exports) == 0 {
		path, err := r.export(ed, "", exportBase(script.Name))
		if err != nil {
			return nil, err
		}
		rep.Exports = append(rep.Exports, path)
	}
	return rep, nil
}

// Replay applies the script's background and steps to ed.
func (r *Runner) Replay(ctx context.Context, ed *editor.Editor, script *Script) (*Report, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	c := ed.Compositor()
	rep := &Report{Name: script.Name}

	if script.Background != "" {
		if err := load(ctx, ed, script.Background); err != nil {
			return nil, err
		}
	}

	for i, st := range script.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := compositor.Point{X: st.X, Y: st.Y}

		var err error
		switch st.Action {
		case ActionAddText:
			c.AddText()
		case ActionSetStyle:
			s := c.Draft()
			if err = st.Style.Apply(&s); err == nil {
				err = c.SetDraft(s)
			}
		case ActionClick:
			c.Click(p)
		case ActionDown:
			c.PointerDown(p)
		case ActionMove:
			c.PointerMove(p)
		case ActionUp:
			c.PointerUp()
		case ActionLeave:
			c.PointerLeave()
		case ActionDelete:
			c.DeleteSelected()
		case ActionReset:
			c.Reset()
		case ActionLoad:
			err = load(ctx, ed, st.Source)
		case ActionExport:
			var path string
			path, err = r.export(ed, st.Path, fmt.Sprintf("%s_%d", exportBase(script.Name), len(rep.Exports)+1))
			if err == nil {
				rep.Exports = append(rep.Exports, path)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
	}

	rep.Overlays = len(c.Overlays())
	return rep, nil
}

func exportBase(name string) string {
	if name == "" {
		return "edited-image"
	}
	return name
}

func load(ctx context.Context, ed *editor.Editor, src string) error {
	ed.LoadBackground(ctx, src)
	return ed.WaitLoad(ctx)
}

func (r *Runner) export(ed *editor.Editor, path, name string) (string, error) {
	if path == "" {
		if err := os.MkdirAll(r.Config.OutputDir, 0755); err != nil {
			return "", err
		}
		path = GenerateExportPath(r.Config.OutputDir, name)
	}
	if err := ed.SaveExportAs(path); err != nil {
		return "", err
	}
	fmt.Printf("[>] Экспорт: %s\n", path)
	return path, nil
}

// RunBatch executes script files with at most workers running at once. The
// first failure cancels the remaining scripts.
func RunBatch(ctx context.Context, cfg *config.Config, paths []string, workers int) ([]*Report, error) {
	if workers < 1 {
		workers = 1
	}
	reports := make([]*Report, len(paths))
	var done atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			script, err := ReadScript(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if script.Name == "" {
				script.Name = scriptName(path)
			}
			rep, err := NewRunner(cfg).Run(ctx, script)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			rep.Finished = int(done.Add(1))
			reports[i] = rep
			fmt.Printf("[>] Готово: %d/%d (%s)\n", rep.Finished, len(paths), script.Name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
