package source

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/imagecraft/internal/compositor"
	"github.com/ivlev/imagecraft/internal/config"
)

// maxRemoteSize bounds the body read from a remote image.
const maxRemoteSize = 32 << 20

// Result is the outcome of one asynchronous load.
type Result struct {
	Token  compositor.Token
	Source string
	Image  image.Image
	Err    error
}

// Loader fetches and decodes backgrounds.
type Loader struct {
	templatesDir string
	dpi          int
	client       *http.Client
}

func NewLoader(cfg *config.Config) *Loader {
	return &Loader{
		templatesDir: cfg.TemplatesDir,
		dpi:          cfg.PDFDPI,
		client: &http.Client{
			Timeout: time.Duration(cfg.FetchTimeout * float64(time.Second)),
		},
	}
}

// Load fetches src and decodes it.
func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrEmptySource
	}

	var (
		data []byte
		err  error
	)
	switch Classify(src) {
	case KindRemote:
		data, err = l.fetch(ctx, src)
	case KindData:
		data, err = decodeDataURL(src)
	case KindTemplate:
		data, err = os.ReadFile(l.TemplatePath(src))
	default:
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(data, l.dpi)
}

// TemplatePath maps a root-relative template reference onto the templates
// directory. The result never escapes that directory.
func (l *Loader) TemplatePath(src string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(src))
	return filepath.Join(l.templatesDir, clean)
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", src, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize))
}

// Start decodes src in its own goroutine and passes the result to deliver.
// deliver runs on that goroutine; callers forward it to their event loop.
func (l *Loader) Start(ctx context.Context, token compositor.Token, src string, deliver func(Result)) {
	go func() {
		img, err := l.Load(ctx, src)
		deliver(Result{Token: token, Source: src, Image: img, Err: err})
	}()
}
