package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/imagecraft/internal/config"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testLoader(dir string) *Loader {
	cfg := config.Default()
	cfg.TemplatesDir = dir
	cfg.FetchTimeout = 5
	return NewLoader(cfg)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		src  string
		want Kind
	}{
		{"https://example.com/a.png", KindRemote},
		{"HTTP://example.com/a.png", KindRemote},
		{"data:image/png;base64,AAAA", KindData},
		{"/templates/1.jpeg", KindTemplate},
		{"photo.jpg", KindFile},
		{"/tmp/photo.jpg", KindFile},
	}
	for _, tt := range tests {
		if got := Classify(tt.src); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestTemplateFromQuery(t *testing.T) {
	got, err := TemplateFromQuery("?template=%2Ftemplates%2FWoman%20yelling%20at%20cat%20Template.jpeg")
	if err != nil {
		t.Fatalf("TemplateFromQuery failed: %v", err)
	}
	if want := "/templates/Woman yelling at cat Template.jpeg"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	if _, err := TemplateFromQuery("foo=bar"); err != ErrNoTemplate {
		t.Errorf("Expected ErrNoTemplate, got %v", err)
	}
}

func TestTemplatePathStaysInDir(t *testing.T) {
	l := testLoader("public")
	tests := map[string]string{
		"/templates/1.jpeg":           filepath.Join("public", "templates", "1.jpeg"),
		"/templates/../../etc/passwd": filepath.Join("public", "etc", "passwd"),
	}
	for src, want := range tests {
		if got := l.TemplatePath(src); got != want {
			t.Errorf("TemplatePath(%q) = %q, want %q", src, got, want)
		}
	}
}

func TestLoadFileAndTemplate(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t, 40, 20)

	if err := os.MkdirAll(filepath.Join(dir, "templates"), 0755); err != nil {
		t.Fatal(err)
	}
	tplPath := filepath.Join(dir, "templates", "drake meme.png")
	if err := os.WriteFile(tplPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	l := testLoader(dir)
	for _, src := range []string{tplPath, "/templates/drake meme.png"} {
		img, err := l.Load(context.Background(), src)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", src, err)
		}
		if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
			t.Errorf("Load(%q): expected 40x20, got %v", src, b)
		}
	}
}

func TestLoadDataURL(t *testing.T) {
	l := testLoader(t.TempDir())
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 8, 8))

	img, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}
}

func TestLoadRemote(t *testing.T) {
	data := pngBytes(t, 16, 9)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	l := testLoader(t.TempDir())
	img, err := l.Load(context.Background(), srv.URL+"/meme.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 9 {
		t.Errorf("Expected 16x9, got %v", b)
	}

	if _, err := l.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Errorf("Expected error for 404")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	l := testLoader(dir)

	tests := map[string]string{
		"empty":   "  ",
		"missing": filepath.Join(dir, "nope.png"),
		"broken":  bad,
		"bad url": "data:image/png;base64",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := l.Load(context.Background(), src); err == nil {
				t.Errorf("Expected error for %q", src)
			}
		})
	}
}

func TestStartDelivers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bg.png")
	if err := os.WriteFile(path, pngBytes(t, 10, 10), 0644); err != nil {
		t.Fatal(err)
	}
	l := testLoader(dir)

	results := make(chan Result, 1)
	l.Start(context.Background(), 7, path, func(r Result) { results <- r })

	select {
	case r := <-results:
		if r.Token != 7 || r.Err != nil || r.Image == nil {
			t.Errorf("Unexpected result %+v", r)
		}
		if !strings.HasSuffix(r.Source, "bg.png") {
			t.Errorf("Unexpected source %q", r.Source)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for load")
	}
}
