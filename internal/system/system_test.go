package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/gg"
)

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.png")
	newer := filepath.Join(dir, "new.JPG")
	for _, p := range []string{old, newer, filepath.Join(dir, "notes.txt")} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	os.Chtimes(old, past, past)

	got, err := FindLatestImage(dir)
	if err != nil {
		t.Fatalf("FindLatestImage failed: %v", err)
	}
	if got != newer {
		t.Errorf("Expected %s, got %s", newer, got)
	}
}

func TestFindLatestImageEmpty(t *testing.T) {
	if _, err := FindLatestImage(t.TempDir()); err == nil {
		t.Error("Expected error for empty dir")
	}
}

func TestPixmapPoolReusesSize(t *testing.T) {
	pool := NewPixmapPool()
	pm := pool.Get(40, 30)
	if pm.Width() != 40 || pm.Height() != 30 {
		t.Fatalf("Unexpected size %dx%d", pm.Width(), pm.Height())
	}
	pool.Put(pm)
	pool.Put(nil)

	again := pool.Get(40, 30)
	if again.Width() != 40 || again.Height() != 30 {
		t.Errorf("Unexpected size after reuse %dx%d", again.Width(), again.Height())
	}

	// A size the pool never handed out is not retained.
	pool.Put(gg.NewPixmap(7, 7))
	if len(pool.bySize) != 1 {
		t.Errorf("Expected one size bucket, got %d", len(pool.bySize))
	}
}

func TestReadStats(t *testing.T) {
	s, err := ReadStats()
	if err != nil {
		t.Skipf("Stats unavailable here: %v", err)
	}
	if s.ProcessRSS == 0 || s.HostTotal == 0 {
		t.Errorf("Expected non-zero memory figures, got %+v", s)
	}
	t.Logf("%s", s)
}
