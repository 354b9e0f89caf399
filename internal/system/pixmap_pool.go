package system

import (
	"sync"

	"github.com/gogpu/gg"
)

type pixmapSize struct{ w, h int }

// PixmapPool hands out drawing surfaces keyed by size. The preview is
// redrawn on every edit at the same size, so surfaces are recycled.
type PixmapPool struct {
	mu     sync.Mutex
	bySize map[pixmapSize]*sync.Pool
}

var framePool = NewPixmapPool()

func NewPixmapPool() *PixmapPool {
	return &PixmapPool{bySize: make(map[pixmapSize]*sync.Pool)}
}

// GetPixmap takes a w x h pixmap from the shared pool.
func GetPixmap(w, h int) *gg.Pixmap {
	return framePool.Get(w, h)
}

// PutPixmap returns pm to the shared pool.
func PutPixmap(pm *gg.Pixmap) {
	framePool.Put(pm)
}

func (p *PixmapPool) sized(key pixmapSize, create bool) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp := p.bySize[key]
	if sp == nil && create {
		sp = &sync.Pool{New: func() any { return gg.NewPixmap(key.w, key.h) }}
		p.bySize[key] = sp
	}
	return sp
}

// Get returns a pixmap of exactly w x h. Its contents are whatever the
// previous user left; callers clear before drawing.
func (p *PixmapPool) Get(w, h int) *gg.Pixmap {
	return p.sized(pixmapSize{w, h}, true).Get().(*gg.Pixmap)
}

// Put recycles pm. Sizes never handed out by Get are dropped.
func (p *PixmapPool) Put(pm *gg.Pixmap) {
	if pm == nil {
		return
	}
	if sp := p.sized(pixmapSize{pm.Width(), pm.Height()}, false); sp != nil {
		sp.Put(pm)
	}
}
