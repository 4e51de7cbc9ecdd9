//go:build webkit_cgo

package webkit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/domain/entity"
)

// PlatformWindow is the GTK host window. Embedded surfaces are positioned
// absolutely inside a gtk.Fixed that fills the window's content area.
type PlatformWindow struct {
	win    *gtk.ApplicationWindow
	fixed  *gtk.Fixed
	opener func(ctx context.Context, url string) error
	log    zerolog.Logger

	mu        sync.Mutex
	bounds    entity.Bounds
	observers map[uint64]func(entity.Bounds)
	nextID    uint64
}

// NewPlatformWindow creates the host window on the GTK main thread. opener
// receives external-link URLs; nil discards them.
func NewPlatformWindow(app *gtk.Application, title string, width, height int, opener func(ctx context.Context, url string) error, log zerolog.Logger) *PlatformWindow {
	w := &PlatformWindow{
		opener:    opener,
		log:       log.With().Str("component", "webkit.window").Logger(),
		bounds:    entity.Bounds{Width: width, Height: height},
		observers: make(map[uint64]func(entity.Bounds)),
	}

	runOnMain(func() {
		w.win = gtk.NewApplicationWindow(app)
		w.win.SetTitle(title)
		w.win.SetDefaultSize(width, height)

		w.fixed = gtk.NewFixed()
		w.win.SetChild(w.fixed)

		w.win.NotifyProperty("default-width", w.onResize)
		w.win.NotifyProperty("default-height", w.onResize)

		w.win.Show()
	})

	return w
}

// ContentBounds returns the rectangle reserved for embedded views,
// measured from the top-left of the window's content area.
func (w *PlatformWindow) ContentBounds() entity.Bounds {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

// OnContentBoundsChanged registers a resize observer.
func (w *PlatformWindow) OnContentBoundsChanged(fn func(entity.Bounds)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.observers[id] = fn
	w.mu.Unlock()

	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		w.mu.Lock()
		delete(w.observers, id)
		w.mu.Unlock()
	}
}

// OpenExternal forwards the URL to the configured opener.
func (w *PlatformWindow) OpenExternal(ctx context.Context, url string) error {
	if w.opener == nil {
		w.log.Debug().Str("url", url).Msg("no external opener configured, dropping url")
		return nil
	}
	return w.opener(ctx, url)
}

// Close destroys the window.
func (w *PlatformWindow) Close() {
	runOnMain(func() {
		w.win.Destroy()
	})
}

func (w *PlatformWindow) container() *gtk.Fixed { return w.fixed }

// onResize runs on the GTK main thread.
func (w *PlatformWindow) onResize() {
	width, height := w.win.DefaultSize()
	bounds := entity.Bounds{Width: width, Height: height}

	w.mu.Lock()
	if bounds == w.bounds {
		w.mu.Unlock()
		return
	}
	w.bounds = bounds
	fns := make([]func(entity.Bounds), 0, len(w.observers))
	for _, fn := range w.observers {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(bounds)
	}
}
