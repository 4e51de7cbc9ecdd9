package viewmanager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
)

// DefaultBoundsDebounce coalesces resize bursts before republishing.
const DefaultBoundsDebounce = 100 * time.Millisecond

// BoundsTracker maintains the content-area rectangle reserved for embedded
// views. It does not invent layout offsets; the host window supplies the
// rectangle (host-window-absolute coordinates, see port.HostWindow) and this
// tracker only debounces and republishes it.
type BoundsTracker struct {
	log      zerolog.Logger
	debounce time.Duration
	publish  func(entity.Bounds)

	mu         sync.Mutex
	current    entity.Bounds
	pending    entity.Bounds
	hasPending bool
	timer      *time.Timer
	unsub      func()
	closed     bool
}

// NewBoundsTracker reads the initial rectangle from host and subscribes to
// its resize notifications. publish is invoked off the host's thread, at
// most once per debounce window, and only when the rectangle changed.
func NewBoundsTracker(host port.HostWindow, debounce time.Duration, publish func(entity.Bounds), log zerolog.Logger) *BoundsTracker {
	if debounce <= 0 {
		debounce = DefaultBoundsDebounce
	}
	t := &BoundsTracker{
		log:      log.With().Str("component", "bounds").Logger(),
		debounce: debounce,
		publish:  publish,
		current:  host.ContentBounds(),
	}
	t.unsub = host.OnContentBoundsChanged(t.observe)
	return t
}

// Current returns the most recently published content-area rectangle.
func (t *BoundsTracker) Current() entity.Bounds {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// observe records a host resize and (re)arms the debounce timer. Rapid
// bursts collapse into a single flush.
func (t *BoundsTracker) observe(b entity.Bounds) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.pending = b
	t.hasPending = true
	if t.timer == nil {
		t.timer = time.AfterFunc(t.debounce, t.flush)
	} else {
		t.timer.Reset(t.debounce)
	}
}

func (t *BoundsTracker) flush() {
	t.mu.Lock()
	if t.closed || !t.hasPending {
		t.mu.Unlock()
		return
	}
	b := t.pending
	t.hasPending = false
	changed := b != t.current
	t.current = b
	t.mu.Unlock()

	if !changed {
		return
	}
	t.log.Debug().
		Int("width", b.Width).
		Int("height", b.Height).
		Msg("content area changed")
	if t.publish != nil {
		t.publish(b)
	}
}

// Close detaches from the host window and stops any pending flush.
func (t *BoundsTracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
	}
	unsub := t.unsub
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
