// Package webkit provides rendering surface engines. The WebKitGTK adapter
// is gated behind the webkit_cgo build tag; the offscreen engine in this
// file is always available and backs headless operation and development
// without a display server.
package webkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
)

// ErrSurfaceDestroyed is returned by surface operations after Destroy.
var ErrSurfaceDestroyed = errors.New("webkit: surface destroyed")

const offscreenLoadTimeout = 15 * time.Second

// OffscreenEngine creates surfaces that fetch URLs over HTTP instead of
// rendering them. Load succeeds when the URL is reachable, which preserves
// the manager's fallback and state semantics without a WebKit process.
type OffscreenEngine struct {
	client *http.Client
	log    zerolog.Logger
}

// NewOffscreenEngine creates a headless engine.
func NewOffscreenEngine(log zerolog.Logger) *OffscreenEngine {
	return &OffscreenEngine{
		client: &http.Client{Timeout: offscreenLoadTimeout},
		log:    log.With().Str("component", "webkit.offscreen").Logger(),
	}
}

// Create allocates a detached offscreen surface.
func (e *OffscreenEngine) Create(ctx context.Context, opts port.SurfaceOptions) (port.Surface, error) {
	if opts.AppID == "" {
		return nil, errors.New("webkit: surface requires an app id")
	}
	s := &offscreenSurface{
		id:     uuid.NewString(),
		appID:  opts.AppID,
		client: e.client,
		log:    e.log.With().Str("app", opts.AppID).Logger(),
	}
	e.log.Debug().Str("app", opts.AppID).Str("surface", s.id).Msg("offscreen surface created")
	return s, nil
}

type offscreenSurface struct {
	id     string
	appID  string
	client *http.Client
	log    zerolog.Logger

	mu        sync.Mutex
	destroyed bool
	attached  bool
	bounds    entity.Bounds
	url       string
	policy    port.NavigationPolicy
}

func (s *offscreenSurface) ID() string { return s.id }

func (s *offscreenSurface) Load(ctx context.Context, url string) error {
	if err := s.alive(); err != nil {
		return err
	}

	// about:blank and non-HTTP schemes are accepted as-is; there is
	// nothing to probe.
	if url == "about:blank" || !strings.HasPrefix(url, "http") {
		s.setURL(url)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("webkit: building request for %q: %w", url, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webkit: loading %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webkit: loading %q: status %s", url, resp.Status)
	}

	s.setURL(url)
	s.log.Debug().Str("url", url).Msg("offscreen load settled")
	return nil
}

func (s *offscreenSurface) Attach(ctx context.Context, bounds entity.Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	s.attached = true
	s.bounds = bounds
	return nil
}

func (s *offscreenSurface) SetBounds(ctx context.Context, bounds entity.Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	if !s.attached {
		return errors.New("webkit: surface not attached")
	}
	s.bounds = bounds
	return nil
}

func (s *offscreenSurface) Detach(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	s.attached = false
	return nil
}

func (s *offscreenSurface) Destroy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.attached = false
	return nil
}

func (s *offscreenSurface) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return "", ErrSurfaceDestroyed
	}
	return s.url, nil
}

func (s *offscreenSurface) InjectCSS(ctx context.Context, css string) error {
	return s.alive()
}

func (s *offscreenSurface) RunScript(ctx context.Context, script string) error {
	return s.alive()
}

func (s *offscreenSurface) SetNavigationPolicy(policy port.NavigationPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy
}

func (s *offscreenSurface) alive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	return nil
}

func (s *offscreenSurface) setURL(url string) {
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
}

// OffscreenWindow is a HostWindow without a toolkit behind it. Headless
// runs use it as the bounds authority; tests drive it through Resize.
type OffscreenWindow struct {
	opener func(ctx context.Context, url string) error
	log    zerolog.Logger

	mu        sync.Mutex
	bounds    entity.Bounds
	observers map[uint64]func(entity.Bounds)
	nextID    uint64
}

// NewOffscreenWindow creates a host window with the given initial content
// bounds. opener receives external-link URLs; nil discards them.
func NewOffscreenWindow(bounds entity.Bounds, opener func(ctx context.Context, url string) error, log zerolog.Logger) *OffscreenWindow {
	return &OffscreenWindow{
		opener:    opener,
		log:       log.With().Str("component", "webkit.offscreen").Logger(),
		bounds:    bounds,
		observers: make(map[uint64]func(entity.Bounds)),
	}
}

// ContentBounds returns the current content rectangle.
func (w *OffscreenWindow) ContentBounds() entity.Bounds {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

// OnContentBoundsChanged registers a resize observer.
func (w *OffscreenWindow) OnContentBoundsChanged(fn func(entity.Bounds)) func() {
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
func (w *OffscreenWindow) OpenExternal(ctx context.Context, url string) error {
	if w.opener == nil {
		w.log.Debug().Str("url", url).Msg("no external opener configured, dropping url")
		return nil
	}
	return w.opener(ctx, url)
}

// Resize updates the content bounds and notifies observers.
func (w *OffscreenWindow) Resize(bounds entity.Bounds) {
	w.mu.Lock()
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
