package viewmanager

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
)

// fakeSurface records every boundary call so tests can assert on the exact
// message sequence the manager sends across it.
type fakeSurface struct {
	mu sync.Mutex

	id    string
	appID string

	failURLs   map[string]error
	loadDelay  time.Duration
	attachErr  error
	destroyErr error

	loads      []string
	currentURL string
	attached   bool
	bounds     entity.Bounds
	destroyed  bool
	css        []string
	scripts    []string
	policy     port.NavigationPolicy

	attachCount int
	detachCount int
}

func (s *fakeSurface) ID() string { return s.id }

func (s *fakeSurface) Load(ctx context.Context, url string) error {
	if s.loadDelay > 0 {
		select {
		case <-time.After(s.loadDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("surface destroyed")
	}
	s.loads = append(s.loads, url)
	if err, ok := s.failURLs[url]; ok {
		return err
	}
	s.currentURL = url
	return nil
}

func (s *fakeSurface) Attach(ctx context.Context, b entity.Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachErr != nil {
		return s.attachErr
	}
	s.attached = true
	s.bounds = b
	s.attachCount++
	return nil
}

func (s *fakeSurface) SetBounds(ctx context.Context, b entity.Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = b
	return nil
}

func (s *fakeSurface) Detach(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
	s.detachCount++
	return nil
}

func (s *fakeSurface) Destroy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyErr != nil {
		return s.destroyErr
	}
	s.destroyed = true
	return nil
}

func (s *fakeSurface) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL, nil
}

func (s *fakeSurface) InjectCSS(ctx context.Context, css string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.css = append(s.css, css)
	return nil
}

func (s *fakeSurface) RunScript(ctx context.Context, script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script)
	return nil
}

func (s *fakeSurface) SetNavigationPolicy(policy port.NavigationPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy
}

func (s *fakeSurface) snapshot() fakeSurface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fakeSurface{
		loads:       append([]string(nil), s.loads...),
		currentURL:  s.currentURL,
		attached:    s.attached,
		bounds:      s.bounds,
		destroyed:   s.destroyed,
		css:         append([]string(nil), s.css...),
		scripts:     append([]string(nil), s.scripts...),
		attachCount: s.attachCount,
		detachCount: s.detachCount,
	}
}

// fakeEngine hands out pre-configured surfaces per app id and counts
// creations.
type fakeEngine struct {
	mu        sync.Mutex
	surfaces  map[string]*fakeSurface
	created   map[string]int
	createErr error
	nextID    int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		surfaces: make(map[string]*fakeSurface),
		created:  make(map[string]int),
	}
}

// prepare pre-registers the surface Create will hand out for appID.
func (e *fakeEngine) prepare(appID string, s *fakeSurface) *fakeSurface {
	e.mu.Lock()
	defer e.mu.Unlock()
	s.appID = appID
	if s.failURLs == nil {
		s.failURLs = make(map[string]error)
	}
	e.surfaces[appID] = s
	return s
}

func (e *fakeEngine) Create(ctx context.Context, opts port.SurfaceOptions) (port.Surface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.createErr != nil {
		return nil, e.createErr
	}
	e.nextID++
	e.created[opts.AppID]++
	s, ok := e.surfaces[opts.AppID]
	if !ok {
		s = &fakeSurface{appID: opts.AppID, failURLs: make(map[string]error)}
		e.surfaces[opts.AppID] = s
	}
	s.id = fmt.Sprintf("surface-%d", e.nextID)
	return s, nil
}

func (e *fakeEngine) createdCount(appID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.created[appID]
}

func (e *fakeEngine) surface(appID string) *fakeSurface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surfaces[appID]
}

// fakeHost is an in-memory host window with a settable content area.
type fakeHost struct {
	mu        sync.Mutex
	bounds    entity.Bounds
	observers map[int]func(entity.Bounds)
	nextObs   int
	externals []string
}

func newFakeHost(b entity.Bounds) *fakeHost {
	return &fakeHost{bounds: b, observers: make(map[int]func(entity.Bounds))}
}

func (h *fakeHost) ContentBounds() entity.Bounds {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bounds
}

func (h *fakeHost) OnContentBoundsChanged(fn func(entity.Bounds)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextObs
	h.nextObs++
	h.observers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.observers, id)
	}
}

func (h *fakeHost) OpenExternal(ctx context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.externals = append(h.externals, url)
	return nil
}

func (h *fakeHost) externalOpens() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.externals...)
}

// resize simulates a host-window resize notification.
func (h *fakeHost) resize(b entity.Bounds) {
	h.mu.Lock()
	h.bounds = b
	obs := make([]func(entity.Bounds), 0, len(h.observers))
	for _, fn := range h.observers {
		obs = append(obs, fn)
	}
	h.mu.Unlock()
	for _, fn := range obs {
		fn(b)
	}
}

// transitionRecorder collects bus deliveries for assertions.
type transitionRecorder struct {
	mu     sync.Mutex
	events []entity.Transition
}

func (r *transitionRecorder) record(t entity.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, t)
}

func (r *transitionRecorder) statesFor(appID string) []entity.ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ViewState
	for _, ev := range r.events {
		if ev.AppID == appID {
			out = append(out, ev.State)
		}
	}
	return out
}

func newTestManager(t *testing.T, opts ...func(*Options)) (*Manager, *fakeEngine, *fakeHost) {
	t.Helper()
	engine := newFakeEngine()
	host := newFakeHost(entity.Bounds{Width: 1024, Height: 768})
	o := Options{
		Engine:         engine,
		Host:           host,
		Logger:         zerolog.Nop(),
		BoundsDebounce: 10 * time.Millisecond,
	}
	for _, fn := range opts {
		fn(&o)
	}
	m, err := New(o)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, engine, host
}

func registerApp(t *testing.T, m *Manager, cfg entity.AppConfig) {
	t.Helper()
	if err := m.RegisterConfig(cfg); err != nil {
		t.Fatalf("RegisterConfig(%s): %v", cfg.ID, err)
	}
}
