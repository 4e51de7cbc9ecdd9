// Package viewmanager implements the embedded mini-app view lifecycle: it
// creates, loads, positions, shows, hides, and destroys isolated rendering
// surfaces hosted inside one parent window, driven by per-app configuration
// metadata.
package viewmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
	"github.com/emberhost/emberview/internal/logging"
)

// Options wires a Manager to its collaborators. Engine and Host are
// required; everything else has defaults.
type Options struct {
	Engine port.SurfaceEngine
	Host   port.HostWindow
	Logger zerolog.Logger
	// BoundsDebounce coalesces host resize bursts; zero means the default.
	BoundsDebounce time.Duration
}

// Manager is the view lifecycle manager. Construct exactly one per host
// window at application startup and pass it by reference; its lifecycle is
// tied to the host application's own startup/shutdown sequence.
//
// All registry and state-machine mutation is serialized under one mutex so
// the handle map and the active view id have a single logical execution
// context. Long-running work (surface creation, the load chain) runs outside
// the lock and commits its result under it, tagged with a per-handle
// generation so completions arriving after destroy or reload are discarded.
type Manager struct {
	engine port.SurfaceEngine
	host   port.HostWindow
	log    zerolog.Logger

	// baseCtx carries the logger into work the manager starts itself
	// (bounds refresh, external opens, fire-and-forget reloads).
	baseCtx context.Context

	resolver *ConfigResolver
	bus      *StateBus
	loader   *loader
	bounds   *BoundsTracker

	// flights collapses concurrent load attempts per app id.
	flights singleflight.Group

	mu     sync.Mutex
	reg    *registry
	closed bool
}

// New creates a Manager bound to the given surface engine and host window.
func New(opts Options) (*Manager, error) {
	if opts.Engine == nil {
		return nil, errors.New("viewmanager: surface engine is required")
	}
	if opts.Host == nil {
		return nil, fmt.Errorf("%w: host window is required", ErrHostUnavailable)
	}

	log := opts.Logger.With().Str("component", "viewmanager").Logger()
	m := &Manager{
		engine:   opts.Engine,
		host:     opts.Host,
		log:      log,
		baseCtx:  logging.WithContext(context.Background(), opts.Logger),
		resolver: NewConfigResolver(opts.Logger),
		bus:      NewStateBus(opts.Logger),
		loader:   newLoader(opts.Logger),
		reg:      newRegistry(),
	}
	m.bounds = NewBoundsTracker(opts.Host, opts.BoundsDebounce, m.applyContentBounds, opts.Logger)
	return m, nil
}

// RegisterConfig upserts an app config. Patterns and scripts are validated
// here so open never proceeds on a broken config.
func (m *Manager) RegisterConfig(cfg entity.AppConfig) error {
	return m.resolver.Register(cfg)
}

// Config returns the last registered config for an app id.
func (m *Manager) Config(appID string) (entity.AppConfig, error) {
	return m.resolver.Get(appID)
}

// Configs returns every registered app config, sorted by id.
func (m *Manager) Configs() []entity.AppConfig {
	return m.resolver.All()
}

// Open ensures a handle exists for appID and runs the load chain, blocking
// until it settles. Calling Open for an id that is already Loaded or
// Visible returns the current state without touching the handle. Concurrent
// opens for one id share a single load attempt.
func (m *Manager) Open(ctx context.Context, appID string) (entity.ViewState, error) {
	cfg, err := m.resolver.Get(appID)
	if err != nil {
		return entity.StateNotLoaded, err
	}

	v, err, _ := m.flights.Do(appID, func() (any, error) {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return entity.StateNotLoaded, ErrManagerClosed
		}
		h, created := m.reg.getOrCreate(appID, cfg.URL)
		if !created && (h.state == entity.StateLoaded || h.state == entity.StateVisible) {
			st := h.state
			m.mu.Unlock()
			return st, nil
		}
		m.mu.Unlock()
		return m.load(ctx, h, cfg, cfg.LoadChain())
	})

	state, ok := v.(entity.ViewState)
	if !ok {
		state = entity.StateNotLoaded
	}
	return state, err
}

// Reload restarts the load chain for an existing handle. With overrideURL
// set, only that URL is attempted. The call returns as soon as the reload
// is accepted; the outcome is delivered through the state bus. Any prior
// in-flight attempt for the handle is orphaned, not leaked: its completion
// is discarded by the generation check.
func (m *Manager) Reload(ctx context.Context, appID, overrideURL string) (bool, error) {
	cfg, err := m.resolver.Get(appID)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false, ErrManagerClosed
	}
	h, ok := m.reg.get(appID)
	if !ok {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrNotFound, appID)
	}
	// A visible view detaches before reloading and comes back via show.
	if m.reg.activeID == appID {
		m.detachActiveLocked(ctx)
	}
	// Orphan any chain already in flight: bumping the generation makes its
	// commit fail the staleness check, and forgetting the flight key makes
	// the goroutine below start a fresh chain instead of joining the old
	// one.
	h.gen++
	m.flights.Forget(appID)
	m.mu.Unlock()

	chain := cfg.LoadChain()
	if overrideURL != "" {
		chain = []string{overrideURL}
	}

	go func() {
		_, err, _ := m.flights.Do(appID, func() (any, error) {
			return m.load(m.baseCtx, h, cfg, chain)
		})
		if err != nil && !errors.Is(err, ErrNotFound) {
			m.log.Warn().Err(err).Str("app", appID).Msg("reload failed")
		}
	}()
	return true, nil
}

// load runs one pass through chain and commits the outcome. It is the only
// path that moves a handle through Loading, and the only writer of
// currentURL.
func (m *Manager) load(ctx context.Context, h *handle, cfg entity.AppConfig, chain []string) (entity.ViewState, error) {
	surface, err := m.ensureSurface(ctx, h, cfg)
	if err != nil {
		return entity.StateError, err
	}

	m.mu.Lock()
	if !m.handleCurrentLocked(h) {
		m.mu.Unlock()
		return entity.StateNotLoaded, fmt.Errorf("%w: %q", ErrNotFound, h.appID)
	}
	h.gen++
	gen := h.gen
	h.state = entity.StateLoading
	m.publishLocked(h)
	m.mu.Unlock()

	finalURL, err := m.loader.run(ctx, surface, h.appID, chain, cfg.Loading.LoadBlankFirst)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.handleCurrentLocked(h) || h.gen != gen {
		// The handle was destroyed or reloaded while this chain ran;
		// the completion must not mutate it.
		m.log.Debug().Str("app", h.appID).Msg("discarding stale load completion")
		return entity.StateNotLoaded, fmt.Errorf("%w: %q", ErrNotFound, h.appID)
	}
	if err != nil {
		h.state = entity.StateError
		m.publishLocked(h)
		return entity.StateError, err
	}
	h.state = entity.StateLoaded
	h.currentURL = finalURL
	m.publishLocked(h)
	return entity.StateLoaded, nil
}

// ensureSurface lazily creates the handle's rendering surface. A destroy
// racing the creation still results in resource release: the fresh surface
// is destroyed instead of installed.
func (m *Manager) ensureSurface(ctx context.Context, h *handle, cfg entity.AppConfig) (port.Surface, error) {
	m.mu.Lock()
	if !m.handleCurrentLocked(h) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrNotFound, h.appID)
	}
	if h.surface != nil {
		s := h.surface
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	s, err := m.engine.Create(ctx, port.SurfaceOptions{
		AppID:           h.appID,
		BackgroundColor: cfg.Hints.BackgroundColor,
		Sandbox:         cfg.Sandbox,
	})
	if err != nil {
		m.mu.Lock()
		if m.handleCurrentLocked(h) {
			h.state = entity.StateError
			m.publishLocked(h)
		}
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: creating surface for %q: %w", ErrLoadFailed, h.appID, err)
	}
	s.SetNavigationPolicy(m.navigationPolicy(h.appID))

	m.mu.Lock()
	if !m.handleCurrentLocked(h) {
		m.mu.Unlock()
		_ = s.Destroy(ctx)
		return nil, fmt.Errorf("%w: %q", ErrNotFound, h.appID)
	}
	if h.surface == nil {
		h.surface = s
		m.mu.Unlock()
		return s, nil
	}
	// Another flight installed a surface first; release ours.
	existing := h.surface
	m.mu.Unlock()
	_ = s.Destroy(ctx)
	return existing, nil
}

// Destroy removes the handle for appID: detaches it if visible, releases
// the rendering surface, and drops all bookkeeping. In-flight loads for the
// handle are orphaned and their completions discarded.
func (m *Manager) Destroy(ctx context.Context, appID string) (bool, error) {
	m.mu.Lock()
	h, ok := m.reg.get(appID)
	if !ok {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrNotFound, appID)
	}
	h.gen++
	if m.reg.activeID == appID {
		m.detachActiveLocked(ctx)
	}
	surface := h.surface
	m.reg.remove(appID)
	m.mu.Unlock()

	m.log.Debug().Str("app", appID).Msg("view destroyed")
	if surface != nil {
		if err := surface.Destroy(ctx); err != nil {
			return true, fmt.Errorf("viewmanager: releasing surface for %q: %w", appID, err)
		}
	}
	return true, nil
}

// DestroyAll destroys every registered handle. A failure destroying one id
// is collected, not propagated, and does not prevent destruction attempts
// on the remaining ids. The returned error joins the individual failures.
func (m *Manager) DestroyAll(ctx context.Context) error {
	m.mu.Lock()
	ids := m.reg.ids()
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if _, err := m.Destroy(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetState returns the lifecycle state of the handle for appID.
func (m *Manager) GetState(appID string) (entity.ViewState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.reg.get(appID)
	if !ok {
		return entity.StateNotLoaded, fmt.Errorf("%w: %q", ErrNotFound, appID)
	}
	return h.state, nil
}

// ActiveID returns the app id of the visible view, or "" when none is.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.activeID
}

// Info returns an immutable snapshot of the handle for appID.
func (m *Manager) Info(appID string) (entity.ViewInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.reg.get(appID)
	if !ok {
		return entity.ViewInfo{}, fmt.Errorf("%w: %q", ErrNotFound, appID)
	}
	return h.info(), nil
}

// Infos returns snapshots of every live handle, sorted by app id.
func (m *Manager) Infos() []entity.ViewInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.ViewInfo, 0, m.reg.size())
	for _, id := range m.reg.ids() {
		h, _ := m.reg.get(id)
		out = append(out, h.info())
	}
	return out
}

// CurrentURL queries the surface across the boundary for the URL it
// actually displays, falling back to the manager's bookkeeping when the
// surface has not been created yet.
func (m *Manager) CurrentURL(ctx context.Context, appID string) (string, error) {
	m.mu.Lock()
	h, ok := m.reg.get(appID)
	if !ok {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrNotFound, appID)
	}
	surface := h.surface
	bookkept := h.currentURL
	m.mu.Unlock()

	if surface == nil {
		return bookkept, nil
	}
	url, err := surface.CurrentURL(ctx)
	if err != nil {
		m.log.Debug().Err(err).Str("app", appID).Msg("surface url query failed, using bookkept url")
		return bookkept, nil
	}
	return url, nil
}

// OnStateChange subscribes to lifecycle transitions. The returned
// unsubscribe function is idempotent and safe after Close.
func (m *Manager) OnStateChange(fn StateCallback) func() {
	return m.bus.Subscribe(fn)
}

// ContentBounds returns the current content-area rectangle.
func (m *Manager) ContentBounds() entity.Bounds {
	return m.bounds.Current()
}

// Close shuts the manager down: stops bounds tracking, destroys every
// handle, and tears down the state bus. Idempotent.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.bounds.Close()
	err := m.DestroyAll(ctx)
	m.bus.Close()
	m.log.Debug().Msg("view manager closed")
	return err
}

// handleCurrentLocked reports whether h is still the live handle for its
// app id. Callers hold m.mu.
func (m *Manager) handleCurrentLocked(h *handle) bool {
	cur, ok := m.reg.get(h.appID)
	return ok && cur == h
}

// publishLocked emits the handle's current state on the bus. Callers hold
// m.mu, which is what gives per-app transitions their publish order.
func (m *Manager) publishLocked(h *handle) {
	m.bus.Publish(entity.Transition{
		AppID:      h.appID,
		State:      h.state,
		CurrentURL: h.currentURL,
		OccurredAt: time.Now(),
	})
}
