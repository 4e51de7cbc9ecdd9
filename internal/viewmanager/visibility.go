package viewmanager

import (
	"context"
	"fmt"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
)

// Show attaches the view for appID to the host window at bounds and makes
// it the active view. Any previously active view is detached and lands on
// StateLoaded; its surface stays alive in memory. The whole operation runs
// under the manager's mutex, so no observer can ever see two views Visible
// at once.
//
// Passing zero bounds uses the tracker's current content-area rectangle.
// An attach failure is absorbed into StateError and reported through the
// state bus; Show then returns false without an error.
func (m *Manager) Show(ctx context.Context, appID string, bounds entity.Bounds) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrManagerClosed
	}
	h, ok := m.reg.get(appID)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNotFound, appID)
	}
	switch h.state {
	case entity.StateLoaded, entity.StateVisible:
	default:
		return false, fmt.Errorf("%w: cannot show %q while %s", ErrInvalidState, appID, h.state)
	}

	if bounds.IsZero() {
		bounds = m.bounds.Current()
	}
	cfg, _ := m.resolver.Get(appID)
	applied := bounds.Inset(cfg.Hints.ContentPadding)

	if m.reg.activeID == appID {
		// Already visible: only refresh the applied bounds.
		if err := h.surface.SetBounds(ctx, applied); err != nil {
			m.log.Warn().Err(err).Str("app", appID).Msg("bounds refresh failed")
		}
		h.lastBounds = applied
		return true, nil
	}

	// Hiding the previous view and attaching this one happen inside the
	// same critical section; the two are one logical unit to observers.
	m.detachActiveLocked(ctx)

	if err := h.surface.Attach(ctx, applied); err != nil {
		m.log.Error().Err(err).Str("app", appID).Msg("attach to host window failed")
		h.state = entity.StateError
		m.publishLocked(h)
		return false, nil
	}

	h.state = entity.StateVisible
	h.lastBounds = applied
	m.reg.activeID = appID
	m.publishLocked(h)

	// Re-apply CSS and the visibility script after every attach, in that
	// order, so the content is never attached without them. Both must be
	// idempotent per the config contract.
	if cfg.Loading.InjectCSS != "" {
		if err := h.surface.InjectCSS(ctx, cfg.Loading.InjectCSS); err != nil {
			m.log.Warn().Err(err).Str("app", appID).Msg("css injection failed")
		}
	}
	if cfg.Loading.VisibilityScript != "" {
		if err := h.surface.RunScript(ctx, cfg.Loading.VisibilityScript); err != nil {
			m.log.Warn().Err(err).Str("app", appID).Msg("visibility script failed")
		}
	}
	if cfg.Loading.PeriodicVisibilityCheck {
		m.log.Debug().Str("app", appID).
			Msg("periodic_visibility_check is set but ignored; attach-then-inject ordering makes it unnecessary")
	}

	m.log.Info().Str("app", appID).
		Int("width", applied.Width).Int("height", applied.Height).
		Msg("view shown")
	return true, nil
}

// Hide detaches the view for appID if it is the active one. The handle
// lands on StateLoaded, never StateNotLoaded; hiding a non-active view is a
// no-op returning false.
func (m *Manager) Hide(ctx context.Context, appID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrManagerClosed
	}
	if m.reg.activeID != appID {
		return false, nil
	}
	m.detachActiveLocked(ctx)
	m.log.Info().Str("app", appID).Msg("view hidden")
	return true, nil
}

// detachActiveLocked removes the active view from the host surface without
// destroying it: state becomes Loaded, the surface stays in memory, and the
// active id clears. Callers hold m.mu.
func (m *Manager) detachActiveLocked(ctx context.Context) {
	h, ok := m.reg.active()
	if !ok {
		m.reg.activeID = ""
		return
	}
	if h.surface != nil {
		if err := h.surface.Detach(ctx); err != nil {
			m.log.Warn().Err(err).Str("app", h.appID).Msg("detach failed")
		}
	}
	h.state = entity.StateLoaded
	m.reg.activeID = ""
	m.publishLocked(h)
}

// applyContentBounds is the bounds tracker's publish target: whenever the
// content area changes, the visible view's applied bounds are refreshed so
// they always reflect the most recently published rectangle.
func (m *Manager) applyContentBounds(b entity.Bounds) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.reg.active()
	if !ok || h.surface == nil {
		return
	}
	cfg, _ := m.resolver.Get(h.appID)
	applied := b.Inset(cfg.Hints.ContentPadding)
	if err := h.surface.SetBounds(m.baseCtx, applied); err != nil {
		m.log.Warn().Err(err).Str("app", h.appID).Msg("bounds reapply failed")
		return
	}
	h.lastBounds = applied
}

// navigationPolicy builds the per-app link-handling callback installed on
// each surface: targets matching the app's external patterns are redirected
// to the host's external opener and cancelled in-surface.
func (m *Manager) navigationPolicy(appID string) port.NavigationPolicy {
	return func(target string, userGesture bool) bool {
		if m.resolver.Classify(appID, target) != LinkExternal {
			return true
		}
		m.log.Debug().Str("app", appID).Str("url", target).Msg("redirecting navigation to external opener")
		go func() {
			if err := m.host.OpenExternal(m.baseCtx, target); err != nil {
				m.log.Warn().Err(err).Str("url", target).Msg("external open failed")
			}
		}()
		return false
	}
}
