//go:build webkit_cgo

package webkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	webkit "github.com/diamondburned/gotk4-webkitgtk/pkg/webkit/v6"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
)

// PlatformEngine creates WebKitGTK surfaces parented into a PlatformWindow.
type PlatformEngine struct {
	window *PlatformWindow
	log    zerolog.Logger
}

// NewPlatformEngine creates the WebKitGTK engine. Surfaces it creates can
// only be attached to the given window.
func NewPlatformEngine(window *PlatformWindow, log zerolog.Logger) (*PlatformEngine, error) {
	if window == nil {
		return nil, fmt.Errorf("webkit: platform engine requires a host window")
	}
	return &PlatformEngine{
		window: window,
		log:    log.With().Str("component", "webkit.engine").Logger(),
	}, nil
}

// Create allocates a detached WebView on the GTK main thread.
func (e *PlatformEngine) Create(ctx context.Context, opts port.SurfaceOptions) (port.Surface, error) {
	if opts.AppID == "" {
		return nil, fmt.Errorf("webkit: surface requires an app id")
	}

	s := &gtkSurface{
		id:    uuid.NewString(),
		appID: opts.AppID,
		fixed: e.window.container(),
		log:   e.log.With().Str("app", opts.AppID).Logger(),
	}

	runOnMain(func() {
		s.view = webkit.NewWebView()

		settings := s.view.Settings()
		settings.SetEnableJavascript(!opts.Sandbox.DisableJavaScript)
		settings.SetJavascriptCanOpenWindowsAutomatically(opts.Sandbox.AllowPopups)
		settings.SetJavascriptCanAccessClipboard(opts.Sandbox.AllowClipboard)
		settings.SetHardwareAccelerationPolicy(webkit.HardwareAccelerationPolicyAlways)
		if opts.Sandbox.UserAgent != "" {
			settings.SetUserAgent(opts.Sandbox.UserAgent)
		}

		if opts.BackgroundColor != "" {
			var rgba gdk.RGBA
			if rgba.Parse(opts.BackgroundColor) {
				s.view.SetBackgroundColor(&rgba)
			} else {
				s.log.Warn().Str("color", opts.BackgroundColor).Msg("unparseable background color, keeping default")
			}
		}

		s.view.ConnectLoadChanged(func(event webkit.LoadEvent) {
			if event != webkit.LoadFinished {
				return
			}
			s.settle(nil)
		})
		s.view.ConnectLoadFailed(func(event webkit.LoadEvent, failingURI string, err error) bool {
			s.settle(fmt.Errorf("webkit: loading %q: %w", failingURI, err))
			return false
		})

		s.view.ConnectDecidePolicy(func(decision webkit.PolicyDecisioner, decisionType webkit.PolicyDecisionType) bool {
			if decisionType != webkit.PolicyDecisionTypeNavigationAction {
				return false
			}
			nav, ok := decision.(*webkit.NavigationPolicyDecision)
			if !ok {
				return false
			}
			action := nav.NavigationAction()
			uri := action.Request().URI()

			s.mu.Lock()
			policy := s.policy
			s.mu.Unlock()
			if policy == nil || policy(uri, action.IsUserGesture()) {
				return false
			}
			nav.Ignore()
			return true
		})
	})

	e.log.Debug().Str("app", opts.AppID).Str("surface", s.id).Msg("webview created")
	return s, nil
}

type gtkSurface struct {
	id    string
	appID string
	view  *webkit.WebView
	fixed *gtk.Fixed
	log   zerolog.Logger

	mu        sync.Mutex
	destroyed bool
	attached  bool
	policy    port.NavigationPolicy
	loadDone  chan error
}

func (s *gtkSurface) ID() string { return s.id }

// Load navigates the view and blocks until WebKit reports the load
// finished or failed, or ctx expires.
func (s *gtkSurface) Load(ctx context.Context, url string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	done := make(chan error, 1)
	s.loadDone = done
	s.mu.Unlock()

	runOnMain(func() {
		s.view.LoadURI(url)
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		runOnMain(func() {
			s.view.StopLoading()
		})
		return fmt.Errorf("webkit: loading %q: %w", url, ctx.Err())
	}
}

// settle delivers the outcome of the in-flight load, if any. Runs on the
// GTK main thread.
func (s *gtkSurface) settle(err error) {
	s.mu.Lock()
	done := s.loadDone
	s.loadDone = nil
	s.mu.Unlock()
	if done != nil {
		done <- err
	}
}

func (s *gtkSurface) Attach(ctx context.Context, bounds entity.Bounds) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	alreadyAttached := s.attached
	s.attached = true
	s.mu.Unlock()

	runOnMain(func() {
		if !alreadyAttached {
			s.fixed.Put(s.view, float64(bounds.X), float64(bounds.Y))
		} else {
			s.fixed.Move(s.view, float64(bounds.X), float64(bounds.Y))
		}
		s.view.SetSizeRequest(bounds.Width, bounds.Height)
		s.view.SetVisible(true)
	})
	return nil
}

func (s *gtkSurface) SetBounds(ctx context.Context, bounds entity.Bounds) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	if !s.attached {
		s.mu.Unlock()
		return fmt.Errorf("webkit: surface not attached")
	}
	s.mu.Unlock()

	runOnMain(func() {
		s.fixed.Move(s.view, float64(bounds.X), float64(bounds.Y))
		s.view.SetSizeRequest(bounds.Width, bounds.Height)
	})
	return nil
}

func (s *gtkSurface) Detach(ctx context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	wasAttached := s.attached
	s.attached = false
	s.mu.Unlock()

	if !wasAttached {
		return nil
	}
	runOnMain(func() {
		s.view.SetVisible(false)
		s.fixed.Remove(s.view)
	})
	return nil
}

func (s *gtkSurface) Destroy(ctx context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	s.destroyed = true
	wasAttached := s.attached
	s.attached = false
	s.mu.Unlock()

	s.settle(ErrSurfaceDestroyed)

	runOnMain(func() {
		if wasAttached {
			s.fixed.Remove(s.view)
		}
		s.view.TerminateWebProcess()
	})
	s.log.Debug().Str("surface", s.id).Msg("webview destroyed")
	return nil
}

func (s *gtkSurface) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return "", ErrSurfaceDestroyed
	}
	s.mu.Unlock()

	var uri string
	runOnMain(func() {
		uri = s.view.URI()
	})
	return uri, nil
}

// InjectCSS upserts a single style element so repeated injection of the
// same stylesheet stays idempotent.
func (s *gtkSurface) InjectCSS(ctx context.Context, css string) error {
	encoded, err := json.Marshal(css)
	if err != nil {
		return fmt.Errorf("webkit: encoding stylesheet: %w", err)
	}
	script := fmt.Sprintf(`(function() {
	var id = "__emberview_css";
	var el = document.getElementById(id);
	if (!el) {
		el = document.createElement("style");
		el.id = id;
		document.head.appendChild(el);
	}
	el.textContent = %s;
})();`, encoded)
	return s.RunScript(ctx, script)
}

func (s *gtkSurface) RunScript(ctx context.Context, script string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	s.mu.Unlock()

	runOnMain(func() {
		s.view.EvaluateJavascript(script, -1, nil, nil, nil, nil, 0)
	})
	return nil
}

func (s *gtkSurface) SetNavigationPolicy(policy port.NavigationPolicy) {
	s.mu.Lock()
	s.policy = policy
	s.mu.Unlock()
}
