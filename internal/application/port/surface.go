// Package port defines application-layer interfaces for external capabilities.
// Ports abstract infrastructure concerns, allowing the view manager to remain
// independent of specific implementations (WebKit, GTK, headless engines).
package port

import (
	"context"

	"github.com/emberhost/emberview/internal/domain/entity"
)

// SurfaceOptions configures a new rendering surface for one mini-app.
type SurfaceOptions struct {
	AppID           string
	BackgroundColor string
	Sandbox         entity.SandboxPolicy
}

// NavigationPolicy is consulted before each in-surface navigation.
// Returning false cancels the navigation inside the surface.
type NavigationPolicy func(targetURL string, userGesture bool) bool

// SurfaceEngine creates rendering surfaces. The engine owns the isolated
// boundary (a separate worker or process is assumed); every Surface call is
// an asynchronous message exchange and must be treated as best-effort.
type SurfaceEngine interface {
	// Create allocates a new detached surface. The surface is not visible
	// until Attach is called.
	Create(ctx context.Context, opts SurfaceOptions) (Surface, error)
}

// Surface is one isolated rendering surface. Implementations must tolerate
// calls after Destroy by returning an error rather than crashing; the
// manager discards results that arrive for destroyed handles.
type Surface interface {
	// ID identifies the surface instance across the boundary.
	ID() string
	// Load navigates the surface to url, blocking until the load settles.
	// A non-nil error means this URL failed; the caller decides fallbacks.
	Load(ctx context.Context, url string) error
	// Attach places the surface into the host window at bounds.
	Attach(ctx context.Context, bounds entity.Bounds) error
	// SetBounds repositions an attached surface.
	SetBounds(ctx context.Context, bounds entity.Bounds) error
	// Detach removes the surface from the host window without destroying
	// it or its loaded state.
	Detach(ctx context.Context) error
	// Destroy releases the underlying rendering resources. Idempotent.
	Destroy(ctx context.Context) error
	// CurrentURL queries the surface for the URL it currently displays.
	CurrentURL(ctx context.Context) (string, error)
	// InjectCSS applies a stylesheet to the current content. Idempotent.
	InjectCSS(ctx context.Context, css string) error
	// RunScript evaluates a script in the surface. Idempotent scripts only.
	RunScript(ctx context.Context, script string) error
	// SetNavigationPolicy installs the link-handling decision callback.
	SetNavigationPolicy(policy NavigationPolicy)
}
