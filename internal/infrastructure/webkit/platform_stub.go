//go:build !webkit_cgo

package webkit

import (
	"context"
	"errors"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
)

// ErrWebKitUnavailable is returned when the binary was built without the
// webkit_cgo tag and a platform surface engine is requested.
var ErrWebKitUnavailable = errors.New("webkit: built without webkit support (rebuild with -tags webkit_cgo)")

// PlatformAvailable reports whether the WebKitGTK adapter is compiled in.
func PlatformAvailable() bool { return false }

// PlatformEngine and PlatformWindow are never instantiated without the
// webkit_cgo tag. The stubs keep callers compiling in both modes.
type PlatformEngine struct{}

func (*PlatformEngine) Create(ctx context.Context, opts port.SurfaceOptions) (port.Surface, error) {
	return nil, ErrWebKitUnavailable
}

type PlatformWindow struct{}

func (*PlatformWindow) ContentBounds() entity.Bounds { return entity.Bounds{} }

func (*PlatformWindow) OnContentBoundsChanged(fn func(entity.Bounds)) func() {
	return func() {}
}

func (*PlatformWindow) OpenExternal(ctx context.Context, url string) error {
	return ErrWebKitUnavailable
}

// RunPlatform reports that this binary has no WebKitGTK support.
func RunPlatform(opts PlatformOptions, ready func(engine *PlatformEngine, host *PlatformWindow, quit func())) error {
	return ErrWebKitUnavailable
}
