package port

import (
	"context"

	"github.com/emberhost/emberview/internal/domain/entity"
)

// HostWindow is the single parent window hosting all embedded views.
//
// Bounds contract: ContentBounds and the rectangles delivered to resize
// subscribers are host-window-absolute, measured from the top-left corner
// of the window's content area. The host adapter is the only place that
// converts from toolkit coordinates; the manager never invents offsets.
type HostWindow interface {
	// ContentBounds returns the rectangle currently reserved for embedded
	// views.
	ContentBounds() entity.Bounds
	// OnContentBoundsChanged registers a resize observer and returns an
	// idempotent unsubscribe function. Observers may be invoked from the
	// toolkit's thread; they must not block.
	OnContentBoundsChanged(fn func(entity.Bounds)) (unsubscribe func())
	// OpenExternal hands a URL to the host's external-open mechanism
	// (the default system browser or equivalent).
	OpenExternal(ctx context.Context, url string) error
}
