package webkit

import (
	"context"

	"github.com/rs/zerolog"
)

// PlatformOptions configures the GTK host application and window.
type PlatformOptions struct {
	// ApplicationID is the GTK application id, e.g. "com.emberhost.emberview".
	ApplicationID string
	Title         string
	Width         int
	Height        int
	// Opener receives external-link URLs; nil discards them.
	Opener func(ctx context.Context, url string) error
	Logger zerolog.Logger
}
