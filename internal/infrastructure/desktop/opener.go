// Package desktop provides desktop environment integration for Linux (XDG).
package desktop

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// Opener hands URLs to the system's default handler. It is the target of
// the manager's external-link redirects.
type Opener struct {
	log zerolog.Logger
}

// NewOpener creates an opener.
func NewOpener(log zerolog.Logger) *Opener {
	return &Opener{log: log.With().Str("component", "desktop").Logger()}
}

// Open launches the first available XDG open tool for url. The spawned
// process is not waited on; the handler owns its own lifetime.
func (o *Opener) Open(ctx context.Context, url string) error {
	candidates := [][]string{
		{"xdg-open", url},
		{"gio", "open", url},
		{"open", url},
	}

	for _, candidate := range candidates {
		bin, err := exec.LookPath(candidate[0])
		if err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, bin, candidate[1:]...)
		if err := cmd.Start(); err != nil {
			o.log.Warn().Err(err).Str("tool", candidate[0]).Msg("external open tool failed to start")
			continue
		}
		go func() {
			_ = cmd.Wait()
		}()
		o.log.Debug().Str("tool", candidate[0]).Str("url", url).Msg("opened externally")
		return nil
	}

	return fmt.Errorf("desktop: no opener available for %q", url)
}
