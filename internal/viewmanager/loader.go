package viewmanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/application/port"
)

// aboutBlank is the warm-up page loaded when LoadBlankFirst is set, the
// same trick the surface engines use to get a first paint out of the way.
const aboutBlank = "about:blank"

// loader executes one pass through a URL attempt chain. It carries no retry
// or backoff of its own; reload semantics live in the manager.
type loader struct {
	log zerolog.Logger
}

func newLoader(log zerolog.Logger) *loader {
	return &loader{log: log.With().Str("component", "loader").Logger()}
}

// run attempts each URL in order and returns the first that loads. The
// returned error joins every per-URL failure when the chain is exhausted.
func (l *loader) run(ctx context.Context, surface port.Surface, appID string, chain []string, blankFirst bool) (string, error) {
	if blankFirst {
		if err := surface.Load(ctx, aboutBlank); err != nil {
			l.log.Debug().Err(err).Str("app", appID).Msg("blank warm-up load failed")
		}
	}

	var attempts []error
	for i, url := range chain {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := surface.Load(ctx, url)
		if err == nil {
			if i > 0 {
				l.log.Info().
					Str("app", appID).
					Str("url", url).
					Int("fallback_index", i).
					Msg("fallback url succeeded")
			}
			return url, nil
		}
		l.log.Warn().
			Err(err).
			Str("app", appID).
			Str("url", url).
			Int("attempt", i+1).
			Int("chain_len", len(chain)).
			Msg("load attempt failed")
		attempts = append(attempts, fmt.Errorf("%s: %w", url, err))
	}

	return "", fmt.Errorf("%w: app %q: %w", ErrLoadFailed, appID, errors.Join(attempts...))
}
