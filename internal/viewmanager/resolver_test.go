package viewmanager

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhost/emberview/internal/domain/entity"
)

func TestResolverUpsert(t *testing.T) {
	r := NewConfigResolver(zerolog.Nop())

	require.NoError(t, r.Register(entity.AppConfig{ID: "app1", URL: "https://v1"}))
	require.NoError(t, r.Register(entity.AppConfig{ID: "app1", URL: "https://v2"}))

	cfg, err := r.Get("app1")
	require.NoError(t, err)
	assert.Equal(t, "https://v2", cfg.URL, "re-registration overwrites")
	assert.Len(t, r.All(), 1)
}

func TestResolverGetUnregistered(t *testing.T) {
	r := NewConfigResolver(zerolog.Nop())
	_, err := r.Get("ghost")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestResolverRejectsBrokenConfigs(t *testing.T) {
	r := NewConfigResolver(zerolog.Nop())

	err := r.Register(entity.AppConfig{URL: "https://x"})
	require.ErrorIs(t, err, entity.ErrMissingAppID)

	err = r.Register(entity.AppConfig{ID: "x"})
	require.ErrorIs(t, err, entity.ErrMissingURL)

	err = r.Register(entity.AppConfig{
		ID:  "x",
		URL: "https://x",
		Links: entity.LinkPolicy{
			ExternalURLPatterns: []string{"([unclosed"},
		},
	})
	require.Error(t, err, "uncompilable patterns are rejected at registration")

	err = r.Register(entity.AppConfig{
		ID:  "x",
		URL: "https://x",
		Links: entity.LinkPolicy{
			InternalURLPatterns: []string{"([unclosed"},
		},
	})
	require.Error(t, err)
}

func TestResolverClassify(t *testing.T) {
	r := NewConfigResolver(zerolog.Nop())
	require.NoError(t, r.Register(entity.AppConfig{
		ID:  "app1",
		URL: "https://app.example",
		Links: entity.LinkPolicy{
			ExternalURLPatterns: []string{`^https://external\.example/`, `^mailto:`},
			InternalURLPatterns: []string{`^https://external\.example/widget/`},
		},
	}))

	assert.Equal(t, LinkExternal, r.Classify("app1", "https://external.example/pricing"))
	assert.Equal(t, LinkExternal, r.Classify("app1", "mailto:team@example"))
	assert.Equal(t, LinkInternal, r.Classify("app1", "https://external.example/widget/frame"),
		"internal patterns win over external ones")
	assert.Equal(t, LinkInternal, r.Classify("app1", "https://app.example/settings"),
		"unmatched targets proceed in-surface")

	// Repeat classification exercises the compiled-pattern cache.
	assert.Equal(t, LinkExternal, r.Classify("app1", "https://external.example/pricing"))

	assert.Equal(t, LinkInternal, r.Classify("unknown", "https://anywhere"),
		"unknown apps never redirect")
}

func TestResolverClassifyAfterReregistration(t *testing.T) {
	r := NewConfigResolver(zerolog.Nop())
	require.NoError(t, r.Register(entity.AppConfig{
		ID:    "app1",
		URL:   "https://app.example",
		Links: entity.LinkPolicy{ExternalURLPatterns: []string{`^https://old\.example/`}},
	}))
	assert.Equal(t, LinkExternal, r.Classify("app1", "https://old.example/x"))

	// Upsert replaces the pattern set; the stale matcher must not linger.
	require.NoError(t, r.Register(entity.AppConfig{
		ID:    "app1",
		URL:   "https://app.example",
		Links: entity.LinkPolicy{ExternalURLPatterns: []string{`^https://new\.example/`}},
	}))
	assert.Equal(t, LinkInternal, r.Classify("app1", "https://old.example/x"))
	assert.Equal(t, LinkExternal, r.Classify("app1", "https://new.example/x"))
}
