package viewmanager

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/domain/entity"
)

// LinkDecision classifies a navigation target inside a surface.
type LinkDecision int

const (
	// LinkInternal keeps the navigation inside the surface.
	LinkInternal LinkDecision = iota
	// LinkExternal cancels the in-surface navigation and hands the URL to
	// the host's external opener.
	LinkExternal
)

// matcherCacheSize bounds the compiled-pattern cache. One entry per app is
// typical; the cache only matters when configs churn via live reload.
const matcherCacheSize = 64

type linkMatcher struct {
	external []*regexp.Regexp
	internal []*regexp.Regexp
}

func compileLinkMatcher(policy entity.LinkPolicy) (*linkMatcher, error) {
	m := &linkMatcher{}
	for _, p := range policy.ExternalURLPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("viewmanager: bad external url pattern %q: %w", p, err)
		}
		m.external = append(m.external, re)
	}
	for _, p := range policy.InternalURLPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("viewmanager: bad internal url pattern %q: %w", p, err)
		}
		m.internal = append(m.internal, re)
	}
	return m, nil
}

func (m *linkMatcher) classify(target string) LinkDecision {
	// Internal patterns win: they pin targets in-surface even when an
	// external pattern would also match.
	for _, re := range m.internal {
		if re.MatchString(target) {
			return LinkInternal
		}
	}
	for _, re := range m.external {
		if re.MatchString(target) {
			return LinkExternal
		}
	}
	return LinkInternal
}

// ConfigResolver stores and serves per-app metadata. Registration is an
// idempotent upsert keyed by the config id; everything a config carries is
// validated up front so a bad config never reaches a surface.
type ConfigResolver struct {
	log zerolog.Logger

	mu      sync.RWMutex
	configs map[string]entity.AppConfig

	matchers *lru.Cache[string, *linkMatcher]
}

// NewConfigResolver creates an empty resolver.
func NewConfigResolver(log zerolog.Logger) *ConfigResolver {
	matchers, _ := lru.New[string, *linkMatcher](matcherCacheSize)
	return &ConfigResolver{
		log:      log.With().Str("component", "resolver").Logger(),
		configs:  make(map[string]entity.AppConfig),
		matchers: matchers,
	}
}

// Register upserts a config. Re-registering an id overwrites the previous
// entry and invalidates its compiled pattern cache.
func (r *ConfigResolver) Register(cfg entity.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := compileLinkMatcher(cfg.Links); err != nil {
		return err
	}
	if err := ValidateVisibilityScript(cfg.Loading.VisibilityScript); err != nil {
		return err
	}

	r.mu.Lock()
	_, existed := r.configs[cfg.ID]
	r.configs[cfg.ID] = cfg
	r.mu.Unlock()
	r.matchers.Remove(cfg.ID)

	r.log.Debug().Str("app", cfg.ID).Bool("overwrite", existed).Msg("app config registered")
	return nil
}

// Get returns the last registered config for id.
func (r *ConfigResolver) Get(id string) (entity.AppConfig, error) {
	r.mu.RLock()
	cfg, ok := r.configs[id]
	r.mu.RUnlock()
	if !ok {
		return entity.AppConfig{}, fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}
	return cfg, nil
}

// All returns every registered config, sorted by id.
func (r *ConfigResolver) All() []entity.AppConfig {
	r.mu.RLock()
	out := make([]entity.AppConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Classify decides whether a navigation target stays in-surface. Unknown
// apps and unmatched targets proceed normally inside the surface.
func (r *ConfigResolver) Classify(appID, target string) LinkDecision {
	if m, ok := r.matchers.Get(appID); ok {
		return m.classify(target)
	}

	r.mu.RLock()
	cfg, ok := r.configs[appID]
	r.mu.RUnlock()
	if !ok {
		return LinkInternal
	}

	// Patterns already compiled once at registration, so this cannot fail
	// for a registered config.
	m, err := compileLinkMatcher(cfg.Links)
	if err != nil {
		r.log.Error().Err(err).Str("app", appID).Msg("link patterns failed to recompile")
		return LinkInternal
	}
	r.matchers.Add(appID, m)
	return m.classify(target)
}
