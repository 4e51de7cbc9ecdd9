// Package entity contains the domain value types shared across layers.
package entity

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrMissingAppID indicates a config without an id.
	ErrMissingAppID = errors.New("entity: app config missing id")
	// ErrMissingURL indicates a config without a primary URL.
	ErrMissingURL = errors.New("entity: app config missing primary url")
)

// SandboxPolicy captures the content-security preferences applied to a
// mini-app's rendering surface.
type SandboxPolicy struct {
	// DisableJavaScript turns scripting off; the zero value keeps it on.
	DisableJavaScript bool   `mapstructure:"disable_javascript" json:"disable_javascript"`
	AllowPopups       bool   `mapstructure:"allow_popups" json:"allow_popups"`
	AllowClipboard    bool   `mapstructure:"allow_clipboard" json:"allow_clipboard"`
	UserAgent         string `mapstructure:"user_agent" json:"user_agent,omitempty"`
}

// LoadingBehavior controls what happens around the load and show phases.
type LoadingBehavior struct {
	// VisibilityScript is evaluated in the surface after every attach.
	// It must be idempotent; the manager re-applies it on each show.
	VisibilityScript string `mapstructure:"visibility_script" json:"visibility_script,omitempty"`
	// InjectCSS is injected into the surface after every attach.
	InjectCSS string `mapstructure:"inject_css" json:"inject_css,omitempty"`
	// LoadBlankFirst loads about:blank before the primary URL.
	LoadBlankFirst bool `mapstructure:"load_blank_first" json:"load_blank_first"`
	// PeriodicVisibilityCheck is accepted for compatibility with older
	// configurations but no polling loop runs; the attach/inject ordering
	// inside show makes it unnecessary.
	PeriodicVisibilityCheck bool `mapstructure:"periodic_visibility_check" json:"periodic_visibility_check"`
}

// LinkPolicy decides which navigation targets leave the surface.
type LinkPolicy struct {
	// ExternalURLPatterns are regular expressions; a matching navigation
	// target is opened by the host's external opener and cancelled in-surface.
	ExternalURLPatterns []string `mapstructure:"external_url_patterns" json:"external_url_patterns,omitempty"`
	// InternalURLPatterns are regular expressions for targets that must stay
	// in-surface even if they would otherwise look external.
	InternalURLPatterns []string `mapstructure:"internal_url_patterns" json:"internal_url_patterns,omitempty"`
}

// UIHints are presentation hints applied when a surface is attached.
type UIHints struct {
	BackgroundColor string `mapstructure:"background_color" json:"background_color,omitempty"`
	// ContentPadding shrinks the applied bounds rectangle on all four sides.
	ContentPadding int `mapstructure:"content_padding" json:"content_padding"`
}

// AppConfig is the identity and load/display policy for one mini-app.
// Registered once per id; re-registration overwrites.
type AppConfig struct {
	ID           string          `mapstructure:"id" json:"id"`
	Name         string          `mapstructure:"name" json:"name"`
	URL          string          `mapstructure:"url" json:"url"`
	Icon         string          `mapstructure:"icon" json:"icon,omitempty"`
	FallbackURLs []string        `mapstructure:"fallback_urls" json:"fallback_urls,omitempty"`
	Sandbox      SandboxPolicy   `mapstructure:"sandbox" json:"sandbox"`
	Loading      LoadingBehavior `mapstructure:"loading" json:"loading"`
	Links        LinkPolicy      `mapstructure:"links" json:"links"`
	Hints        UIHints         `mapstructure:"hints" json:"hints"`
}

// Validate checks the config for structural problems. Pattern and script
// compilation is validated separately at registration time.
func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingAppID
	}
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("%w: app %q", ErrMissingURL, c.ID)
	}
	for _, raw := range append([]string{c.URL}, c.FallbackURLs...) {
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("entity: app %q has invalid url %q: %w", c.ID, raw, err)
		}
	}
	return nil
}

// LoadChain returns the ordered URL attempt sequence: primary first, then
// each fallback in listed order.
func (c AppConfig) LoadChain() []string {
	chain := make([]string, 0, len(c.FallbackURLs)+1)
	chain = append(chain, c.URL)
	chain = append(chain, c.FallbackURLs...)
	return chain
}

// DisplayName returns the name, falling back to the id.
func (c AppConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}
