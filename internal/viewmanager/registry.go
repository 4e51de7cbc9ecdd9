package viewmanager

import (
	"sort"
	"time"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
)

// handle is the manager's record of one embedded content instance. Every
// field is guarded by the manager's mutex; the surface reference is
// exclusively owned by the handle.
type handle struct {
	appID      string
	surface    port.Surface
	state      entity.ViewState
	currentURL string
	lastBounds entity.Bounds
	createdAt  time.Time

	// gen orphans in-flight asynchronous work: destroy and reload bump it,
	// and a load completion carrying a stale generation is discarded
	// instead of mutating the handle.
	gen uint64
}

func (h *handle) info() entity.ViewInfo {
	return entity.ViewInfo{
		AppID:      h.appID,
		State:      h.state,
		CurrentURL: h.currentURL,
		Bounds:     h.lastBounds,
		CreatedAt:  h.createdAt,
	}
}

// registry owns the app-id → handle map and the active view id. It carries
// no locking of its own; the manager serializes all access.
type registry struct {
	handles  map[string]*handle
	activeID string
}

func newRegistry() *registry {
	return &registry{handles: make(map[string]*handle)}
}

func (r *registry) get(appID string) (*handle, bool) {
	h, ok := r.handles[appID]
	return h, ok
}

// getOrCreate returns the existing handle unchanged, or allocates a fresh
// one in StateNotLoaded. The second result reports whether a handle was
// created.
func (r *registry) getOrCreate(appID, url string) (*handle, bool) {
	if h, ok := r.handles[appID]; ok {
		return h, false
	}
	h := &handle{
		appID:      appID,
		state:      entity.StateNotLoaded,
		currentURL: url,
		createdAt:  time.Now(),
	}
	r.handles[appID] = h
	return h, true
}

// remove drops all bookkeeping for appID and clears the active id if it
// pointed at the removed handle.
func (r *registry) remove(appID string) {
	delete(r.handles, appID)
	if r.activeID == appID {
		r.activeID = ""
	}
}

func (r *registry) active() (*handle, bool) {
	if r.activeID == "" {
		return nil, false
	}
	h, ok := r.handles[r.activeID]
	return h, ok
}

func (r *registry) ids() []string {
	out := make([]string, 0, len(r.handles))
	for id := range r.handles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *registry) size() int {
	return len(r.handles)
}
