package entity

import "time"

// ViewState is the lifecycle state of one embedded view handle.
type ViewState int

const (
	// StateNotLoaded is the initial state of a freshly created handle.
	StateNotLoaded ViewState = iota
	// StateLoading means a load attempt sequence is in flight.
	StateLoading
	// StateLoaded means content is ready but the view is not attached.
	StateLoaded
	// StateVisible means the view is attached to the host surface.
	StateVisible
	// StateError means the load chain was exhausted or attachment failed.
	StateError
)

// String returns a human-readable representation of the state.
func (s ViewState) String() string {
	switch s {
	case StateNotLoaded:
		return "not_loaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateVisible:
		return "visible"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseViewState maps a stored string back to a ViewState.
func ParseViewState(s string) (ViewState, bool) {
	switch s {
	case "not_loaded":
		return StateNotLoaded, true
	case "loading":
		return StateLoading, true
	case "loaded":
		return StateLoaded, true
	case "visible":
		return StateVisible, true
	case "error":
		return StateError, true
	default:
		return StateNotLoaded, false
	}
}

// Bounds is a rectangle in host-window-absolute coordinates: the origin is
// the top-left corner of the host window's content area.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the rectangle is empty.
func (b Bounds) IsZero() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Inset shrinks the rectangle by pad on all four sides. The result never
// inverts; width and height floor at zero.
func (b Bounds) Inset(pad int) Bounds {
	if pad <= 0 {
		return b
	}
	out := Bounds{
		X:      b.X + pad,
		Y:      b.Y + pad,
		Width:  b.Width - 2*pad,
		Height: b.Height - 2*pad,
	}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// ViewInfo is an immutable snapshot of one handle, safe to hand to callers.
type ViewInfo struct {
	AppID      string    `json:"app_id"`
	State      ViewState `json:"state"`
	CurrentURL string    `json:"current_url"`
	Bounds     Bounds    `json:"bounds"`
	CreatedAt  time.Time `json:"created_at"`
}

// Transition is one lifecycle state change, as delivered to observers.
type Transition struct {
	AppID      string    `json:"app_id"`
	State      ViewState `json:"state"`
	CurrentURL string    `json:"current_url"`
	OccurredAt time.Time `json:"occurred_at"`
}
