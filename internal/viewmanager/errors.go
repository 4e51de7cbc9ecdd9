package viewmanager

import "errors"

var (
	// ErrNotRegistered means open() was called for an id with no registered
	// config. Surfaced to the caller, never retried internally.
	ErrNotRegistered = errors.New("viewmanager: app not registered")

	// ErrNotFound means the operation referenced an id with no live handle.
	ErrNotFound = errors.New("viewmanager: view not found")

	// ErrInvalidState means the operation is not valid for the handle's
	// current lifecycle state. Programmer error; fix the call order.
	ErrInvalidState = errors.New("viewmanager: invalid view state")

	// ErrLoadFailed means the primary URL and every fallback failed.
	ErrLoadFailed = errors.New("viewmanager: all load attempts failed")

	// ErrHostUnavailable means the surface could not be attached to the
	// host window. Fatal for the handle, not for the manager.
	ErrHostUnavailable = errors.New("viewmanager: host window unavailable")

	// ErrManagerClosed means the manager has been shut down.
	ErrManagerClosed = errors.New("viewmanager: manager closed")
)
