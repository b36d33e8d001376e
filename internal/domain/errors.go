package domain

import "errors"

// Storefront error taxonomy. All are recoverable: callers keep the last
// good state and surface a hint or notification.
var (
	// ErrNotFoundVariant means no active variant matches the requested
	// attribute combination.
	ErrNotFoundVariant = errors.New("no active variant matches the selection")

	// ErrRefreshFailed means the catalog could not serve an authoritative
	// variant refresh. Nothing was merged.
	ErrRefreshFailed = errors.New("variant refresh failed")

	// ErrStaleRefresh means a refresh completed after a newer one was
	// issued and its response was discarded.
	ErrStaleRefresh = errors.New("variant refresh superseded")
)
