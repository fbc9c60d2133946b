package models

import "errors"

var (
	// ErrInvalidArgument rejects bad local input before any network call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrServiceUnavailable means the upstream failed its liveness probe.
	ErrServiceUnavailable = errors.New("upstream service unavailable")
	// ErrSuperseded is returned to a search replaced by a newer one in the same session.
	ErrSuperseded = errors.New("search superseded by a newer query")
	// ErrWatchlistBusy means the owner's watchlist lock could not be taken in time.
	ErrWatchlistBusy = errors.New("watchlist is busy")
)
