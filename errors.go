package seqshare

import "errors"

// Sentinel errors returned by the package.
var (
	// ErrSourceRequired is returned when New is called with a nil source.
	ErrSourceRequired = errors.New("source is required")

	// ErrOpenerRequired is returned when NewLazy is called with a nil opener.
	ErrOpenerRequired = errors.New("source opener is required")
)
