package oidcrp

import "errors"

var (
	// ErrMissingClient is returned when no Client is attached to the request context.
	ErrMissingClient = errors.New("missing client configuration")

	// ErrSessionRequired is returned when no session is attached to the request context.
	ErrSessionRequired = errors.New("session support required")
)
