package tracker

import "errors"

var (
	// ErrInvalidState is returned when the input cannot be parsed into a
	// behavior state. No collaborator is contacted in that case.
	ErrInvalidState = errors.New("invalid behavior state")

	// ErrConfiguration is returned when credentials or endpoints are
	// missing before any call is attempted.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream is returned when the completion or query service keeps
	// failing after the retry budget is spent.
	ErrUpstream = errors.New("upstream service error")
)
