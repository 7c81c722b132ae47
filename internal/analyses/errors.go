package analyses

import "errors"

var (
	ErrEmptyInput = errors.New("blog url is required")
	ErrInvalidURL = errors.New("blog url must start with http:// or https://")

	// errSuperseded marks a completion that lost to a newer submission or a
	// reset. It is never stored in state.
	errSuperseded = errors.New("analysis superseded")
)

// ErrorKind classifies why an analysis ended in the failed state.
type ErrorKind string

const (
	ErrorKindProvider ErrorKind = "PROVIDER_ERROR"
	ErrorKindTimeout  ErrorKind = "TIMEOUT"
)

const (
	ErrorCodeEmptyInput = "empty_input"
	ErrorCodeInvalidURL = "invalid_url"
)
