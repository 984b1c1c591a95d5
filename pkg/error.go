package pkg

import "errors"

// Driver errors.
var (
	// ErrSizeOverflow indicates packet memory is exhausted, or a buffer
	// size is not expressible in the peripheral's descriptor encoding.
	ErrSizeOverflow = errors.New("packet memory size overflow")

	// ErrEndpointOverflow indicates no compatible endpoint slot is available.
	ErrEndpointOverflow = errors.New("endpoint overflow")

	// ErrInvalidEndpoint indicates an invalid endpoint address, typically
	// a direction mismatch or an endpoint with no allocated buffer.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidState indicates an invalid driver state for the operation.
	ErrInvalidState = errors.New("invalid state")
)
