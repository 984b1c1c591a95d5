package pkg

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	// Verify all sentinel errors are distinct
	errs := []error{
		ErrSizeOverflow,
		ErrEndpointOverflow,
		ErrInvalidEndpoint,
		ErrNotSupported,
		ErrInvalidState,
	}

	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors not distinct: %v and %v", a, b)
			}
		}
	}
}

func TestSentinelErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrSizeOverflow, "packet memory size overflow"},
		{ErrEndpointOverflow, "endpoint overflow"},
		{ErrInvalidEndpoint, "invalid endpoint"},
		{ErrNotSupported, "not supported"},
		{ErrInvalidState, "invalid state"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
