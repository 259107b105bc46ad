package location

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/ephemeris/internal/coord"
)

// Position error codes, numbered like the browser Geolocation API
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// Position is a fix reported by a provider
type Position struct {
	Coordinate coord.Coordinate
	Accuracy   float64 // Meters, 0 if unknown
	Timestamp  time.Time
}

// PositionError is reported by a provider instead of a fix
type PositionError struct {
	Code    int
	Message string
}

// Error implements the error interface
func (e *PositionError) Error() string {
	return fmt.Sprintf("position error %d: %s", e.Code, e.Message)
}

// Reason maps the error code onto a failure reason
func (e *PositionError) Reason() FailureReason {
	switch e.Code {
	case CodePermissionDenied:
		return ReasonPermissionDenied
	case CodeTimeout:
		return ReasonTimeout
	default:
		return ReasonUnavailable
	}
}

// Options bound a position request
type Options struct {
	// Timeout is how long the caller will wait for a fix
	Timeout time.Duration

	// MaximumAge is the oldest cached fix the caller will accept
	MaximumAge time.Duration
}

// Provider is the device location capability.
//
// RequestPosition starts one query and returns without waiting for it.
// Exactly one of onSuccess or onError should be called later, from any
// goroutine. Providers should stop work when ctx is done; the caller
// ignores callbacks that arrive after that.
type Provider interface {
	RequestPosition(ctx context.Context, opts Options, onSuccess func(Position), onError func(*PositionError))
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, opts Options, onSuccess func(Position), onError func(*PositionError))

// RequestPosition calls f
func (f ProviderFunc) RequestPosition(ctx context.Context, opts Options, onSuccess func(Position), onError func(*PositionError)) {
	f(ctx, opts, onSuccess, onError)
}
