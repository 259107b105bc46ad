package location

import (
	"fmt"
	"time"

	"github.com/muurk/ephemeris/internal/coord"
)

// Status tags the variant held by an Outcome
type Status int

const (
	// StatusNotAttempted means no location request was made
	StatusNotAttempted Status = iota
	// StatusResolved means a fresh fix was obtained
	StatusResolved
	// StatusFailed means the request ended without a usable fix
	StatusFailed
)

// String returns a human-readable name for the status
func (s Status) String() string {
	switch s {
	case StatusNotAttempted:
		return "not attempted"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// FailureReason explains a failed resolution
type FailureReason int

const (
	// ReasonNone is the zero value carried by non-failed outcomes
	ReasonNone FailureReason = iota
	// ReasonPermissionDenied means the user or platform refused location access
	ReasonPermissionDenied
	// ReasonTimeout means no fix arrived before the timeout
	ReasonTimeout
	// ReasonUnavailable means the platform reported an error or a stale/invalid fix
	ReasonUnavailable
	// ReasonAlreadyInFlight means another request was still pending
	ReasonAlreadyInFlight
)

// String returns the reason's identifier
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonPermissionDenied:
		return "permissionDenied"
	case ReasonTimeout:
		return "timeout"
	case ReasonUnavailable:
		return "unavailable"
	case ReasonAlreadyInFlight:
		return "alreadyInFlight"
	default:
		return fmt.Sprintf("FailureReason(%d)", r)
	}
}

// Message returns the text shown to the user for a failed lookup
func (r FailureReason) Message() string {
	switch r {
	case ReasonPermissionDenied:
		return "Location permission denied. Enter latitude and longitude manually."
	case ReasonTimeout:
		return "Location request timed out. Enter latitude and longitude manually."
	case ReasonUnavailable:
		return "Location unavailable. Enter latitude and longitude manually."
	case ReasonAlreadyInFlight:
		return "A location request is already in progress."
	default:
		return ""
	}
}

// Outcome is the single result of one resolution attempt.
// Coordinate and Timestamp are set only when Status is StatusResolved;
// Reason only when Status is StatusFailed.
type Outcome struct {
	Status     Status
	Coordinate coord.Coordinate
	Timestamp  time.Time
	Reason     FailureReason
}

// Resolved builds a successful outcome
func Resolved(c coord.Coordinate, ts time.Time) Outcome {
	return Outcome{Status: StatusResolved, Coordinate: c, Timestamp: ts}
}

// Failed builds a failed outcome
func Failed(reason FailureReason) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason}
}

// NotAttempted builds the outcome of a session that never asked for a location
func NotAttempted() Outcome {
	return Outcome{Status: StatusNotAttempted}
}

// IsResolved reports whether the outcome carries a coordinate
func (o Outcome) IsResolved() bool {
	return o.Status == StatusResolved
}

// String returns a debug representation of the outcome
func (o Outcome) String() string {
	switch o.Status {
	case StatusResolved:
		return fmt.Sprintf("Resolved(%s @ %s)", o.Coordinate, o.Timestamp.Format(time.RFC3339))
	case StatusFailed:
		return fmt.Sprintf("Failed(%s)", o.Reason)
	default:
		return "NotAttempted"
	}
}
