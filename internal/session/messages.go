package session

import (
	"fmt"

	"github.com/muurk/ephemeris/internal/coord"
	"github.com/muurk/ephemeris/internal/location"
)

// successMessage describes a resolved location. moved is the distance in
// meters from the coordinates the fields held before, when known.
func successMessage(c coord.Coordinate, moved *float64) string {
	msg := fmt.Sprintf("Location found: %s", c)
	if moved == nil {
		return msg
	}
	switch {
	case *moved < 1000:
		return msg + " (unchanged)"
	default:
		return fmt.Sprintf("%s (%.0f km from previous)", msg, *moved/1000)
	}
}

func failureMessage(reason location.FailureReason) string {
	if msg := reason.Message(); msg != "" {
		return msg
	}
	return "Location unavailable."
}
