package session

import "fmt"

// State is a session lifecycle state
type State int

const (
	StateIdle State = iota
	StateResolvingLocation
	StateLocationSettled
	StateAwaitingSubmission
	StateSubmitted
	StateAbandoned
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateResolvingLocation:
		return "ResolvingLocation"
	case StateLocationSettled:
		return "LocationSettled"
	case StateAwaitingSubmission:
		return "AwaitingSubmission"
	case StateSubmitted:
		return "Submitted"
	case StateAbandoned:
		return "Abandoned"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// IsTerminal reports whether no further transitions are possible
func (s State) IsTerminal() bool {
	return s == StateSubmitted || s == StateAbandoned
}

// Editable reports whether field edits are accepted in this state
func (s State) Editable() bool {
	return s == StateIdle || s == StateAwaitingSubmission
}
