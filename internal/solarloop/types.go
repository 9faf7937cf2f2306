package solarloop

import "fmt"

// Derating selects how collector efficiency responds to water temperature.
type Derating int

const (
	DeratingUnknown Derating = iota
	// DeratingLinear loses DeratingSlope of efficiency per degree above DeratingReference.
	DeratingLinear
	// DeratingNone keeps the base efficiency at every temperature.
	DeratingNone
)

func (d Derating) Valid() bool {
	return d == DeratingLinear || d == DeratingNone
}

func (d Derating) String() string {
	switch d {
	case DeratingLinear:
		return "linear"
	case DeratingNone:
		return "none"
	default:
		return "unknown"
	}
}

func ParseDerating(s string) (Derating, error) {
	switch s {
	case "linear":
		return DeratingLinear, nil
	case "none":
		return DeratingNone, nil
	default:
		return DeratingUnknown, fmt.Errorf("%w: %q", ErrInvalidDerating, s)
	}
}

// State is the lifecycle of a Simulation.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}
