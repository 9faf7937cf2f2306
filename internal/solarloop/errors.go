package solarloop

import "errors"

var (
	ErrInvalidDerating = errors.New("invalid derating model")
	ErrAlreadyRun      = errors.New("simulation already run")
	ErrNonFinite       = errors.New("temperature is not finite")
	ErrUnknownParam    = errors.New("unknown parameter")
	ErrInvalidDuration = errors.New("duration must be a whole number of minutes in [0, MaxDuration]")
)
