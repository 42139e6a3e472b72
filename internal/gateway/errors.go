package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrPeerExists is returned when an address is registered twice.
	ErrPeerExists = errors.New("peer already registered")

	// ErrPeerGone is returned when delivering to a peer whose session has ended.
	ErrPeerGone = errors.New("peer gone")

	// ErrOutputClosed is returned when routing through a released actuator.
	ErrOutputClosed = errors.New("output route closed")

	// ErrActuatorCount is returned when actuators do not match the output count.
	ErrActuatorCount = errors.New("actuator count does not match outputs")
)

// RouteError reports a route actuator failure for one output.
type RouteError struct {
	Output int
	Input  int
	Cause  error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route output %d to input %d: %v", e.Output, e.Input, e.Cause)
}

func (e *RouteError) Unwrap() error {
	return e.Cause
}
