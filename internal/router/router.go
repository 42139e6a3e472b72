// Package router defines the narrow interface between the gateway and the
// video routing backend: one-shot source discovery and per-output route
// actuators.
package router

import (
	"context"
	"errors"
	"time"
)

// ErrNoSources is returned when discovery finds nothing to route.
var ErrNoSources = errors.New("no sources discovered")

// Source is a network-addressable live feed.
type Source struct {
	Name    string `toml:"name" json:"name"`
	Address string `toml:"address" json:"address"`
	Label   string `toml:"label,omitempty" json:"label,omitempty"`
}

// DisplayLabel returns the configured label, falling back to the source name.
func (s Source) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// Discoverer enumerates available sources once, at startup.
type Discoverer interface {
	Discover(ctx context.Context, timeout time.Duration) ([]Source, error)
}

// Actuator switches the feed of one output. Implementations need not be safe
// for concurrent use; the gateway serializes calls per actuator.
type Actuator interface {
	Change(src Source) error
	Clear() error
	Close() error
}

// RouteFactory creates one actuator per configured output.
type RouteFactory interface {
	CreateOutputRoute(name string) (Actuator, error)
}
