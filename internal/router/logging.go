package router

import (
	"fmt"
	"log/slog"
	"sync"
)

// LoggingFactory creates actuators that only record and log the requested
// route. Used when no relay backend is running.
type LoggingFactory struct {
	logger *slog.Logger
	mu     sync.Mutex
	routes map[string]*LoggingActuator
}

// NewLoggingFactory creates a logging route factory.
func NewLoggingFactory(logger *slog.Logger) *LoggingFactory {
	return &LoggingFactory{
		logger: logger,
		routes: make(map[string]*LoggingActuator),
	}
}

// CreateOutputRoute implements RouteFactory.
func (f *LoggingFactory) CreateOutputRoute(name string) (Actuator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.routes[name]; exists {
		return nil, fmt.Errorf("output route %q already exists", name)
	}

	a := &LoggingActuator{name: name, logger: f.logger.With("output", name)}
	f.routes[name] = a
	return a, nil
}

// LoggingActuator remembers the current source of one output.
type LoggingActuator struct {
	name    string
	current *Source
	closed  bool
	logger  *slog.Logger
}

// Change implements Actuator.
func (a *LoggingActuator) Change(src Source) error {
	if a.closed {
		return fmt.Errorf("output route %q is closed", a.name)
	}
	a.current = &src
	a.logger.Info("Route changed", "source", src.Name, "address", src.Address)
	return nil
}

// Clear implements Actuator.
func (a *LoggingActuator) Clear() error {
	if a.closed {
		return fmt.Errorf("output route %q is closed", a.name)
	}
	a.current = nil
	a.logger.Debug("Route cleared")
	return nil
}

// Close implements Actuator.
func (a *LoggingActuator) Close() error {
	a.closed = true
	a.current = nil
	return nil
}

// Current returns the routed source, if any.
func (a *LoggingActuator) Current() (Source, bool) {
	if a.current == nil {
		return Source{}, false
	}
	return *a.current, true
}
