package gateway

import (
	"sync"

	"github.com/smazurov/videohubd/internal/router"
)

// output owns the route actuator of one output and serializes calls to it.
// Requests for different outputs never contend on this lock.
type output struct {
	index    int
	name     string
	mu       sync.Mutex
	actuator router.Actuator
	closed   bool
}

// switchLocked clears the current feed and then routes src. The caller holds
// o.mu. Clearing first keeps the actuator from carrying state across sources.
func (o *output) switchLocked(src router.Source) error {
	if o.closed {
		return ErrOutputClosed
	}
	if err := o.actuator.Clear(); err != nil {
		return err
	}
	return o.actuator.Change(src)
}

func (o *output) close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	return o.actuator.Close()
}
