package gateway

import (
	"sync"
)

// Outbox is an unbounded, non-blocking message queue feeding one peer.
// Push never blocks the caller; Ready signals that Pop may succeed.
type Outbox struct {
	mu     sync.Mutex
	items  []string
	ready  chan struct{}
	closed bool
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{ready: make(chan struct{}, 1)}
}

// Push appends a message. It fails with ErrPeerGone once the outbox is closed.
func (o *Outbox) Push(msg string) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrPeerGone
	}
	o.items = append(o.items, msg)
	o.mu.Unlock()

	select {
	case o.ready <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes the oldest message, if any.
func (o *Outbox) Pop() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.items) == 0 {
		return "", false
	}
	msg := o.items[0]
	o.items[0] = ""
	o.items = o.items[1:]
	return msg, true
}

// Ready is signalled after a Push. It may fire spuriously.
func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

// Len returns the number of queued messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

// Close rejects further pushes and drops anything still queued.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.items = nil
}
