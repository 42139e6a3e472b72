package streaming

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/videohubd/internal/router"
)

// Relay exposes the hub through the router collaborator interfaces. Sources
// are the producers announced to the relay; outputs are relay paths.
type Relay struct {
	hub     *Hub
	baseURL string
}

// NewRelay creates a relay over hub. baseURL prefixes source addresses, e.g.
// "rtsp://127.0.0.1:8554".
func NewRelay(hub *Hub, baseURL string) *Relay {
	return &Relay{hub: hub, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Discover waits for timeout and returns every source announced by then,
// ordered by name.
func (r *Relay) Discover(ctx context.Context, timeout time.Duration) ([]router.Source, error) {
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	producers := r.hub.Producers()
	if len(producers) == 0 {
		return nil, router.ErrNoSources
	}

	sources := make([]router.Source, len(producers))
	for i, p := range producers {
		sources[i] = router.Source{Name: p.Name, Address: r.baseURL + "/" + p.Name}
	}
	return sources, nil
}

// CreateOutputRoute creates the relay path for output name.
func (r *Relay) CreateOutputRoute(name string) (router.Actuator, error) {
	path := OutputPath(name)
	if err := r.hub.AddOutput(path); err != nil {
		return nil, fmt.Errorf("output %q: %w", path, err)
	}
	return &OutputRoute{hub: r.hub, path: path}, nil
}

// OutputPath turns an output name into its relay path: "Output 3" becomes
// "output-3".
func OutputPath(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

// OutputRoute switches the source behind one relay path.
type OutputRoute struct {
	hub    *Hub
	path   string
	mu     sync.Mutex
	closed bool
}

// Change implements router.Actuator.
func (o *OutputRoute) Change(src router.Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("output %q is closed", o.path)
	}
	if !o.hub.HasProducer(src.Name) {
		return fmt.Errorf("source %q is not announced: %w", src.Name, ErrStreamNotFound)
	}
	return o.hub.SetOutputSource(o.path, src.Name)
}

// Clear implements router.Actuator.
func (o *OutputRoute) Clear() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("output %q is closed", o.path)
	}
	return o.hub.SetOutputSource(o.path, "")
}

// Close implements router.Actuator.
func (o *OutputRoute) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		o.hub.RemoveOutput(o.path)
	}
	return nil
}
