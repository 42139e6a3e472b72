package gateway

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/smazurov/videohubd/internal/events"
	"github.com/smazurov/videohubd/internal/router"
	"github.com/smazurov/videohubd/internal/videohub"
)

// Registry is the shared state of the gateway: connected peers, the routing
// table and the per-output actuators. One mutex guards peers and table
// together. It is never held across an actuator call or a socket write;
// actuators are serialized by their own output lock and peers receive
// broadcasts through their outboxes.
type Registry struct {
	mu      sync.Mutex
	peers   map[string]*peerEntry
	table   *videohub.Table
	inputs  []router.Source
	outputs []*output
	bus     *events.Bus
	logger  *slog.Logger
}

type peerEntry struct {
	outbox      *Outbox
	connectedAt time.Time
}

// PeerInfo describes a connected controller.
type PeerInfo struct {
	Address     string
	ConnectedAt time.Time
	Queued      int
}

// InputState is a snapshot of one input.
type InputState struct {
	Index  int
	Label  string
	Source router.Source
}

// OutputState is a snapshot of one output.
type OutputState struct {
	Index int
	Label string
	Input int
	Lock  videohub.LockState
}

// Snapshot is a consistent copy of the routing table.
type Snapshot struct {
	Inputs  []InputState
	Outputs []OutputState
}

// NewRegistry creates a registry over table. inputs must match the table's
// input count and actuators its output count.
func NewRegistry(table *videohub.Table, inputs []router.Source, actuators []router.Actuator, bus *events.Bus, logger *slog.Logger) (*Registry, error) {
	if len(inputs) != table.NumInputs() {
		return nil, fmt.Errorf("%d sources for %d inputs", len(inputs), table.NumInputs())
	}
	if len(actuators) != table.NumOutputs() {
		return nil, fmt.Errorf("%w: %d actuators for %d outputs", ErrActuatorCount, len(actuators), table.NumOutputs())
	}
	if logger == nil {
		logger = slog.Default()
	}

	outputs := make([]*output, len(actuators))
	for i, a := range actuators {
		name, _ := table.OutputLabel(i)
		outputs[i] = &output{index: i, name: name, actuator: a}
	}

	return &Registry{
		peers:   make(map[string]*peerEntry),
		table:   table,
		inputs:  slices.Clone(inputs),
		outputs: outputs,
		bus:     bus,
		logger:  logger,
	}, nil
}

// RegisterPeer adds a connected controller.
func (r *Registry) RegisterPeer(address string, outbox *Outbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[address]; exists {
		return fmt.Errorf("%w: %s", ErrPeerExists, address)
	}
	r.peers[address] = &peerEntry{outbox: outbox, connectedAt: time.Now()}
	connectedPeers.Set(float64(len(r.peers)))

	r.publish(events.PeerConnectedEvent{Address: address, Timestamp: now()})
	return nil
}

// UnregisterPeer removes a controller. It reports whether the peer was present.
func (r *Registry) UnregisterPeer(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[address]; !exists {
		return false
	}
	delete(r.peers, address)
	connectedPeers.Set(float64(len(r.peers)))

	r.publish(events.PeerDisconnectedEvent{Address: address, Timestamp: now()})
	return true
}

// Broadcast queues message for every peer except sender and returns the number
// of peers it was queued for.
func (r *Registry) Broadcast(sender, message string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcastLocked(sender, message)
}

func (r *Registry) broadcastLocked(sender, message string) int {
	delivered := 0
	for address, peer := range r.peers {
		if address == sender {
			continue
		}
		if err := peer.outbox.Push(message); err != nil {
			// the peer's own session deregisters it
			broadcastsDropped.Inc()
			continue
		}
		outboxDepth.Observe(float64(peer.outbox.Len()))
		delivered++
	}
	return delivered
}

// ApplyRoute validates and applies a single route without notifying peers.
func (r *Registry) ApplyRoute(output, input int) error {
	_, err := r.apply("", []videohub.Route{{Output: output, Input: input}}, "", false)
	return err
}

// ApplyRoutes applies routes on behalf of origin and notifies every other peer.
// Nothing is applied when any route is out of range. When every route is
// applied, verbatim is broadcast as is; otherwise the applied subset is
// rendered.
func (r *Registry) ApplyRoutes(origin string, routes []videohub.Route, verbatim string) ([]videohub.Route, error) {
	return r.apply(origin, routes, verbatim, true)
}

// apply locks the target outputs in ascending index order, drives their
// actuators without holding the registry lock, then commits the table and
// broadcasts under it. Lock order is always outputs then registry, so blocks
// on the same output are strictly ordered while other outputs, peers and
// status dumps are never held up by an actuator.
func (r *Registry) apply(origin string, routes []videohub.Route, verbatim string, notify bool) ([]videohub.Route, error) {
	sources, err := r.resolve(routes)
	if err != nil {
		return nil, err
	}

	held := r.lockOutputs(routes)
	defer func() {
		for _, out := range held {
			out.mu.Unlock()
		}
	}()

	switched := make([]videohub.Route, 0, len(routes))
	var errs []error
	for i, rt := range routes {
		if err := r.outputs[rt.Output].switchLocked(sources[i]); err != nil {
			actuatorErrorsTotal.WithLabelValues(strconv.Itoa(rt.Output)).Inc()
			r.logger.Warn("Route actuator failed",
				"output", rt.Output,
				"input", rt.Input,
				"source", sources[i].Name,
				"error", err)
			errs = append(errs, &RouteError{Output: rt.Output, Input: rt.Input, Cause: err})
			continue
		}
		switched = append(switched, rt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	applied := make([]videohub.Route, 0, len(switched))
	for _, rt := range switched {
		if err := r.table.Route(rt.Output, rt.Input); err != nil {
			// validated in resolve
			errs = append(errs, err)
			continue
		}
		applied = append(applied, rt)
		routeChangesTotal.WithLabelValues(strconv.Itoa(rt.Output)).Inc()

		src := r.inputs[rt.Input]
		r.logger.Info("Route applied",
			"output", rt.Output,
			"input", rt.Input,
			"source", src.Name,
			"origin", origin)
		r.publish(events.RouteChangedEvent{
			Output:    rt.Output,
			Input:     rt.Input,
			Source:    src.Name,
			Origin:    origin,
			Timestamp: now(),
		})
	}
	err = errors.Join(errs...)

	if notify && len(applied) > 0 {
		message := verbatim
		if err != nil || message == "" {
			message = videohub.RenderRoutes(applied)
		}
		r.broadcastLocked(origin, message)
	}
	return applied, err
}

// resolve validates every route and returns the source behind each one.
func (r *Registry) resolve(routes []videohub.Route) ([]router.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sources := make([]router.Source, len(routes))
	for i, rt := range routes {
		if err := r.table.CheckRoute(rt.Output, rt.Input); err != nil {
			return nil, err
		}
		sources[i] = r.inputs[rt.Input]
	}
	return sources, nil
}

// lockOutputs locks each distinct output named in routes, lowest index first.
func (r *Registry) lockOutputs(routes []videohub.Route) []*output {
	indexes := make([]int, 0, len(routes))
	for _, rt := range routes {
		indexes = append(indexes, rt.Output)
	}
	slices.Sort(indexes)
	indexes = slices.Compact(indexes)

	held := make([]*output, 0, len(indexes))
	for _, i := range indexes {
		out := r.outputs[i]
		out.mu.Lock()
		held = append(held, out)
	}
	return held
}

// SetLocks records lock flags and notifies every other peer. Nothing changes
// when any output is out of range. Locks are never enforced against routing.
func (r *Registry) SetLocks(origin string, changes []videohub.LockChange, verbatim string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range changes {
		if _, err := r.table.Lock(c.Output); err != nil {
			return err
		}
	}
	for _, c := range changes {
		_ = r.table.SetLock(c.Output, c.State)
		r.publish(events.LockChangedEvent{
			Output:    c.Output,
			State:     c.State.String(),
			Origin:    origin,
			Timestamp: now(),
		})
	}

	if len(changes) > 0 {
		if verbatim == "" {
			verbatim = videohub.RenderLockChanges(changes)
		}
		r.broadcastLocked(origin, verbatim)
	}
	return nil
}

// UpdateInputLabel sets an input label and pushes it to every peer. It
// reports whether the label changed.
func (r *Registry) UpdateInputLabel(index int, label string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateInputLabelLocked(index, label)
}

func (r *Registry) updateInputLabelLocked(index int, label string) (bool, error) {
	current, err := r.table.InputLabel(index)
	if err != nil {
		return false, err
	}
	if current == label {
		return false, nil
	}
	if err := r.table.SetInputLabel(index, label); err != nil {
		return false, err
	}

	r.broadcastLocked("", videohub.RenderInputLabel(index, label))
	r.publish(events.InputLabelChangedEvent{Input: index, Label: label, Timestamp: now()})
	return true, nil
}

// SyncInputLabels applies labels from a fresh source list, matching inputs by
// source name. Sources that are not routed inputs are ignored. It returns the
// number of labels changed.
func (r *Registry) SyncInputLabels(sources []router.Source) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName := make(map[string]router.Source, len(sources))
	for _, src := range sources {
		byName[src.Name] = src
	}

	changed := 0
	for i, in := range r.inputs {
		src, ok := byName[in.Name]
		if !ok {
			continue
		}
		updated, err := r.updateInputLabelLocked(i, src.DisplayLabel())
		if err != nil {
			r.logger.Warn("Rejected input label", "input", i, "label", src.DisplayLabel(), "error", err)
			continue
		}
		if updated {
			r.inputs[i].Label = src.Label
			changed++
		}
	}
	return changed
}

// StatusDump renders the full status dump under the registry lock.
func (r *Registry) StatusDump() string {
	return r.Render((*videohub.Table).FullStatusDump)
}

// Render runs a table renderer under the registry lock.
func (r *Registry) Render(render func(*videohub.Table) string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return render(r.table)
}

// Snapshot returns a consistent copy of inputs and outputs in index order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Inputs:  make([]InputState, len(r.inputs)),
		Outputs: make([]OutputState, r.table.NumOutputs()),
	}
	for i, src := range r.inputs {
		label, _ := r.table.InputLabel(i)
		snap.Inputs[i] = InputState{Index: i, Label: label, Source: src}
	}
	for i := range snap.Outputs {
		label, _ := r.table.OutputLabel(i)
		in, _ := r.table.RouteOf(i)
		lock, _ := r.table.Lock(i)
		snap.Outputs[i] = OutputState{Index: i, Label: label, Input: in, Lock: lock}
	}
	return snap
}

// Peers lists connected controllers ordered by address.
func (r *Registry) Peers() []PeerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := make([]PeerInfo, 0, len(r.peers))
	for address, p := range r.peers {
		peers = append(peers, PeerInfo{Address: address, ConnectedAt: p.connectedAt, Queued: p.outbox.Len()})
	}
	slices.SortFunc(peers, func(a, b PeerInfo) int {
		return cmp.Compare(a.Address, b.Address)
	})
	return peers
}

// PeerCount returns the number of connected controllers.
func (r *Registry) PeerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// Close releases every actuator.
func (r *Registry) Close() error {
	var errs []error
	for _, out := range r.outputs {
		if err := out.close(); err != nil {
			errs = append(errs, fmt.Errorf("output %d: %w", out.index, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) publish(ev events.Event) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
