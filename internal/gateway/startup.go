package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/videohubd/internal/events"
	"github.com/smazurov/videohubd/internal/router"
	"github.com/smazurov/videohubd/internal/videohub"
)

// DefaultOutputPrefix names outputs "<prefix> <index>".
const DefaultOutputPrefix = "Output"

// SetupOptions configures Setup.
type SetupOptions struct {
	Discoverer       router.Discoverer
	Factory          router.RouteFactory
	DiscoveryTimeout time.Duration
	NumOutputs       int
	OutputPrefix     string
	Device           videohub.DeviceInfo
	EventBus         *events.Bus
	Logger           *slog.Logger
}

// Setup runs discovery once, builds the routing table sized from the
// discovered sources and creates one actuator per output routed to its
// initial input. Any failure is fatal to the caller; actuators created before
// the failure are closed.
func Setup(ctx context.Context, opts SetupOptions) (*Registry, error) {
	if opts.Discoverer == nil || opts.Factory == nil {
		return nil, errors.New("discoverer and route factory are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := opts.OutputPrefix
	if prefix == "" {
		prefix = DefaultOutputPrefix
	}

	sources, err := opts.Discoverer.Discover(ctx, opts.DiscoveryTimeout)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	if len(sources) == 0 {
		return nil, router.ErrNoSources
	}
	logger.Info("Sources discovered", "count", len(sources))

	table, err := videohub.NewTable(len(sources), opts.NumOutputs)
	if err != nil {
		return nil, err
	}
	table.SetDevice(opts.Device)

	for i, src := range sources {
		if err := table.SetInputLabel(i, src.DisplayLabel()); err != nil {
			return nil, fmt.Errorf("input %d (%s): %w", i, src.Name, err)
		}
	}

	actuators := make([]router.Actuator, 0, opts.NumOutputs)
	closeAll := func() {
		for _, a := range actuators {
			_ = a.Close()
		}
	}

	for i := range opts.NumOutputs {
		name := fmt.Sprintf("%s %d", prefix, i)
		if err := table.SetOutputLabel(i, name); err != nil {
			closeAll()
			return nil, fmt.Errorf("output %d: %w", i, err)
		}

		a, err := opts.Factory.CreateOutputRoute(name)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to create output route %q: %w", name, err)
		}
		actuators = append(actuators, a)

		in, _ := table.RouteOf(i)
		if err := a.Change(sources[in]); err != nil {
			closeAll()
			return nil, &RouteError{Output: i, Input: in, Cause: err}
		}
		logger.Debug("Output route created", "output", i, "name", name, "source", sources[in].Name)
	}

	registry, err := NewRegistry(table, sources, actuators, opts.EventBus, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	return registry, nil
}
