package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smazurov/videohubd/internal/videohub"
)

// Dispatcher runs the per-connection command loop against a shared Registry.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher bound to registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Serve sends the status dump, then processes the session's events until the
// session ends. The session must already be registered.
func (d *Dispatcher) Serve(ctx context.Context, sess *Session) error {
	if err := sess.Write(d.registry.StatusDump()); err != nil {
		return fmt.Errorf("failed to send status dump: %w", err)
	}
	sess.Activate()

	for {
		ev, err := sess.Next(ctx)
		if err != nil {
			return err
		}

		switch ev.Kind {
		case EventOutbound:
			if writeErr := sess.Write(ev.Message); writeErr != nil {
				return writeErr
			}
		case EventCommand:
			reply := d.Handle(sess.Address(), ev.Command)
			if reply == "" {
				continue
			}
			if writeErr := sess.Write(reply); writeErr != nil {
				return writeErr
			}
		}
	}
}

// Handle executes one command block for origin and returns the reply text.
// An empty reply means the block is ignored.
func (d *Dispatcher) Handle(origin string, cmd videohub.Command) string {
	logger := d.logger.With("peer", origin, "command", cmd.Header)

	switch cmd.Header {
	case videohub.HeaderPing:
		commandsTotal.WithLabelValues("ping", "ack").Inc()
		return videohub.ACK

	case videohub.HeaderOutputRouting:
		if cmd.IsQuery() {
			commandsTotal.WithLabelValues("routing", "query").Inc()
			return videohub.ACK + d.registry.Render((*videohub.Table).RenderRouting)
		}
		routes, err := videohub.ParseRoutes(cmd.Params)
		if err != nil {
			logger.Debug("Rejected routing block", "error", err)
			commandsTotal.WithLabelValues("routing", "nak").Inc()
			return videohub.NAK
		}
		if _, err = d.registry.ApplyRoutes(origin, routes, cmd.Text()); err != nil {
			logger.Info("Routing change rejected", "error", err)
			commandsTotal.WithLabelValues("routing", "nak").Inc()
			return videohub.NAK
		}
		commandsTotal.WithLabelValues("routing", "ack").Inc()
		return videohub.ACK

	case videohub.HeaderOutputLocks:
		if cmd.IsQuery() {
			commandsTotal.WithLabelValues("locks", "query").Inc()
			return videohub.ACK + d.registry.Render((*videohub.Table).RenderLocks)
		}
		changes, err := videohub.ParseLockChanges(cmd.Params)
		if err == nil {
			err = d.registry.SetLocks(origin, changes, cmd.Text())
		}
		if err != nil {
			logger.Debug("Rejected lock block", "error", err)
			commandsTotal.WithLabelValues("locks", "nak").Inc()
			return videohub.NAK
		}
		commandsTotal.WithLabelValues("locks", "ack").Inc()
		return videohub.ACK

	case videohub.HeaderInputLabels:
		if cmd.IsQuery() {
			commandsTotal.WithLabelValues("input_labels", "query").Inc()
			return videohub.ACK + d.registry.Render((*videohub.Table).RenderInputLabels)
		}

	case videohub.HeaderOutputLabels:
		if cmd.IsQuery() {
			commandsTotal.WithLabelValues("output_labels", "query").Inc()
			return videohub.ACK + d.registry.Render((*videohub.Table).RenderOutputLabels)
		}
	}

	commandsTotal.WithLabelValues("other", "ignored").Inc()
	logger.Debug("Ignoring command block", "lines", len(cmd.Params)+1)
	return ""
}
