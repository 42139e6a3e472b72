package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/videohubd/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes(api huma.API) {
	if s.eventBus == nil {
		return
	}

	sse.Register(api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time route, lock, label and controller connection events",
		Tags:        []string{"events"},
	}, map[string]any{
		"route-changed":       events.RouteChangedEvent{},
		"lock-changed":        events.LockChangedEvent{},
		"input-label-changed": events.InputLabelChangedEvent{},
		"peer-connected":      events.PeerConnectedEvent{},
		"peer-disconnected":   events.PeerDisconnectedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		defer events.ForwardAll(s.eventBus, eventCh)()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
