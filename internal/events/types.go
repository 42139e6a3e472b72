package events

// Event type constants for kelindar/event.
const (
	TypeRouteChanged uint32 = iota + 1
	TypeLockChanged
	TypeInputLabelChanged
	TypePeerConnected
	TypePeerDisconnected
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// RouteChangedEvent is published after an output has been switched to a new input.
type RouteChangedEvent struct {
	Output    int    `json:"output" example:"1" doc:"Output index"`
	Input     int    `json:"input" example:"0" doc:"Input index now feeding the output"`
	Source    string `json:"source" example:"CAM-1 (Studio)" doc:"Name of the routed source"`
	Origin    string `json:"origin" example:"127.0.0.1:53422" doc:"Controller or API that requested the change"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RouteChangedEvent.
func (e RouteChangedEvent) Type() uint32 { return TypeRouteChanged }

// LockChangedEvent is published when an output lock flag is recorded.
type LockChangedEvent struct {
	Output    int    `json:"output" example:"1" doc:"Output index"`
	State     string `json:"state" example:"L" doc:"Lock flag: L, U or O"`
	Origin    string `json:"origin" doc:"Controller that sent the lock change"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LockChangedEvent.
func (e LockChangedEvent) Type() uint32 { return TypeLockChanged }

// InputLabelChangedEvent is published when an input label changes at runtime.
type InputLabelChangedEvent struct {
	Input     int    `json:"input" example:"0" doc:"Input index"`
	Label     string `json:"label" example:"Camera 1" doc:"New label"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for InputLabelChangedEvent.
func (e InputLabelChangedEvent) Type() uint32 { return TypeInputLabelChanged }

// PeerConnectedEvent is published when a controller is registered.
type PeerConnectedEvent struct {
	Address   string `json:"address" example:"127.0.0.1:53422" doc:"Controller address"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PeerConnectedEvent.
func (e PeerConnectedEvent) Type() uint32 { return TypePeerConnected }

// PeerDisconnectedEvent is published when a controller is deregistered.
type PeerDisconnectedEvent struct {
	Address   string `json:"address" example:"127.0.0.1:53422" doc:"Controller address"`
	Reason    string `json:"reason,omitempty" example:"EOF" doc:"Why the session ended"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PeerDisconnectedEvent.
func (e PeerDisconnectedEvent) Type() uint32 { return TypePeerDisconnected }
