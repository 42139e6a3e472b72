package events

import (
	"github.com/kelindar/event"
)

// Bus fans gateway state changes out to in-process listeners such as the
// API event stream. Delivery is asynchronous and ordered per subscriber.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// publishers holds one typed publish call per event kind. kelindar/event keys
// subscribers by the static type, so an Event interface value has to be
// converted back before dispatch.
var publishers = map[uint32]func(*event.Dispatcher, Event){
	TypeRouteChanged:      publishAs[RouteChangedEvent],
	TypeLockChanged:       publishAs[LockChangedEvent],
	TypeInputLabelChanged: publishAs[InputLabelChangedEvent],
	TypePeerConnected:     publishAs[PeerConnectedEvent],
	TypePeerDisconnected:  publishAs[PeerDisconnectedEvent],
}

func publishAs[T Event](d *event.Dispatcher, ev Event) {
	if e, ok := ev.(T); ok {
		event.Publish(d, e)
	}
}

// Publish delivers ev to the subscribers of its concrete type. Unknown
// kinds are dropped.
func (b *Bus) Publish(ev Event) {
	if ev == nil {
		return
	}
	if publish, ok := publishers[ev.Type()]; ok {
		publish(b.dispatcher, ev)
	}
}

// On registers fn for events of type T and returns its unsubscribe func.
func On[T Event](b *Bus, fn func(T)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// Subscribe registers a handler whose parameter type selects the event kind,
// e.g. bus.Subscribe(func(e RouteChangedEvent) {...}). Handlers of any other
// shape are ignored and get a no-op unsubscribe.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(RouteChangedEvent):
		return On(b, h)
	case func(LockChangedEvent):
		return On(b, h)
	case func(InputLabelChangedEvent):
		return On(b, h)
	case func(PeerConnectedEvent):
		return On(b, h)
	case func(PeerDisconnectedEvent):
		return On(b, h)
	}
	return func() {}
}
