package events

// Forward copies events of type T into ch for a consumer that selects on it
// next to its own context. A full channel drops the event rather than stall
// the dispatcher, so ch should be buffered.
func Forward[T Event](b *Bus, ch chan<- any) func() {
	return On(b, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// ForwardAll forwards every gateway event kind into ch and returns a single
// func that removes all of them.
func ForwardAll(b *Bus, ch chan<- any) func() {
	unsubs := []func(){
		Forward[RouteChangedEvent](b, ch),
		Forward[LockChangedEvent](b, ch),
		Forward[InputLabelChangedEvent](b, ch),
		Forward[PeerConnectedEvent](b, ch),
		Forward[PeerDisconnectedEvent](b, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
