package session

// Handler receives bus events.
type Handler func(evt Event)

// Bus is a synchronous publish/subscribe channel. Handlers run in
// subscription order. An event published from inside a handler is queued
// and delivered after the current event has reached every handler, so
// delivery is never re-entrant.
type Bus struct {
	handlers   []Handler
	queue      []Event
	publishing bool
}

// Subscribe registers h for every subsequent event.
func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.handlers = append(b.handlers, h)
}

// Publish delivers evt to all handlers.
func (b *Bus) Publish(evt Event) {
	b.queue = append(b.queue, evt)
	if b.publishing {
		return
	}
	b.publishing = true
	defer func() { b.publishing = false }()

	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		for _, h := range b.handlers {
			h(next)
		}
	}
	b.queue = nil
}
