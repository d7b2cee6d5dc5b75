package session

import "sync"

// Feed forwards bus events to a channel for consumers running on another
// goroutine, such as a dashboard. Send never blocks: when the buffer is
// full the oldest event is dropped.
type Feed struct {
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewFeed creates a feed with the given buffer size.
func NewFeed(bufferSize int) *Feed {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &Feed{
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Send queues evt. It is a no-op after Close.
func (f *Feed) Send(evt Event) {
	select {
	case <-f.done:
		return
	default:
	}

	select {
	case f.events <- evt:
	default:
		// Buffer full, drop oldest and retry once
		select {
		case <-f.events:
		default:
		}
		select {
		case f.events <- evt:
		default:
		}
	}
}

// Handler returns f.Send as a bus handler.
func (f *Feed) Handler() Handler {
	return f.Send
}

// Events returns the receive side of the feed.
func (f *Feed) Events() <-chan Event {
	return f.events
}

// Done returns a channel that closes when the feed is closed.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Close stops the feed. Safe to call more than once.
func (f *Feed) Close() {
	f.doneOnce.Do(func() {
		close(f.done)
	})
}
