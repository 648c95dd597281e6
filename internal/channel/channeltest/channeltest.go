// Package channeltest provides an in-memory channel.Channel for tests.
package channeltest

import (
	"sync"

	"pkt.systems/ctrconsole/internal/channel"
	"pkt.systems/ctrconsole/schema"
)

// Fake is an in-memory channel. The test side feeds inbound chunks with
// Deliver and ends the stream with Hangup; everything the code under test
// sends is recorded.
type Fake struct {
	mu      sync.Mutex
	events  chan channel.Event
	sent    [][]byte
	closed  bool
	hungUp  bool
	SendErr error
}

// New returns an open fake channel.
func New() *Fake {
	return &Fake{events: make(chan channel.Event, 256)}
}

// Deliver queues an inbound chunk.
func (f *Fake) Deliver(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hungUp {
		return
	}
	cp := append([]byte(nil), data...)
	f.events <- channel.Event{Kind: channel.EventMessage, Data: cp}
}

// Hangup queues the close event and ends the event stream.
func (f *Fake) Hangup(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hungUp {
		return
	}
	f.hungUp = true
	f.events <- channel.Event{Kind: channel.EventClose, Err: err}
	close(f.events)
}

// Send records p.
func (f *Fake) Send(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return schema.ErrChannelClosed
	}
	if f.SendErr != nil {
		return f.SendErr
	}
	f.sent = append(f.sent, append([]byte(nil), p...))
	return nil
}

// Close marks the channel closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Events returns the inbound event stream.
func (f *Fake) Events() <-chan channel.Event {
	return f.events
}

// Sent returns a copy of everything sent so far.
func (f *Fake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// SentString returns everything sent so far joined together.
func (f *Fake) SentString() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []byte
	for _, p := range f.sent {
		out = append(out, p...)
	}
	return string(out)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
