// Package channel provides the bidirectional byte-stream transport used by
// terminal sessions: a raw connection to the engine socket on which the first
// write is an HTTP request and everything after the response header is
// terminal traffic.
package channel

// EventKind distinguishes channel events.
type EventKind int

const (
	// EventMessage carries inbound bytes.
	EventMessage EventKind = iota
	// EventClose reports that the peer closed the stream or it failed.
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is delivered on a channel's event stream in arrival order.
type Event struct {
	Kind EventKind
	Data []byte
	// Err is set on EventClose when the stream ended abnormally.
	Err error
}

// Channel is a bidirectional binary stream with event subscription.
//
// Events delivers every inbound chunk as an EventMessage, followed by exactly
// one EventClose, after which the returned Go channel is closed. Consumers
// that stop reading Events must still call Close so the producer is released.
type Channel interface {
	Send(p []byte) error
	Close() error
	Events() <-chan Event
}
