package terminal

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"pkt.systems/ctrconsole/internal/channel"
	"pkt.systems/ctrconsole/schema"
)

// State is the lifecycle state of a stream session.
type State int

const (
	// StateDisconnected is both the initial widget state and the terminal
	// state of every session.
	StateDisconnected State = iota
	// StateOpening means the channel exists but the request is not sent yet.
	StateOpening
	// StateAwaitingHeader discards inbound bytes until the end of the HTTP
	// response header.
	StateAwaitingHeader
	// StateStreaming forwards inbound bytes to the emulator.
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateOpening:
		return "opening"
	case StateAwaitingHeader:
		return "awaiting-header"
	case StateStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DisconnectedNotice is written to the emulator when the stream closes.
const DisconnectedNotice = "\x1b[31m disconnected \x1b[m\r\n"

var headerTerminator = []byte("\r\n\r\n")

// Session is one attach or exec stream. It is not safe for concurrent use;
// a Widget drives it from its event loop.
type Session struct {
	ID     string
	Target schema.SessionID
	TTY    bool

	ch    channel.Channel
	term  Emulator
	state State
	// pending holds the trailing header bytes that could begin a terminator
	// split across chunks.
	pending []byte
	// headerSeen counts the bytes fed while awaiting the header.
	headerSeen int
	text       *textDecoder
}

// NewSession wraps ch. The session starts in StateOpening.
func NewSession(target schema.SessionID, tty bool, ch channel.Channel, term Emulator) *Session {
	return &Session{
		ID:     uuid.NewString(),
		Target: target,
		TTY:    tty,
		ch:     ch,
		term:   term,
		state:  StateOpening,
		text:   newTextDecoder(),
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Connected reports whether the session still holds its channel.
func (s *Session) Connected() bool {
	return s.ch != nil
}

// Events returns the channel's events, or nil once the session let go of
// the channel. Receiving from nil blocks forever, which is what a select in
// the event loop wants.
func (s *Session) Events() <-chan channel.Event {
	if s.ch == nil {
		return nil
	}
	return s.ch.Events()
}

// Open sends the raw HTTP request that starts the stream.
func (s *Session) Open(request []byte) error {
	if s.state != StateOpening {
		return fmt.Errorf("%w: session is %s", schema.ErrInvalidRequest, s.state)
	}
	if err := s.ch.Send(request); err != nil {
		return err
	}
	s.state = StateAwaitingHeader
	return nil
}

// Feed processes one inbound chunk and reports how many bytes were consumed.
//
// While awaiting the header nothing reaches the emulator and Feed reports 0
// until the CRLFCRLF terminator shows up, possibly spanning several chunks.
// The chunk that completes the terminator reports every header byte fed so
// far plus the streamed remainder, so the counts of a split stream still add
// up to its length. After that every chunk is streamed as text, including
// any further CRLFCRLF sequences.
func (s *Session) Feed(chunk []byte) (int, error) {
	switch s.state {
	case StateAwaitingHeader:
		return s.stripHeader(chunk)
	case StateStreaming:
		return s.stream(chunk)
	default:
		return 0, nil
	}
}

func (s *Session) stripHeader(chunk []byte) (int, error) {
	window := chunk
	if len(s.pending) > 0 {
		window = append(s.pending, chunk...)
	}
	pos := bytes.Index(window, headerTerminator)
	if pos < 0 {
		s.headerSeen += len(chunk)
		keep := len(headerTerminator) - 1
		if len(window) < keep {
			keep = len(window)
		}
		s.pending = append([]byte(nil), window[len(window)-keep:]...)
		return 0, nil
	}
	end := pos + len(headerTerminator)
	header := s.headerSeen + end - len(s.pending)
	s.pending = nil
	s.headerSeen = 0
	s.state = StateStreaming
	n, err := s.stream(window[end:])
	return header + n, err
}

func (s *Session) stream(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	text := s.text.decode(p)
	if text == "" {
		return len(p), nil
	}
	if err := s.term.Write(text); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Input sends keystrokes to the remote side.
func (s *Session) Input(keys []byte) error {
	if s.ch == nil {
		return schema.ErrNotConnected
	}
	return s.ch.Send(keys)
}

// Disconnect handles the end of the stream: it writes DisconnectedNotice,
// hides the cursor and lets go of the channel. It reports false if the
// session was already disconnected.
func (s *Session) Disconnect() bool {
	if s.state == StateDisconnected {
		return false
	}
	s.release()
	if rest := s.text.flush(); rest != "" {
		_ = s.term.Write(rest)
	}
	_ = s.term.Write(DisconnectedNotice)
	s.term.SetCursorHidden(true)
	return true
}

// Detach lets go of the channel without touching the emulator.
func (s *Session) Detach() {
	if s.state == StateDisconnected {
		return
	}
	s.release()
}

func (s *Session) release() {
	s.state = StateDisconnected
	s.pending = nil
	s.headerSeen = 0
	if s.ch != nil {
		_ = s.ch.Close()
		s.ch = nil
	}
}
