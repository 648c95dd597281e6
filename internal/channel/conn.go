package channel

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"pkt.systems/ctrconsole/schema"
)

const readBufferSize = 32 * 1024

type connChannel struct {
	conn    net.Conn
	events  chan Event
	done    chan struct{}
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// Dial opens a stream channel to network/address ("unix" or "tcp").
func Dial(ctx context.Context, network, address string) (Channel, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// New wraps an established connection. The channel owns conn from now on.
func New(conn net.Conn) Channel {
	c := &connChannel{
		conn:   conn,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *connChannel) readLoop() {
	defer close(c.events)
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !c.emit(Event{Kind: EventMessage, Data: data}) {
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				err = nil
			}
			c.emit(Event{Kind: EventClose, Err: err})
			return
		}
	}
}

func (c *connChannel) emit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *connChannel) Send(p []byte) error {
	select {
	case <-c.done:
		return schema.ErrChannelClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(p)
	return err
}

func (c *connChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *connChannel) Events() <-chan Event {
	return c.events
}
