package sshserver

import (
	"io"
	"sync"
)

// sessionEmulator renders a console onto an SSH channel. The remote ssh
// client already runs a terminal emulator, so output is passed through and
// the grid is measured in cells.
type sessionEmulator struct {
	rw     io.ReadWriter
	data   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newSessionEmulator(rw io.ReadWriter) *sessionEmulator {
	e := &sessionEmulator{
		rw:     rw,
		data:   make(chan []byte),
		closed: make(chan struct{}),
	}
	go e.readLoop()
	return e
}

func (e *sessionEmulator) readLoop() {
	defer close(e.data)
	buf := make([]byte, 1024)
	for {
		n, err := e.rw.Read(buf)
		if n > 0 {
			select {
			case e.data <- append([]byte(nil), buf[:n]...):
			case <-e.closed:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (e *sessionEmulator) Write(text string) error {
	_, err := io.WriteString(e.rw, text)
	return err
}

func (e *sessionEmulator) Resize(cols, rows int) error { return nil }

func (e *sessionEmulator) CellWidth() float64 { return 1 }

func (e *sessionEmulator) SetCursorHidden(hidden bool) {
	if hidden {
		_, _ = io.WriteString(e.rw, "\x1b[?25l")
		return
	}
	_, _ = io.WriteString(e.rw, "\x1b[?25h")
}

func (e *sessionEmulator) Data() <-chan []byte { return e.data }

func (e *sessionEmulator) Dispose() error {
	e.once.Do(func() {
		close(e.closed)
		_, _ = io.WriteString(e.rw, "\x1b[?25h")
	})
	return nil
}
