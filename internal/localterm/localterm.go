// Package localterm is a terminal.Emulator backed by the process's own TTY.
package localterm

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// Size is the surface width as the widget sees it. When the TTY reports its
// pixel size Width is in pixels, otherwise it is in cells and CellWidth is 1.
type Size struct {
	Width     float64
	CellWidth float64
	Cols      int
	Rows      int
}

// Terminal is a local TTY in raw mode.
type Terminal struct {
	in   io.Reader
	out  io.Writer
	size func() (Size, error)

	data    chan []byte
	closed  chan struct{}
	restore func() error

	mu       sync.Mutex
	cell     float64
	disposed bool
}

// Open puts in into raw mode and returns a Terminal reading keystrokes from
// in and rendering to out. Dispose restores the previous mode.
func Open(in, out *os.File) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("localterm: stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	t := newTerminal(in, out, func() (Size, error) { return measure(fd) })
	t.restore = func() error { return term.Restore(fd, state) }
	t.start()
	return t, nil
}

func newTerminal(in io.Reader, out io.Writer, size func() (Size, error)) *Terminal {
	t := &Terminal{
		in:     in,
		out:    out,
		size:   size,
		data:   make(chan []byte),
		closed: make(chan struct{}),
		cell:   1,
	}
	if sz, err := size(); err == nil && sz.CellWidth > 0 {
		t.cell = sz.CellWidth
	}
	return t
}

func (t *Terminal) start() {
	go t.readLoop()
}

func (t *Terminal) readLoop() {
	defer close(t.data)
	buf := make([]byte, 1024)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case t.data <- chunk:
			case <-t.closed:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Size measures the terminal now.
func (t *Terminal) Size() (Size, error) {
	sz, err := t.size()
	if err != nil {
		return Size{}, err
	}
	if sz.CellWidth > 0 {
		t.mu.Lock()
		t.cell = sz.CellWidth
		t.mu.Unlock()
	}
	return sz, nil
}

// Widths sends the surface width whenever the window changes size, starting
// with the current width. The channel closes when ctx is done.
func (t *Terminal) Widths(ctx context.Context) <-chan float64 {
	out := make(chan float64, 1)
	changes, stop := watchResize()
	go func() {
		defer close(out)
		defer stop()
		send := func() bool {
			sz, err := t.Size()
			if err != nil {
				return true
			}
			select {
			case out <- sz.Width:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.closed:
				return
			case <-changes:
				if !send() {
					return
				}
			}
		}
	}()
	return out
}

func (t *Terminal) Write(text string) error {
	_, err := io.WriteString(t.out, text)
	return err
}

// Resize is a no-op: the grid of a local TTY belongs to the user's window.
func (t *Terminal) Resize(cols, rows int) error {
	return nil
}

func (t *Terminal) CellWidth() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cell
}

func (t *Terminal) SetCursorHidden(hidden bool) {
	seq := showCursor
	if hidden {
		seq = hideCursor
	}
	_, _ = io.WriteString(t.out, seq)
}

func (t *Terminal) Data() <-chan []byte {
	return t.data
}

// Dispose shows the cursor again and restores the TTY mode. It is safe to
// call more than once.
func (t *Terminal) Dispose() error {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return nil
	}
	t.disposed = true
	t.mu.Unlock()
	close(t.closed)
	_, _ = io.WriteString(t.out, showCursor)
	if t.restore != nil {
		return t.restore()
	}
	return nil
}
