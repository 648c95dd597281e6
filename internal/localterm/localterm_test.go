package localterm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fixedSize(sz Size) func() (Size, error) {
	return func() (Size, error) { return sz, nil }
}

func TestTerminalDeliversKeystrokes(t *testing.T) {
	r, w := io.Pipe()
	out := &syncBuffer{}
	tm := newTerminal(r, out, fixedSize(Size{Width: 80, CellWidth: 1}))
	tm.start()

	go func() { _, _ = w.Write([]byte("ls\r")) }()
	select {
	case got := <-tm.Data():
		assert.Equal(t, "ls\r", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("no keystrokes delivered")
	}

	require.NoError(t, w.Close())
	_, ok := <-tm.Data()
	assert.False(t, ok, "data closes when input ends")
}

func TestTerminalWriteAndCursor(t *testing.T) {
	out := &syncBuffer{}
	tm := newTerminal(bytes.NewReader(nil), out, fixedSize(Size{Width: 80, CellWidth: 1}))
	require.NoError(t, tm.Write("hello"))
	tm.SetCursorHidden(true)
	tm.SetCursorHidden(false)
	require.NoError(t, tm.Resize(100, 24))
	assert.Equal(t, "hello"+hideCursor+showCursor, out.String())
}

func TestTerminalDisposeRestoresOnce(t *testing.T) {
	out := &syncBuffer{}
	tm := newTerminal(bytes.NewReader(nil), out, fixedSize(Size{Width: 80, CellWidth: 1}))
	restores := 0
	tm.restore = func() error {
		restores++
		return nil
	}
	require.NoError(t, tm.Dispose())
	require.NoError(t, tm.Dispose())
	assert.Equal(t, 1, restores)
	assert.Equal(t, showCursor, out.String())
}

func TestTerminalCellWidth(t *testing.T) {
	tm := newTerminal(bytes.NewReader(nil), io.Discard, fixedSize(Size{Width: 1600, CellWidth: 8, Cols: 200}))
	assert.Equal(t, 8.0, tm.CellWidth())

	failing := newTerminal(bytes.NewReader(nil), io.Discard, func() (Size, error) {
		return Size{}, errors.New("not a tty")
	})
	assert.Equal(t, 1.0, failing.CellWidth())
}

func TestTerminalWidthsStartsWithCurrent(t *testing.T) {
	tm := newTerminal(bytes.NewReader(nil), io.Discard, fixedSize(Size{Width: 132, CellWidth: 1}))
	ctx, cancel := context.WithCancel(context.Background())
	widths := tm.Widths(ctx)
	select {
	case w := <-widths:
		assert.Equal(t, 132.0, w)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial width")
	}
	cancel()
	for range widths {
	}
}
