//go:build unix

package localterm

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

func measure(fd int) (Size, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return Size{}, err
	}
	return sizeFromWinsize(ws), nil
}

func sizeFromWinsize(ws *unix.Winsize) Size {
	sz := Size{Cols: int(ws.Col), Rows: int(ws.Row)}
	if ws.Xpixel > 0 && ws.Col > 0 {
		sz.Width = float64(ws.Xpixel)
		sz.CellWidth = float64(ws.Xpixel) / float64(ws.Col)
		return sz
	}
	sz.Width = float64(ws.Col)
	sz.CellWidth = 1
	return sz
}

func watchResize() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGWINCH)
	return ch, func() { signal.Stop(ch) }
}
