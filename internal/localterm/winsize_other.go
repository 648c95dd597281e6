//go:build !unix

package localterm

import (
	"os"

	"golang.org/x/term"
)

func measure(fd int) (Size, error) {
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: float64(cols), CellWidth: 1, Cols: cols, Rows: rows}, nil
}

// Without SIGWINCH the width is only measured once.
func watchResize() (<-chan os.Signal, func()) {
	return nil, func() {}
}
