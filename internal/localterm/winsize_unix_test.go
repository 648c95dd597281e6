//go:build unix

package localterm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestSizeFromWinsize(t *testing.T) {
	sz := sizeFromWinsize(&unix.Winsize{Row: 50, Col: 200, Xpixel: 1600, Ypixel: 900})
	assert.Equal(t, Size{Width: 1600, CellWidth: 8, Cols: 200, Rows: 50}, sz)

	sz = sizeFromWinsize(&unix.Winsize{Row: 24, Col: 80})
	assert.Equal(t, Size{Width: 80, CellWidth: 1, Cols: 80, Rows: 24}, sz)
}
