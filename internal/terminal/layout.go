package terminal

import "math"

// DefaultRows is the fixed row count of a console.
const DefaultRows = 24

// Layout converts a surface width into a terminal grid.
type Layout struct {
	// Padding is the horizontal chrome subtracted from the width.
	Padding float64
	Rows    int
}

// TextLayout is the layout for surfaces measured in cells.
func TextLayout() Layout {
	return Layout{Rows: DefaultRows}
}

// Columns returns floor((width - padding) / cellWidth). A non-positive cell
// width counts as 1.
func (l Layout) Columns(width, cellWidth float64) int {
	if cellWidth <= 0 {
		cellWidth = 1
	}
	return int(math.Floor((width - l.Padding) / cellWidth))
}

// RowCount returns the configured rows or DefaultRows.
func (l Layout) RowCount() int {
	if l.Rows <= 0 {
		return DefaultRows
	}
	return l.Rows
}
