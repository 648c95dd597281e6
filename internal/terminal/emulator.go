// Package terminal adapts an engine attach or exec stream into an interactive
// terminal: it strips the HTTP response header that precedes the raw stream,
// pipes output to an Emulator and keystrokes back to the engine.
package terminal

// Emulator is the rendering surface a widget drives. Front-ends (local TTY,
// SSH session, websocket peer) provide the implementation.
type Emulator interface {
	// Write renders text.
	Write(text string) error
	// Resize changes the emulator grid.
	Resize(cols, rows int) error
	// CellWidth is the measured width of one cell in the same unit as the
	// widget width (pixels for graphical surfaces, 1 for text ones).
	CellWidth() float64
	SetCursorHidden(hidden bool)
	// Data delivers user keystrokes. It is closed when the surface goes away.
	Data() <-chan []byte
	Dispose() error
}
