package terminal

import (
	"strings"
	"sync"
)

type fakeEmulator struct {
	mu        sync.Mutex
	writes    []string
	resizes   [][2]int
	cellWidth float64
	hidden    bool
	disposed  int
	data      chan []byte
	writeErr  error
}

func newFakeEmulator(cellWidth float64) *fakeEmulator {
	return &fakeEmulator{cellWidth: cellWidth, data: make(chan []byte)}
}

func (e *fakeEmulator) Write(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.writeErr != nil {
		return e.writeErr
	}
	e.writes = append(e.writes, text)
	return nil
}

func (e *fakeEmulator) Resize(cols, rows int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resizes = append(e.resizes, [2]int{cols, rows})
	return nil
}

func (e *fakeEmulator) CellWidth() float64 { return e.cellWidth }

func (e *fakeEmulator) SetCursorHidden(hidden bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = hidden
}

func (e *fakeEmulator) Data() <-chan []byte { return e.data }

func (e *fakeEmulator) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed++
	return nil
}

func (e *fakeEmulator) output() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.Join(e.writes, "")
}

func (e *fakeEmulator) cursorHidden() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hidden
}

func (e *fakeEmulator) disposeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposed
}

func (e *fakeEmulator) lastResize() [2]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.resizes) == 0 {
		return [2]int{}
	}
	return e.resizes[len(e.resizes)-1]
}
