package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"pkt.systems/ctrconsole/internal/logx"
	"pkt.systems/ctrconsole/internal/terminal"
	"pkt.systems/ctrconsole/schema"
	"pkt.systems/pslog"
)

// Websocket frames from the browser carry a one byte type prefix.
const (
	frameInput  byte = 0
	frameResize byte = 1
)

// resizeFrame is the payload of a resize frame, in CSS pixels.
type resizeFrame struct {
	Width     float64 `json:"width"`
	CellWidth float64 `json:"cellWidth"`
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.InspectContainer(r.Context(), schema.ContainerID(r.PathValue("id")))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		s.serveTerminal(conn, info)
	}).ServeHTTP(w, r)
}

// serveTerminal keeps a console widget mounted for as long as the websocket
// is open. A closed stream leaves the widget in place; it reconnects when the
// container starts again.
func (s *Server) serveTerminal(conn *websocket.Conn, info schema.ContainerInfo) {
	defer conn.Close()
	log := logx.WithContainer(conn.Request().Context(), info.ID)
	ctx, cancel := context.WithCancel(logx.ContextWithContainerLogger(conn.Request().Context(), log, info.ID))
	defer cancel()

	emu := newWSEmulator(conn, cancel)
	w := terminal.NewWidget(s.engine, emu, terminal.PropsFor(info), terminal.Options{
		Layout:  s.cfg.Layout,
		OnError: emu.showError,
	})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case width := <-emu.widths:
				w.Resize(width)
			}
		}
	}()
	go terminal.Follow(ctx, s.engine, w, info.ID, s.cfg.FollowInterval)

	log.Info("websocket console opened", "status", info.Status)
	_ = w.Run(ctx)
	log.Info("websocket console closed")
}

// wsEmulator is the browser side of a console. Output goes out as text
// frames; input and resize frames come back in.
type wsEmulator struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	sendMu sync.Mutex

	data   chan []byte
	widths chan float64
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	cell float64
}

func newWSEmulator(conn *websocket.Conn, cancel context.CancelFunc) *wsEmulator {
	e := &wsEmulator{
		conn:   conn,
		cancel: cancel,
		data:   make(chan []byte),
		widths: make(chan float64, 1),
		closed: make(chan struct{}),
		cell:   1,
	}
	go e.readLoop()
	return e
}

func (e *wsEmulator) readLoop() {
	defer close(e.data)
	log := pslog.Ctx(e.conn.Request().Context())
	for {
		var msg []byte
		if err := websocket.Message.Receive(e.conn, &msg); err != nil {
			e.cancel()
			return
		}
		if len(msg) == 0 {
			continue
		}
		payload := msg[1:]
		switch msg[0] {
		case frameInput:
			if len(payload) == 0 {
				continue
			}
			select {
			case e.data <- append([]byte(nil), payload...):
			case <-e.closed:
				return
			}
		case frameResize:
			var rf resizeFrame
			if err := json.Unmarshal(payload, &rf); err != nil {
				log.Debug("websocket resize frame rejected", "err", err)
				continue
			}
			if rf.CellWidth > 0 {
				e.mu.Lock()
				e.cell = rf.CellWidth
				e.mu.Unlock()
			}
			enqueueWidth(e.widths, rf.Width)
		default:
			log.Debug("websocket frame ignored", "type", msg[0])
		}
	}
}

// enqueueWidth replaces any width not yet consumed; only the latest matters.
func enqueueWidth(ch chan float64, width float64) {
	select {
	case ch <- width:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- width:
		default:
		}
	}
}

func (e *wsEmulator) send(text string) error {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()
	if err := websocket.Message.Send(e.conn, text); err != nil {
		e.cancel()
		return err
	}
	return nil
}

func (e *wsEmulator) showError(err error) {
	_ = e.send(fmt.Sprintf("\r\n\x1b[31m%v\x1b[m\r\n", err))
}

func (e *wsEmulator) Write(text string) error { return e.send(text) }

// Resize is a no-op: the browser sizes its own grid from the same width.
func (e *wsEmulator) Resize(cols, rows int) error { return nil }

func (e *wsEmulator) CellWidth() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cell
}

func (e *wsEmulator) SetCursorHidden(hidden bool) {
	if hidden {
		_ = e.send("\x1b[?25l")
		return
	}
	_ = e.send("\x1b[?25h")
}

func (e *wsEmulator) Data() <-chan []byte { return e.data }

func (e *wsEmulator) Dispose() error {
	e.once.Do(func() { close(e.closed) })
	return nil
}
