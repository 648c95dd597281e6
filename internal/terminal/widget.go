package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"pkt.systems/ctrconsole/internal/channel"
	"pkt.systems/ctrconsole/internal/engine"
	"pkt.systems/ctrconsole/internal/logx"
	"pkt.systems/ctrconsole/schema"
	"pkt.systems/pslog"
)

// Engine is the part of the engine client a terminal needs.
type Engine interface {
	VersionPrefix() string
	OpenChannel(ctx context.Context) (channel.Channel, error)
	ExecContainer(ctx context.Context, id schema.ContainerID) (schema.ExecCreateResponse, error)
	ResizeContainersTTY(ctx context.Context, id schema.SessionID, isTTY bool, cols, rows int) error
}

// Props is what the surrounding view knows about the container.
type Props struct {
	ContainerID schema.ContainerID
	Status      schema.ContainerStatus
	// TTY is nil until the container's tty setting is known.
	TTY   *bool
	Width float64
}

// Running reports whether the container is running.
func (p Props) Running() bool {
	return p.Status == schema.StatusRunning
}

// ConsoleError is a connect or resize failure shown to the user.
type ConsoleError struct {
	Detail string
	Err    error
}

func (e *ConsoleError) Error() string {
	return schema.ErrConnect.Error() + ": " + e.Detail
}

// Unwrap exposes both the connect class and the cause.
func (e *ConsoleError) Unwrap() []error {
	return []error{schema.ErrConnect, e.Err}
}

// Options tune a widget.
type Options struct {
	Layout Layout
	// OnError is called from the event loop whenever a new error is shown.
	OnError func(error)
	// OnClose is called from the event loop after the stream closed. It must
	// not block on the widget; cancel the Run context instead of Unmount.
	OnClose func()
}

// Widget owns one emulator and at most one live Session. All session state
// belongs to the goroutine running Run; the exported methods hand work to it.
type Widget struct {
	engine Engine
	term   Emulator
	opts   Options

	updates chan Props
	resizes chan float64
	stop    chan struct{}
	done    chan struct{}

	started  atomic.Bool
	stopOnce sync.Once
	state    atomic.Int32

	errMu   sync.Mutex
	lastErr error

	// owned by Run
	props   Props
	session *Session
	target  schema.SessionID
}

// NewWidget returns an unmounted widget for props.
func NewWidget(eng Engine, term Emulator, props Props, opts Options) *Widget {
	if opts.Layout.Rows <= 0 {
		opts.Layout.Rows = DefaultRows
	}
	return &Widget{
		engine:  eng,
		term:    term,
		opts:    opts,
		updates: make(chan Props),
		resizes: make(chan float64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		props:   props,
		target:  schema.SessionID(props.ContainerID),
	}
}

// Mount starts the event loop in the background.
func (w *Widget) Mount(ctx context.Context) {
	go func() {
		_ = w.Run(ctx)
	}()
}

// Run connects if the props allow it and processes events until ctx is done
// or Unmount is called. The widget is unmounted when Run returns.
func (w *Widget) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("terminal: widget already mounted")
	}
	defer close(w.done)
	log := logx.WithContainer(ctx, w.props.ContainerID)
	ctx = logx.ContextWithContainerLogger(ctx, log, w.props.ContainerID)
	log.Debug("terminal mounted", "status", w.props.Status)

	keys := w.term.Data()
	w.connect(ctx)
	for {
		w.publish()
		var events <-chan channel.Event
		if w.session != nil {
			events = w.session.Events()
		}
		select {
		case <-ctx.Done():
			w.unmount(ctx)
			return nil
		case <-w.stop:
			w.unmount(ctx)
			return nil
		case ev, ok := <-events:
			if !ok {
				w.handleClose(ctx, nil)
				continue
			}
			w.handleEvent(ctx, ev)
		case data, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if w.session != nil && w.session.Connected() {
				if err := w.session.Input(data); err != nil {
					log.Debug("terminal input dropped", "err", err)
				}
			}
		case p := <-w.updates:
			w.update(ctx, p)
		case width := <-w.resizes:
			if width != w.props.Width {
				w.props.Width = width
				w.resize(ctx)
			}
		}
	}
}

// Update hands new props to the event loop. A zero Width keeps the current
// width. It is a no-op once unmounted.
func (w *Widget) Update(p Props) {
	select {
	case w.updates <- p:
	case <-w.done:
	case <-w.stop:
	}
}

// Resize hands a new surface width to the event loop.
func (w *Widget) Resize(width float64) {
	select {
	case w.resizes <- width:
	case <-w.done:
	case <-w.stop:
	}
}

// Unmount stops the event loop and waits for teardown.
func (w *Widget) Unmount() {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started.Load() {
		<-w.done
	}
}

// Done is closed once the widget is unmounted.
func (w *Widget) Done() <-chan struct{} {
	return w.done
}

// State returns the state of the current session.
func (w *Widget) State() State {
	return State(w.state.Load())
}

// LastError returns the error currently shown, if any.
func (w *Widget) LastError() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}

// DismissError clears the shown error.
func (w *Widget) DismissError() {
	w.setError(nil)
}

func (w *Widget) setError(err error) {
	w.errMu.Lock()
	w.lastErr = err
	w.errMu.Unlock()
	if err != nil && w.opts.OnError != nil {
		w.opts.OnError(err)
	}
}

func (w *Widget) fail(ctx context.Context, msg string, err error) {
	pslog.Ctx(ctx).Warn(msg, "err", err)
	w.setError(&ConsoleError{Detail: err.Error(), Err: err})
}

func (w *Widget) publish() {
	st := StateDisconnected
	if w.session != nil {
		st = w.session.State()
	}
	w.state.Store(int32(st))
}

func (w *Widget) connected() bool {
	return w.session != nil && w.session.Connected()
}

// connect opens a new session when none is held, the container runs and its
// tty setting is known.
func (w *Widget) connect(ctx context.Context) {
	if w.connected() || !w.props.Running() || w.props.TTY == nil {
		return
	}
	tty := *w.props.TTY
	prefix := w.engine.VersionPrefix()

	target := schema.SessionID(w.props.ContainerID)
	var request []byte
	if tty {
		request = engine.AttachRequest(prefix, w.props.ContainerID)
	} else {
		exec, err := w.engine.ExecContainer(ctx, w.props.ContainerID)
		if err != nil {
			w.fail(ctx, "terminal exec create failed", err)
			return
		}
		target = schema.SessionID(exec.ID)
		request = engine.ExecStartRequest(prefix, exec.ID)
	}

	ch, err := w.engine.OpenChannel(ctx)
	if err != nil {
		w.fail(ctx, "terminal channel open failed", err)
		return
	}
	sess := NewSession(target, tty, ch, w.term)
	log := logx.WithSession(pslog.Ctx(ctx), sess.ID, target)
	if err := sess.Open(request); err != nil {
		sess.Detach()
		w.fail(ctx, "terminal request failed", err)
		return
	}
	// Form feed makes an attached shell redraw its prompt.
	if err := sess.Input([]byte{0x0c}); err != nil {
		log.Debug("terminal redraw request failed", "err", err)
	}
	w.session = sess
	w.target = target
	w.setError(nil)
	w.term.SetCursorHidden(false)
	log.Info("terminal connected", "tty", tty)
	w.publish()
	w.resize(ctx)
}

func (w *Widget) update(ctx context.Context, p Props) {
	prev := w.props
	p.ContainerID = prev.ContainerID
	if p.Width == 0 {
		p.Width = prev.Width
	}
	w.props = p
	becameRunning := p.Running() && !prev.Running()
	ttyResolved := p.TTY != nil && prev.TTY == nil
	if !w.connected() && (becameRunning || ttyResolved) {
		w.connect(ctx)
	}
	if p.Width != prev.Width {
		w.resize(ctx)
	}
}

// resize recomputes the grid from the width, resizes the emulator and tells
// the remote side. Without a session only the emulator is resized.
func (w *Widget) resize(ctx context.Context) {
	cols := w.opts.Layout.Columns(w.props.Width, w.term.CellWidth())
	if cols < 1 {
		return
	}
	rows := w.opts.Layout.RowCount()
	if err := w.term.Resize(cols, rows); err != nil {
		pslog.Ctx(ctx).Debug("terminal emulator resize failed", "err", err)
	}
	if !w.connected() {
		return
	}
	if err := w.engine.ResizeContainersTTY(ctx, w.target, w.session.TTY, cols, rows); err != nil {
		w.fail(ctx, "terminal resize failed", fmt.Errorf("%w: %w", schema.ErrResize, err))
	}
}

func (w *Widget) handleEvent(ctx context.Context, ev channel.Event) {
	switch ev.Kind {
	case channel.EventMessage:
		if _, err := w.session.Feed(ev.Data); err != nil {
			pslog.Ctx(ctx).Debug("terminal write failed", "err", err)
		}
	case channel.EventClose:
		w.handleClose(ctx, ev.Err)
	}
}

func (w *Widget) handleClose(ctx context.Context, err error) {
	if w.session == nil {
		return
	}
	sess := w.session
	if sess.Disconnect() {
		log := logx.WithSession(pslog.Ctx(ctx), sess.ID, sess.Target)
		if err != nil {
			log.Info("terminal disconnected", "err", err)
		} else {
			log.Info("terminal disconnected")
		}
	}
	w.session = nil
	if w.opts.OnClose != nil {
		w.opts.OnClose()
	}
}

// unmount stops listening to the session before closing its channel, then
// disposes the emulator.
func (w *Widget) unmount(ctx context.Context) {
	if w.session != nil {
		w.session.Detach()
		w.session = nil
	}
	w.publish()
	if err := w.term.Dispose(); err != nil {
		pslog.Ctx(ctx).Debug("terminal dispose failed", "err", err)
	}
	pslog.Ctx(ctx).Debug("terminal unmounted")
}
