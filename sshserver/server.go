package sshserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/ctrconsole/internal/logx"
	"pkt.systems/ctrconsole/internal/terminal"
	"pkt.systems/ctrconsole/schema"
	"pkt.systems/pslog"
)

// Engine is what an SSH console needs from the container engine.
type Engine interface {
	terminal.Engine
	terminal.Inspector
}

// DefaultFollowInterval is how often a console polls its container.
const DefaultFollowInterval = 2 * time.Second

// Server exposes container consoles over SSH. The SSH user name picks the
// container: `ssh web@host` opens a console on container "web".
type Server struct {
	Addr               string
	HostKeyPath        string
	AuthorizedKeysPath string
	Listener           net.Listener
	Engine             Engine
	// Rows overrides the console row count.
	Rows           int
	FollowInterval time.Duration
	logger         pslog.Logger
	keys           *AuthorizedKeys
}

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Engine == nil {
		return errors.New("engine is required for SSH")
	}
	if s.FollowInterval <= 0 {
		s.FollowInterval = DefaultFollowInterval
	}

	signer, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}
	keys, err := LoadAuthorizedKeys(s.AuthorizedKeysPath)
	if err != nil {
		return err
	}
	if keys.Len() == 0 {
		return fmt.Errorf("no keys in %s", s.AuthorizedKeysPath)
	}
	s.keys = keys
	s.logger.Info("ssh authorized keys loaded", "path", s.AuthorizedKeysPath, "count", keys.Len())

	server := &gliderssh.Server{
		Addr:             s.Addr,
		Handler:          s.handleSession,
		PublicKeyHandler: s.handlePublicKey,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			s.logger.Info("ssh listening", "addr", s.Listener.Addr().String())
			errCh <- server.Serve(s.Listener)
			return
		}
		s.logger.Info("ssh listening", "addr", s.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger.With("user", ctx.User(), "remote", remoteAddr(ctx), "fingerprint", ssh.FingerprintSHA256(key))
	if !s.keys.Allows(key) {
		log.Warn("ssh pubkey rejected", "reason", "no matching key")
		return false
	}
	log.Info("ssh pubkey accepted")
	return true
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	id := schema.ContainerID(sess.User())
	log := s.logger.With("remote", sess.RemoteAddr().String())
	if sshSession := sess.Context().SessionID(); sshSession != "" {
		log = log.With("ssh_session", sshSession)
	}
	if id == "" {
		log.Info("ssh session rejected", "reason", "missing container")
		_, _ = io.WriteString(sess, "missing container name\n")
		_ = sess.Exit(1)
		return
	}
	log = log.With("container", id)
	ctx, cancel := context.WithCancel(logx.ContextWithContainerLogger(sess.Context(), log, id))
	defer cancel()

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		_ = sess.Exit(1)
		return
	}

	info, err := s.Engine.InspectContainer(ctx, id)
	if err != nil {
		log.Info("ssh session rejected", "reason", "inspect failed", "err", err)
		_, _ = fmt.Fprintf(sess, "container %s: %v\r\n", id, err)
		_ = sess.Exit(1)
		return
	}
	if !info.Running() {
		_, _ = fmt.Fprintf(sess, "container %s is not running, waiting for it to start\r\n", id)
	}

	emu := newSessionEmulator(sess)
	props := terminal.PropsFor(info)
	props.Width = float64(pty.Window.Width)
	w := terminal.NewWidget(s.Engine, emu, props, terminal.Options{
		Layout: terminal.Layout{Rows: s.Rows},
		OnError: func(err error) {
			_, _ = fmt.Fprintf(sess, "\r\n\x1b[31m%v\x1b[m\r\n", err)
		},
		OnClose: cancel,
	})

	go terminal.Follow(ctx, s.Engine, w, id, s.FollowInterval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case win, ok := <-winCh:
				if !ok {
					return
				}
				w.Resize(float64(win.Width))
			}
		}
	}()

	log.Info("ssh console opened", "term", pty.Term, "cols", pty.Window.Width)
	_ = w.Run(ctx)
	log.Info("ssh console closed")
	_ = sess.Exit(0)
}
