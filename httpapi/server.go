package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/containerd/errdefs"

	"pkt.systems/ctrconsole/internal/commit"
	"pkt.systems/ctrconsole/internal/terminal"
	"pkt.systems/ctrconsole/schema"
)

// Engine is what the HTTP front-end needs from the container engine.
type Engine interface {
	terminal.Engine
	terminal.Inspector
	commit.Engine
}

// Server serves the console API.
type Server struct {
	cfg      Config
	engine   Engine
	basePath string

	mu         sync.Mutex
	submitters map[schema.ContainerID]*submitterEntry
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, eng Engine) *Server {
	if cfg.FollowInterval <= 0 {
		cfg.FollowInterval = 2 * time.Second
	}
	if cfg.Layout.Rows <= 0 {
		cfg.Layout.Rows = terminal.DefaultRows
	}
	return &Server{
		cfg:        cfg,
		engine:     eng,
		basePath:   normalizeBasePath(cfg.BasePath),
		submitters: make(map[schema.ContainerID]*submitterEntry),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/containers/{id}", s.handleContainer)
	mux.HandleFunc("GET /api/containers/{id}/terminal", s.handleTerminal)
	mux.HandleFunc("POST /api/containers/{id}/commit", s.handleCommit)
	return mountAt(s.basePath, withRequestLogging(mux))
}

type submitterEntry struct {
	sub   *commit.Submitter
	users int
}

// acquireSubmitter returns the container's submitter so a container commits
// at most once at a time. The entry lives until the last user releases it.
func (s *Server) acquireSubmitter(id schema.ContainerID) (*commit.Submitter, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.submitters[id]
	if !ok {
		entry = &submitterEntry{sub: commit.NewSubmitter(s.engine)}
		s.submitters[id] = entry
	}
	entry.users++
	return entry.sub, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry.users--
		if entry.users == 0 {
			delete(s.submitters, id)
		}
	}
}

func (s *Server) submitterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submitters)
}

type containerResponse struct {
	ID      schema.ContainerID     `json:"id"`
	Name    string                 `json:"name"`
	Status  schema.ContainerStatus `json:"status"`
	TTY     bool                   `json:"tty"`
	Command string                 `json:"command"`
}

func (s *Server) handleContainer(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.InspectContainer(r.Context(), schema.ContainerID(r.PathValue("id")))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, containerResponse{
		ID:      info.ID,
		Name:    info.Name,
		Status:  info.Status,
		TTY:     info.TTY,
		Command: commit.QuoteCmdline(info.Config.Cmd),
	})
}

// statusFor maps engine error classes onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	case errdefs.IsConflict(err):
		return http.StatusConflict
	case errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
