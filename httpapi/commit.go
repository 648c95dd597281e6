package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"pkt.systems/ctrconsole/internal/commit"
	"pkt.systems/ctrconsole/schema"
)

const maxCommitBody = 64 << 10

type commitPayload struct {
	schema.CommitOptions
	Force bool `json:"force"`
}

type commitResponse struct {
	Image   string               `json:"image"`
	Request schema.CommitRequest `json:"request"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var payload commitPayload
	dec := json.NewDecoder(io.LimitReader(r.Body, maxCommitBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err))
		return
	}

	info, err := s.engine.InspectContainer(r.Context(), schema.ContainerID(r.PathValue("id")))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	sub, release := s.acquireSubmitter(info.ID)
	req, err := sub.Submit(r.Context(), info, payload.CommitOptions, payload.Force)
	release()
	var commitErr *commit.CommitError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, commitResponse{
			Image:   commit.NormalizeName(req.Repo, req.Tag),
			Request: req,
		})
	case commit.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "field": fieldFor(err)})
	case errors.As(err, &commitErr):
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": commitErr.Message, "detail": commitErr.Detail})
	default:
		writeError(w, statusFor(err), err)
	}
}

// fieldFor names the form field a validation error belongs to.
func fieldFor(err error) string {
	if errors.Is(err, schema.ErrNameRequired) || errors.Is(err, schema.ErrNameNotUnique) {
		return "image_name"
	}
	return "command"
}
