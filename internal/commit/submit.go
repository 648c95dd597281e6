package commit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"pkt.systems/ctrconsole/internal/engine"
	"pkt.systems/ctrconsole/internal/logx"
	"pkt.systems/ctrconsole/schema"
)

// Engine is the part of the engine client a commit needs.
type Engine interface {
	ListImages(ctx context.Context) ([]schema.ImageSummary, error)
	CommitContainer(ctx context.Context, req schema.CommitRequest) error
}

// CommitError is a failed commit call, split into a headline and the raw
// engine detail for display.
type CommitError struct {
	Message string
	Detail  string
	Err     error
}

func (e *CommitError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

// Unwrap exposes both the commit failure class and the engine error.
func (e *CommitError) Unwrap() []error {
	return []error{schema.ErrCommitFailed, e.Err}
}

// Submitter validates and submits commits. A Submitter may be reused after a
// failure; it never retries on its own.
type Submitter struct {
	engine     Engine
	inProgress atomic.Bool
}

// NewSubmitter returns a submitter backed by eng.
func NewSubmitter(eng Engine) *Submitter {
	return &Submitter{engine: eng}
}

// InProgress reports whether a commit call is outstanding.
func (s *Submitter) InProgress() bool {
	return s.inProgress.Load()
}

// Submit builds the request for container and issues exactly one commit call.
// Validation errors (see IsValidation) issue no call at all.
func (s *Submitter) Submit(ctx context.Context, container schema.ContainerInfo, opts schema.CommitOptions, force bool) (schema.CommitRequest, error) {
	log := logx.WithContainer(ctx, container.ID)
	if !s.inProgress.CompareAndSwap(false, true) {
		return schema.CommitRequest{}, fmt.Errorf("commit: %w", schema.ErrBusy)
	}
	defer s.inProgress.Store(false)

	if err := requireName(opts); err != nil {
		log.Info("commit rejected", "reason", err)
		return schema.CommitRequest{}, err
	}
	var images []schema.ImageSummary
	if !force {
		var err error
		images, err = s.engine.ListImages(ctx)
		if err != nil {
			log.Warn("commit image list failed", "err", err)
			return schema.CommitRequest{}, commitError(container, err)
		}
	}
	req, err := Build(container.ID, opts, images, force)
	if err != nil {
		log.Info("commit rejected", "reason", err)
		return schema.CommitRequest{}, err
	}

	start := time.Now()
	log.Info("commit start", "repo", req.Repo, "tag", req.Tag, "pause", req.Pause, "force", force)
	if err := s.engine.CommitContainer(ctx, req); err != nil {
		log.Warn("commit failed", "err", err, "duration_ms", time.Since(start).Milliseconds())
		return req, commitError(container, err)
	}
	log.Info("commit ok", "image", NormalizeName(req.Repo, req.Tag), "duration_ms", time.Since(start).Milliseconds())
	return req, nil
}

func commitError(container schema.ContainerInfo, err error) *CommitError {
	name := container.Name
	if name == "" {
		name = string(container.ID)
	}
	detail := err.Error()
	var apiErr *engine.APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.Message + ": " + apiErr.Reason
	}
	return &CommitError{
		Message: fmt.Sprintf("Failed to commit container %s", name),
		Detail:  detail,
		Err:     err,
	}
}
