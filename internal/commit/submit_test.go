package commit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/ctrconsole/internal/engine"
	"pkt.systems/ctrconsole/schema"
)

type fakeEngine struct {
	mu        sync.Mutex
	images    []schema.ImageSummary
	listErr   error
	commitErr error
	commits   []schema.CommitRequest
	lists     int
	during    func()
}

func (f *fakeEngine) ListImages(ctx context.Context) ([]schema.ImageSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.images, f.listErr
}

func (f *fakeEngine) CommitContainer(ctx context.Context, req schema.CommitRequest) error {
	if f.during != nil {
		f.during()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, req)
	return f.commitErr
}

var web = schema.ContainerInfo{ID: "c1", Name: "web", Status: schema.StatusRunning}

func TestSubmitIssuesExactlyOneCommit(t *testing.T) {
	eng := &fakeEngine{}
	s := NewSubmitter(eng)

	req, err := s.Submit(context.Background(), web, schema.CommitOptions{ImageName: "app", Command: "sleep 1"}, false)
	require.NoError(t, err)
	require.Len(t, eng.commits, 1)
	assert.Equal(t, req, eng.commits[0])
	assert.False(t, s.InProgress())
}

func TestSubmitDuplicateIssuesNoRequest(t *testing.T) {
	eng := &fakeEngine{images: []schema.ImageSummary{{Names: []string{"localhost/app:latest"}}}}
	s := NewSubmitter(eng)

	_, err := s.Submit(context.Background(), web, schema.CommitOptions{ImageName: "app"}, false)
	assert.ErrorIs(t, err, schema.ErrNameNotUnique)
	assert.Empty(t, eng.commits)

	_, err = s.Submit(context.Background(), web, schema.CommitOptions{ImageName: "app"}, true)
	require.NoError(t, err)
	assert.Len(t, eng.commits, 1)
}

func TestSubmitMissingNameIssuesNoRequest(t *testing.T) {
	eng := &fakeEngine{}
	s := NewSubmitter(eng)

	_, err := s.Submit(context.Background(), web, schema.CommitOptions{}, true)
	assert.ErrorIs(t, err, schema.ErrNameRequired)
	assert.Empty(t, eng.commits)
}

func TestSubmitMissingNameSkipsImageList(t *testing.T) {
	eng := &fakeEngine{listErr: errors.New("socket gone")}
	s := NewSubmitter(eng)

	_, err := s.Submit(context.Background(), web, schema.CommitOptions{ImageName: "  "}, false)
	assert.ErrorIs(t, err, schema.ErrNameRequired)
	assert.True(t, IsValidation(err))
	var commitErr *CommitError
	assert.False(t, errors.As(err, &commitErr))
	assert.Zero(t, eng.lists)
	assert.Empty(t, eng.commits)
}

func TestSubmitFailureSurfacesMessageAndDetail(t *testing.T) {
	eng := &fakeEngine{commitErr: &engine.APIError{Status: 500, Message: "commit failed", Reason: "disk full"}}
	s := NewSubmitter(eng)

	_, err := s.Submit(context.Background(), web, schema.CommitOptions{ImageName: "app"}, false)
	require.Error(t, err)

	var commitErr *CommitError
	require.True(t, errors.As(err, &commitErr))
	assert.Equal(t, "Failed to commit container web", commitErr.Message)
	assert.Equal(t, "commit failed: disk full", commitErr.Detail)
	assert.ErrorIs(t, err, schema.ErrCommitFailed)
	assert.False(t, IsValidation(err))
	assert.False(t, s.InProgress(), "in-progress must clear after failure")
	assert.Len(t, eng.commits, 1, "no automatic retry")

	// The user may retry manually.
	eng.commitErr = nil
	_, err = s.Submit(context.Background(), web, schema.CommitOptions{ImageName: "app"}, false)
	require.NoError(t, err)
	assert.Len(t, eng.commits, 2)
}

func TestSubmitListFailure(t *testing.T) {
	eng := &fakeEngine{listErr: errors.New("socket gone")}
	s := NewSubmitter(eng)

	_, err := s.Submit(context.Background(), schema.ContainerInfo{ID: "c9"}, schema.CommitOptions{ImageName: "app"}, false)
	var commitErr *CommitError
	require.True(t, errors.As(err, &commitErr))
	assert.Equal(t, "Failed to commit container c9", commitErr.Message)
	assert.Equal(t, "socket gone", commitErr.Detail)
	assert.Empty(t, eng.commits)
}

func TestSubmitRejectsConcurrentSubmit(t *testing.T) {
	eng := &fakeEngine{}
	s := NewSubmitter(eng)
	var inner error
	eng.during = func() {
		assert.True(t, s.InProgress())
		_, inner = s.Submit(context.Background(), web, schema.CommitOptions{ImageName: "other"}, true)
	}

	_, err := s.Submit(context.Background(), web, schema.CommitOptions{ImageName: "app"}, true)
	require.NoError(t, err)
	assert.ErrorIs(t, inner, schema.ErrBusy)
	assert.False(t, IsValidation(inner))
	assert.Len(t, eng.commits, 1)
}
