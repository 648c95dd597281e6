package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"pkt.systems/ctrconsole/internal/appconfig"
	"pkt.systems/ctrconsole/schema"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"attach", "commit", "serve", "config", "doctor", "version"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected root command to include %s", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "pkt.systems/ctrconsole ") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if strings.TrimSpace(out.String()) != path {
		t.Fatalf("expected written path, got %q", out.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	root = newRootCmd()
	root.SetArgs([]string{"config", "init", path})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected init to refuse an existing file")
	}

	root = newRootCmd()
	out.Reset()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show", "-c", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out.String(), "follow_seconds: 2") {
		t.Fatalf("expected effective config, got %q", out.String())
	}
}

func TestToServerConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.HTTP.BasePath = "/console"
	cfg.Terminal.FollowSeconds = 5
	got := toServerConfig(cfg)
	if got.HTTP.BasePath != "/console" || got.HTTP.Addr != cfg.HTTP.Addr {
		t.Fatalf("http config not carried over: %+v", got.HTTP)
	}
	if got.HTTP.Layout.Padding != appconfig.ConsolePadding || got.HTTP.Layout.Rows != 24 {
		t.Fatalf("unexpected layout %+v", got.HTTP.Layout)
	}
	if got.FollowInterval != 5*time.Second || got.HTTP.FollowInterval != 5*time.Second {
		t.Fatalf("unexpected follow interval %v", got.FollowInterval)
	}
	if got.SSH.AuthorizedKeysPath != cfg.SSH.AuthorizedKeysPath {
		t.Fatalf("ssh config not carried over: %+v", got.SSH)
	}
}

type fakeCommitEngine struct {
	info      schema.ContainerInfo
	images    []schema.ImageSummary
	commitErr error
	commits   []schema.CommitRequest
}

func (f *fakeCommitEngine) InspectContainer(ctx context.Context, id schema.ContainerID) (schema.ContainerInfo, error) {
	if id != f.info.ID {
		return schema.ContainerInfo{}, errors.New("no such container")
	}
	return f.info, nil
}

func (f *fakeCommitEngine) ListImages(ctx context.Context) ([]schema.ImageSummary, error) {
	return f.images, nil
}

func (f *fakeCommitEngine) CommitContainer(ctx context.Context, req schema.CommitRequest) error {
	f.commits = append(f.commits, req)
	return f.commitErr
}

func newFakeCommitEngine() *fakeCommitEngine {
	return &fakeCommitEngine{info: schema.ContainerInfo{
		ID:     "web",
		Name:   "web",
		Status: schema.StatusRunning,
		Config: ocispec.ImageConfig{Cmd: []string{"nginx", "-g", "daemon off;"}},
	}}
}

func TestRunCommitPrefillsContainerCommand(t *testing.T) {
	eng := newFakeCommitEngine()
	var stdout, stderr bytes.Buffer
	err := runCommit(context.Background(), &stdout, &stderr, eng, "web", schema.CommitOptions{ImageName: "snap"}, false, false)
	if err != nil {
		t.Fatalf("runCommit: %v", err)
	}
	if len(eng.commits) != 1 {
		t.Fatalf("expected one commit, got %d", len(eng.commits))
	}
	changes := eng.commits[0].Changes
	if len(changes) != 1 || changes[0] != `CMD ["nginx", "-g", "daemon off;"]` {
		t.Fatalf("unexpected changes %q", changes)
	}
	if got := strings.TrimSpace(stdout.String()); got != "localhost/snap:latest" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunCommitExplicitEmptyCommand(t *testing.T) {
	eng := newFakeCommitEngine()
	var stdout, stderr bytes.Buffer
	err := runCommit(context.Background(), &stdout, &stderr, eng, "web", schema.CommitOptions{ImageName: "snap"}, true, false)
	if err != nil {
		t.Fatalf("runCommit: %v", err)
	}
	if len(eng.commits[0].Changes) != 0 {
		t.Fatalf("expected no changes, got %q", eng.commits[0].Changes)
	}
}

func TestRunCommitPrintsFailure(t *testing.T) {
	eng := newFakeCommitEngine()
	eng.commitErr = errors.New("disk full")
	var stdout, stderr bytes.Buffer
	err := runCommit(context.Background(), &stdout, &stderr, eng, "web", schema.CommitOptions{ImageName: "snap"}, false, false)
	if !errors.Is(err, schema.ErrCommitFailed) {
		t.Fatalf("expected commit failure, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
	want := "Failed to commit container web\ndisk full\n"
	if stderr.String() != want {
		t.Fatalf("stderr = %q, want %q", stderr.String(), want)
	}
}

func TestRunCommitRequiresName(t *testing.T) {
	eng := newFakeCommitEngine()
	var stdout, stderr bytes.Buffer
	err := runCommit(context.Background(), &stdout, &stderr, eng, "web", schema.CommitOptions{}, false, true)
	if !errors.Is(err, schema.ErrNameRequired) {
		t.Fatalf("expected name required, got %v", err)
	}
	if len(eng.commits) != 0 {
		t.Fatalf("expected no commit call")
	}
}

func TestRunCommitUnknownContainer(t *testing.T) {
	eng := newFakeCommitEngine()
	var stdout, stderr bytes.Buffer
	if err := runCommit(context.Background(), &stdout, &stderr, eng, "db", schema.CommitOptions{ImageName: "snap"}, false, false); err == nil {
		t.Fatalf("expected inspect failure")
	}
}
