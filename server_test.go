package ctrconsole

import (
	"context"
	"errors"
	"testing"
	"time"

	"pkt.systems/ctrconsole/httpapi"
	"pkt.systems/ctrconsole/internal/channel"
	"pkt.systems/ctrconsole/schema"
)

type nopEngine struct{}

func (nopEngine) VersionPrefix() string { return "/v1.12/libpod" }

func (nopEngine) OpenChannel(context.Context) (channel.Channel, error) {
	return nil, errors.New("not implemented")
}

func (nopEngine) ExecContainer(context.Context, schema.ContainerID) (schema.ExecCreateResponse, error) {
	return schema.ExecCreateResponse{}, errors.New("not implemented")
}

func (nopEngine) ResizeContainersTTY(context.Context, schema.SessionID, bool, int, int) error {
	return nil
}

func (nopEngine) InspectContainer(context.Context, schema.ContainerID) (schema.ContainerInfo, error) {
	return schema.ContainerInfo{}, errors.New("not implemented")
}

func (nopEngine) ListImages(context.Context) ([]schema.ImageSummary, error) { return nil, nil }

func (nopEngine) CommitContainer(context.Context, schema.CommitRequest) error { return nil }

func TestNewRequiresAService(t *testing.T) {
	if _, err := New(ServerConfig{}, nopEngine{}); err == nil {
		t.Fatalf("expected error without services")
	}
	if _, err := New(ServerConfig{}, nil, WithHTTP()); err == nil {
		t.Fatalf("expected error without engine")
	}
}

func TestServerStartStop(t *testing.T) {
	srv, err := New(ServerConfig{
		HTTP:           httpapi.Config{Addr: "127.0.0.1:0"},
		FollowInterval: time.Second,
	}, nopEngine{}, WithHTTP())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Wait(); err == nil {
		t.Fatalf("expected Wait to fail before Start")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected second Start to fail")
	}
	waitErr := make(chan error, 1)
	go func() { waitErr <- srv.Wait() }()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-waitErr:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Wait did not return after Stop")
	}
}

func TestServerWaitReportsListenFailure(t *testing.T) {
	srv, err := New(ServerConfig{HTTP: httpapi.Config{Addr: "256.0.0.1:bad"}}, nopEngine{}, WithHTTP())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := srv.Wait(); err == nil {
		t.Fatalf("expected listen failure from Wait")
	}
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	srv, err := New(ServerConfig{}, nopEngine{}, WithSSH())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
