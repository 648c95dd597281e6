package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"pkt.systems/ctrconsole/internal/channel"
	"pkt.systems/ctrconsole/schema"
	"pkt.systems/pslog"
)

// Config configures the engine client.
type Config struct {
	Address     string
	APIVersion  string
	Timeout     time.Duration
	ExecCommand []string
}

// Client talks to a Podman-compatible engine over its REST API.
type Client struct {
	client      *client
	execCommand []string
}

// New constructs a client, trying fallback socket paths if the configured
// address does not answer.
func New(ctx context.Context, cfg Config) (*Client, error) {
	log := pslog.Ctx(ctx).With("component", "engine")
	var lastErr error
	for _, addr := range candidateAddresses(cfg.Address) {
		log.Debug("engine connect attempt", "address", addr)
		cl, err := newClient(addr, cfg.APIVersion, cfg.Timeout)
		if err != nil {
			log.Warn("engine connect failed", "address", addr, "err", err)
			lastErr = err
			continue
		}
		c := &Client{client: cl, execCommand: execCommandOrDefault(cfg.ExecCommand)}
		if err := c.Ping(ctx); err != nil {
			log.Warn("engine ping failed", "address", addr, "err", err)
			lastErr = err
			continue
		}
		log.Info("engine ready", "address", addr, "prefix", cl.prefix)
		return c, nil
	}
	if lastErr == nil {
		lastErr = errors.New("engine address not configured")
	}
	return nil, lastErr
}

// NewWithAddress constructs a client for exactly one address without probing it.
func NewWithAddress(cfg Config) (*Client, error) {
	cl, err := newClient(cfg.Address, cfg.APIVersion, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{client: cl, execCommand: execCommandOrDefault(cfg.ExecCommand)}, nil
}

func execCommandOrDefault(cmd []string) []string {
	if len(cmd) == 0 {
		return []string{"/bin/sh"}
	}
	return append([]string(nil), cmd...)
}

// Address returns the engine address in use.
func (c *Client) Address() string { return c.client.address }

// VersionPrefix returns the version-prefixed REST root, e.g. "/v1.12/libpod".
func (c *Client) VersionPrefix() string { return c.client.prefix }

// Ping checks that the engine answers.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.client.do(ctx, http.MethodGet, "/_ping", nil, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return readAPIError(res)
	}
	return nil
}

// CommitContainer snapshots a container into a new image.
func (c *Client) CommitContainer(ctx context.Context, req schema.CommitRequest) error {
	query := url.Values{}
	query.Set("container", string(req.Container))
	query.Set("repo", req.Repo)
	if req.Tag != "" {
		query.Set("tag", req.Tag)
	}
	query.Set("author", req.Author)
	query.Set("pause", strconv.FormatBool(req.Pause))
	format := req.Format
	if format == "" {
		format = schema.CommitFormat
	}
	query.Set("format", format)
	for _, change := range req.Changes {
		query.Add("changes", change)
	}
	res, err := c.client.do(ctx, http.MethodPost, "/commit", query, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return readAPIError(res)
	}
	return nil
}

// ExecContainer creates an interactive exec instance and returns its id.
func (c *Client) ExecContainer(ctx context.Context, id schema.ContainerID) (schema.ExecCreateResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"AttachStdin":  true,
		"AttachStdout": true,
		"AttachStderr": true,
		"Tty":          true,
		"Cmd":          c.execCommand,
	})
	if err != nil {
		return schema.ExecCreateResponse{}, err
	}
	res, err := c.client.do(ctx, http.MethodPost, fmt.Sprintf("/containers/%s/exec", url.PathEscape(string(id))), nil, bytes.NewReader(payload), "application/json")
	if err != nil {
		return schema.ExecCreateResponse{}, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return schema.ExecCreateResponse{}, readAPIError(res)
	}
	var resp schema.ExecCreateResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return schema.ExecCreateResponse{}, err
	}
	if resp.ID == "" {
		return schema.ExecCreateResponse{}, errors.New("engine exec did not return id")
	}
	return resp, nil
}

// ResizeContainersTTY tells the engine about a new terminal size. Attach
// sessions resize the container TTY; exec sessions resize the exec instance.
func (c *Client) ResizeContainersTTY(ctx context.Context, id schema.SessionID, isTTY bool, cols, rows int) error {
	kind := "exec"
	if isTTY {
		kind = "containers"
	}
	query := url.Values{}
	query.Set("h", strconv.Itoa(rows))
	query.Set("w", strconv.Itoa(cols))
	res, err := c.client.do(ctx, http.MethodPost, fmt.Sprintf("/%s/%s/resize", kind, url.PathEscape(string(id))), query, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return readAPIError(res)
	}
	return nil
}

type inspectContainer struct {
	ID     string          `json:"Id"`
	Name   string          `json:"Name"`
	Config json.RawMessage `json:"Config"`
	State  struct {
		Status  string `json:"Status"`
		Running bool   `json:"Running"`
	} `json:"State"`
}

// InspectContainer looks up a container by id or name.
func (c *Client) InspectContainer(ctx context.Context, id schema.ContainerID) (schema.ContainerInfo, error) {
	res, err := c.client.do(ctx, http.MethodGet, fmt.Sprintf("/containers/%s/json", url.PathEscape(string(id))), nil, nil, "")
	if err != nil {
		return schema.ContainerInfo{}, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return schema.ContainerInfo{}, readAPIError(res)
	}
	var inspect inspectContainer
	if err := json.NewDecoder(res.Body).Decode(&inspect); err != nil {
		return schema.ContainerInfo{}, err
	}
	// Config is an image config plus the runtime Tty flag.
	var cfg ocispec.ImageConfig
	var tty struct {
		Tty bool `json:"Tty"`
	}
	if len(inspect.Config) > 0 {
		if err := json.Unmarshal(inspect.Config, &cfg); err != nil {
			return schema.ContainerInfo{}, err
		}
		if err := json.Unmarshal(inspect.Config, &tty); err != nil {
			return schema.ContainerInfo{}, err
		}
	}
	status := strings.ToLower(strings.TrimSpace(inspect.State.Status))
	if status == "" && inspect.State.Running {
		status = string(schema.StatusRunning)
	}
	return schema.ContainerInfo{
		ID:     schema.ContainerID(inspect.ID),
		Name:   strings.TrimPrefix(inspect.Name, "/"),
		Status: schema.ContainerStatus(status),
		TTY:    tty.Tty,
		Config: cfg,
	}, nil
}

// ListImages returns the local images.
func (c *Client) ListImages(ctx context.Context) ([]schema.ImageSummary, error) {
	res, err := c.client.do(ctx, http.MethodGet, "/images/json", nil, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return nil, readAPIError(res)
	}
	var images []schema.ImageSummary
	if err := json.NewDecoder(res.Body).Decode(&images); err != nil {
		return nil, err
	}
	return images, nil
}

// OpenChannel dials a raw stream channel to the engine socket. The caller
// writes the HTTP request itself (see AttachRequest and ExecStartRequest).
func (c *Client) OpenChannel(ctx context.Context) (channel.Channel, error) {
	return channel.Dial(ctx, c.client.network, c.client.dialTo)
}
