package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// client wraps the engine's HTTP API.
type client struct {
	address string
	network string
	dialTo  string
	prefix  string
	baseURL *url.URL
	http    *http.Client
}

func newClient(address, apiVersion string, timeout time.Duration) (*client, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return nil, errors.New("engine address is required")
	}
	ver := strings.Trim(strings.TrimSpace(apiVersion), "/")
	if ver == "" {
		return nil, errors.New("engine api version is required")
	}
	ep, err := parseAddress(addr)
	if err != nil {
		return nil, err
	}
	return &client{
		address: addr,
		network: ep.network,
		dialTo:  ep.dialTo,
		prefix:  "/" + ver + "/libpod",
		baseURL: ep.baseURL,
		http: &http.Client{
			Transport: ep.transport,
			Timeout:   timeout,
		},
	}, nil
}

type endpoint struct {
	network   string
	dialTo    string
	baseURL   *url.URL
	transport *http.Transport
}

func parseAddress(addr string) (endpoint, error) {
	if strings.HasPrefix(addr, "unix://") {
		socket := strings.TrimPrefix(addr, "unix://")
		if socket == "" {
			return endpoint{}, errors.New("engine unix socket path is required")
		}
		transport := &http.Transport{
			DisableCompression: true,
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return (&net.Dialer{}).DialContext(ctx, "unix", socket)
			},
		}
		baseURL, _ := url.Parse("http://unix")
		return endpoint{network: "unix", dialTo: socket, baseURL: baseURL, transport: transport}, nil
	}
	if strings.HasPrefix(addr, "tcp://") {
		addr = "http://" + strings.TrimPrefix(addr, "tcp://")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	baseURL, err := url.Parse(addr)
	if err != nil {
		return endpoint{}, err
	}
	if baseURL.Host == "" {
		return endpoint{}, fmt.Errorf("engine address %q has no host", addr)
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return endpoint{network: "tcp", dialTo: baseURL.Host, baseURL: baseURL, transport: transport}, nil
}

func (c *client) do(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	if c == nil || c.http == nil || c.baseURL == nil {
		return nil, errors.New("engine client not initialized")
	}
	if query == nil {
		query = url.Values{}
	}
	reqURL := *c.baseURL
	reqURL.Path = path.Join(c.prefix, strings.TrimPrefix(endpoint, "/"))
	reqURL.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}

// apiErrorBody is the JSON error payload returned by libpod endpoints.
type apiErrorBody struct {
	Cause    string `json:"cause"`
	Message  string `json:"message"`
	Response int    `json:"response"`
}

func readAPIError(res *http.Response) error {
	if res == nil {
		return &APIError{Status: http.StatusInternalServerError, Message: "engine API error"}
	}
	data, _ := io.ReadAll(io.LimitReader(res.Body, 64*1024))
	apiErr := &APIError{Status: res.StatusCode}
	var body apiErrorBody
	if err := json.Unmarshal(data, &body); err == nil && (body.Message != "" || body.Cause != "") {
		apiErr.Message = strings.TrimSpace(body.Message)
		apiErr.Reason = strings.TrimSpace(body.Cause)
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = res.Status
	}
	return apiErr
}

func candidateAddresses(primary string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	add(primary)

	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir != "" {
		add(fmt.Sprintf("unix://%s", path.Join(runtimeDir, "podman", "podman.sock")))
	}
	userRunDir := path.Join("/run", "user", fmt.Sprintf("%d", os.Getuid()))
	if userRunDir != runtimeDir {
		add(fmt.Sprintf("unix://%s", path.Join(userRunDir, "podman", "podman.sock")))
	}
	add("unix:///run/podman/podman.sock")
	return out
}
