package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/opsnest/adminshell/internal/model"
)

// HTTPTransport is the non-streaming remote transport from spec.md
// §4.9: POST /runtime/command/execute, GET /ping, optional GET
// /runtime/health.
type HTTPTransport struct {
	baseURL   string
	client    *http.Client
	connected atomic.Bool
}

// NewHTTPTransport builds a transport against baseURL (e.g.
// "http://localhost:9090").
func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Connect for HTTP is a reachability probe: a non-2xx /ping marks the
// transport unconnected without treating it as a hard error, so a
// caller can still run built-ins offline.
func (t *HTTPTransport) Connect(ctx context.Context) error {
	t.connected.Store(t.Ping(ctx))
	return nil
}

func (t *HTTPTransport) Disconnect() error {
	t.connected.Store(false)
	return nil
}

func (t *HTTPTransport) IsConnected() bool { return t.connected.Load() }

func (t *HTTPTransport) Endpoint() string { return t.baseURL }

func (t *HTTPTransport) Info() map[string]any {
	return map[string]any{
		"transport": "http",
		"base_url":  t.baseURL,
		"connected": t.connected.Load(),
	}
}

// Send POSTs the command to /runtime/command/execute. Options are
// serialized into the args list as "--k=v" (string values) or "--flag"
// (bool true), matching spec.md §4.9.
func (t *HTTPTransport) Send(ctx context.Context, cmd model.ParsedCommand) (model.CommandResult, error) {
	args := append([]string{}, cmd.Args...)
	for k, v := range cmd.Options {
		switch val := v.(type) {
		case bool:
			if val {
				args = append(args, "--"+k)
			}
		default:
			args = append(args, fmt.Sprintf("--%s=%v", k, val))
		}
	}

	body, err := json.Marshal(map[string]any{"command": cmd.Command, "args": args})
	if err != nil {
		return model.CommandResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/runtime/command/execute", bytes.NewReader(body))
	if err != nil {
		return model.CommandResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return model.Failure(err.Error(), nil, map[string]any{
			"exception":  fmt.Sprintf("%T", err),
			"server_url": t.baseURL,
		}), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Failure(fmt.Sprintf("server returned status %d", resp.StatusCode), nil, map[string]any{
			"status_code": resp.StatusCode,
			"server_url":  t.baseURL,
		}), nil
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return model.Failure("invalid response body", nil, map[string]any{
			"exception":  fmt.Sprintf("%T", err),
			"server_url": t.baseURL,
		}), nil
	}
	return model.FromResponse(decoded), nil
}

func (t *HTTPTransport) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

var _ Transport = (*HTTPTransport)(nil)
