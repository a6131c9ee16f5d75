package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Command timeouts. Activation carries a longer budget than stop because a
// stop must stay cheap on the best-effort cancellation path.
const (
	ActivateTimeout = 10 * time.Second
	StopTimeout     = 5 * time.Second

	maxResponseBytes = 4 << 10
)

// ActivateCommand is the JSON body POSTed to the pump controller's
// /pump/activate endpoint.
type ActivateCommand struct {
	Action       string   `json:"action"`
	DurationSec  int      `json:"duration"`
	WaterAmountL *float64 `json:"waterAmount,omitempty"`
	OperationID  string   `json:"operationId"`
}

// StopCommand is the JSON body POSTed to /pump/deactivate.
type StopCommand struct {
	Action      string `json:"action"`
	OperationID string `json:"operationId"`
}

// Client sends pump commands to a greenhouse's control device. Any non-2xx
// response or transport error is a hard failure for that call.
type Client interface {
	Activate(ctx context.Context, addr string, cmd ActivateCommand) (string, error)
	Stop(ctx context.Context, addr string, cmd StopCommand) error
}

// HTTPClient talks to the firmware's HTTP control endpoints.
type HTTPClient struct {
	client *http.Client
}

func NewHTTPClient() *HTTPClient {
	// Per-call deadlines come from the caller's context; the client-level
	// timeout is only a backstop.
	return &HTTPClient{client: &http.Client{Timeout: ActivateTimeout + time.Second}}
}

var _ Client = (*HTTPClient)(nil)

// Activate commands the pump on and returns the raw device response body.
func (c *HTTPClient) Activate(ctx context.Context, addr string, cmd ActivateCommand) (string, error) {
	cmd.Action = "activate"
	return c.post(ctx, addr, "/pump/activate", cmd)
}

// Stop commands the pump off. The response body is not of interest here.
func (c *HTTPClient) Stop(ctx context.Context, addr string, cmd StopCommand) error {
	cmd.Action = "deactivate"
	_, err := c.post(ctx, addr, "/pump/deactivate", cmd)
	return err
}

func (c *HTTPClient) post(ctx context.Context, addr, path string, body any) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode device command: %w", err)
	}

	url := "http://" + addr + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("build device request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("device call %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read device response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(raw), fmt.Errorf("device returned status %d: %s", resp.StatusCode, string(raw))
	}
	return string(raw), nil
}
