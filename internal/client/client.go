package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"beacon/internal/config"
	"beacon/internal/types"
)

// sendTimeout covers the daemon-side retry schedule plus the per-attempt
// wrapper timeouts.
const sendTimeout = 45 * time.Second

// Client talks to the daemon's control surface. The base URL follows the
// settings file, which the daemon rewrites whenever the hook port migrates.
type Client struct {
	baseURL string
	http    *http.Client
}

func New() (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithBaseURL(fmt.Sprintf("http://127.0.0.1:%d", cfg.HookPort())), nil
}

func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]*types.Session, error) {
	var resp SessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) GetSession(ctx context.Context, idOrPrefix string) (*types.Session, error) {
	var session types.Session
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions/"+strings.TrimSpace(idOrPrefix), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) ClearSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/sessions/"+strings.TrimSpace(id), nil, nil)
}

// SendInput pushes text at a session. The daemon may walk the whole
// wrapper retry schedule before answering, so this call gets a budget well
// past the default client timeout.
func (c *Client) SendInput(ctx context.Context, idOrPrefix, text string) (bool, error) {
	path := fmt.Sprintf("/v1/sessions/%s/send", strings.TrimSpace(idOrPrefix))
	var resp SendInputResponse
	if err := c.doJSONWithTimeout(ctx, http.MethodPost, path, SendInputRequest{Text: text}, &resp, sendTimeout); err != nil {
		return false, err
	}
	return resp.Delivered, nil
}

// ConsumeInput drains the drop-box entry for a session, if any. The wrapper
// polls this after noticing queued input on disk.
func (c *Client) ConsumeInput(ctx context.Context, id string) (string, bool, error) {
	path := fmt.Sprintf("/v1/sessions/%s/input", strings.TrimSpace(id))
	var resp PendingInputResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", false, err
	}
	return resp.Input, resp.Pending, nil
}

// Target returns the session an unaddressed reply would go to, or nil when
// nothing is waiting or active.
func (c *Client) Target(ctx context.Context) (*types.Session, error) {
	var session types.Session
	if err := c.doJSON(ctx, http.MethodGet, "/v1/target", nil, &session); err != nil {
		if apiErr := asAPIError(err); apiErr != nil && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (c *Client) Reply(ctx context.Context, text, channel string) (string, error) {
	var resp ReplyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/reply", ReplyRequest{Text: text, Channel: channel}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	return c.doJSONWithClient(ctx, method, path, body, out, c.http)
}

func (c *Client) doJSONWithTimeout(ctx context.Context, method, path string, body any, out any, timeout time.Duration) error {
	client := c.http
	if timeout > 0 {
		client = &http.Client{
			Timeout:   timeout,
			Transport: c.http.Transport,
		}
	}
	return c.doJSONWithClient(ctx, method, path, body, out, client)
}

func (c *Client) doJSONWithClient(ctx context.Context, method, path string, body any, out any, httpClient *http.Client) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error string `json:"error"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
