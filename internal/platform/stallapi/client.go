// Package stallapi is the REST and WebSocket client for the campus
// stall-bidding backend. It exposes typed wrappers over the backend's
// endpoints and maps its loosely-shaped JSON payloads into domain types.
package stallapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/campusbid/stallbid/internal/domain"
)

// TokenSource supplies the bearer token attached to authenticated requests.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource backed by a fixed string.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client is the REST client for the stall-bidding backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// NewClient creates a backend client rooted at baseURL, e.g.
// "https://api.campusbid.example.com/api". tokens may be nil for
// unauthenticated use (public stall browsing).
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		tokens: tokens,
	}
}

// WithLogger attaches a logger used for normalization warnings (dropped
// malformed records). Without one, drops are silent.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger.With(slog.String("component", "stallapi"))
	return c
}

// WithTimeout overrides the default per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

// apiError is the backend's error envelope. Some endpoints use "message",
// others "error"; both are accepted.
type apiError struct {
	Message string `json:"message"`
	Error_  string `json:"error"`
}

func (e apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error_
}

// do performs an HTTP request against the backend, decorates it with the
// bearer token and a request ID, and returns the raw response body. Non-2xx
// statuses are mapped onto domain sentinel errors with the backend's own
// message preserved in the wrap.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("stallapi: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("stallapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stallapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stallapi: read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	var apiErr apiError
	_ = json.Unmarshal(respBody, &apiErr)
	msg := apiErr.text()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("stallapi: %s %s: %s: %w", method, path, msg, domain.ErrUnauthorized)
	case http.StatusForbidden:
		return nil, fmt.Errorf("stallapi: %s %s: %s: %w", method, path, msg, domain.ErrForbidden)
	case http.StatusNotFound:
		return nil, fmt.Errorf("stallapi: %s %s: %s: %w", method, path, msg, domain.ErrNotFound)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("stallapi: %s %s: %s: %w", method, path, msg, domain.ErrRateLimited)
	default:
		return nil, fmt.Errorf("stallapi: %s %s: HTTP %d: %s", method, path, resp.StatusCode, msg)
	}
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("stallapi: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("stallapi: decode %s: %w", path, err)
	}
	return nil
}
