package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/notifyadmin/internal/credential"
	"github.com/nhle/notifyadmin/internal/model"
)

// maxErrorBody caps how much of a non-JSON error body ends up in a message.
const maxErrorBody = 200

// Client is a thin HTTP client for the admin notification endpoints.
// It attaches the bearer token, marshals JSON bodies and unwraps the
// {success, data, error} envelope. It never retries.
type Client struct {
	baseURL    string
	tokens     credential.TokenSource
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a new admin API client. The baseURL is the API root
// (e.g., https://growfun-backend.onrender.com/api). The token source is
// consulted on every request.
func NewClient(baseURL string, tokens credential.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListNotifications fetches every admin notification, newest first as
// ordered by the server.
func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	var out []model.Notification
	if err := c.do(ctx, http.MethodGet, listPath, nil, &out, "Failed to fetch notifications"); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	if out == nil {
		out = []model.Notification{}
	}
	return out, nil
}

// SendNotification creates and dispatches a notification, returning the
// record the server stored (including its recipient count).
func (c *Client) SendNotification(ctx context.Context, req model.SendRequest) (*model.Notification, error) {
	var out model.Notification
	if err := c.do(ctx, http.MethodPost, sendPath, req, &out, "Failed to send notification"); err != nil {
		return nil, fmt.Errorf("sending notification: %w", err)
	}
	return &out, nil
}

// DeleteNotification removes a notification by id and returns the
// server's confirmation message.
func (c *Client) DeleteNotification(ctx context.Context, id int64) (string, error) {
	var out DeleteResult
	path := fmt.Sprintf(deletePath, id)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out, "Failed to delete notification"); err != nil {
		return "", fmt.Errorf("deleting notification %d: %w", id, err)
	}
	return out.Message, nil
}

// do builds the request, sends it once and decodes the envelope's data
// into result. fallback is the failure message used when the server
// does not provide one.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
	fallback string,
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	// A missing token is not checked here; the server answers 401.
	token, tokErr := c.token()
	if tokErr != nil {
		log.Printf("no admin token available for %s %s: %v", method, path, tokErr)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{
			StatusCode: resp.StatusCode,
			Message:    authMessage(env, respBody),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(env.Error)
		if decodeErr != nil || msg == "" {
			msg = fallbackMessage(fallback, respBody, decodeErr == nil)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    msg,
		}
	}

	if decodeErr != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, decodeErr)
	}

	if !env.Success {
		msg := string(env.Error)
		if msg == "" {
			msg = fallback
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    msg,
		}
	}

	if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unmarshaling data from %s %s: %w", method, path, err)
	}

	return nil
}

func (c *Client) token() (string, error) {
	if c.tokens == nil {
		return "", credential.ErrNotFound
	}
	return c.tokens.Token()
}

// authMessage picks the most specific reason the server gave for
// rejecting the credential.
func authMessage(env envelope, raw []byte) string {
	if env.Error != "" {
		return string(env.Error)
	}
	var d detailBody
	if json.Unmarshal(raw, &d) == nil && d.Detail != "" {
		return d.Detail
	}
	return "authentication failed: check the admin token"
}

// fallbackMessage describes a failure whose body carries no usable error.
func fallbackMessage(fallback string, raw []byte, wasJSON bool) string {
	if wasJSON {
		return fallback
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fallback
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return fallback + ": " + text
}
