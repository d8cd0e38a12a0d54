// Package apiclient is the outbound HTTP adapter shared by every resource
// store and the auth session. It attaches the bearer token, decodes the
// backend's {data} / {message} envelopes, and reports 401/403 responses to a
// single auth-failure hook.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/hireline/internal/domain"
)

// DefaultTimeout is applied to every request when Options.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// RequestIDHeader carries a per-call id the backend can reuse in its logs.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a non-2xx body is read looking for a message.
const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client performs JSON and multipart calls against the REST backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger

	mu            sync.RWMutex
	token         string
	onAuthFailure func()
}

// ResponseError describes a non-2xx response or a transport failure
// (Status 0). Message is the backend-provided message, possibly empty.
type ResponseError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Cause   error
}

func (e *ResponseError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// New creates a Client. BaseURL is required and must be absolute.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc = &http.Client{Jar: jar}
	}
	hc.Timeout = timeout

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{baseURL: base, http: hc, logger: logger}, nil
}

// BaseURL returns a copy of the configured base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Jar returns the cookie jar used for outbound requests, or nil.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Timeout returns the fixed request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// SetToken installs the bearer token sent on every subsequent request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the default Authorization header.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnAuthFailure registers fn to run whenever an authenticated request is
// answered with 401 or 403. Only the last registered hook is kept.
func (c *Client) OnAuthFailure(fn func()) {
	c.mu.Lock()
	c.onAuthFailure = fn
	c.mu.Unlock()
}

// Get issues a GET and decodes the envelope's data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body (nil for no body).
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE. out may be nil.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return domain.NewAppError(domain.CodeInternal, "encode request body", err)
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, reader, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	target := c.resolve(path, query)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return networkError(&ResponseError{Method: method, Path: path, Cause: err})
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.mu.RLock()
	token := c.token
	hook := c.onAuthFailure
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return networkError(&ResponseError{Method: method, Path: path, Cause: err})
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "api request",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := &ResponseError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: readMessage(resp.Body),
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			// Requests made without a session (login itself) have no session to end.
			if token != "" && hook != nil {
				hook()
			}
			return domain.NewAppError(domain.CodeSessionExpired, messageOr(respErr.Message, "session expired"), respErr)
		}
		return networkError(respErr)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return networkError(&ResponseError{Method: method, Path: path, Status: resp.StatusCode, Cause: fmt.Errorf("decode response: %w", err)})
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return networkError(&ResponseError{Method: method, Path: path, Status: resp.StatusCode, Cause: fmt.Errorf("decode data: %w", err)})
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// BackendMessage returns the backend-provided message carried by err, or "".
func BackendMessage(err error) string {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Message
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status
	}
	return 0
}

func networkError(respErr *ResponseError) error {
	msg := respErr.Message
	if msg == "" {
		if respErr.Status != 0 {
			msg = http.StatusText(respErr.Status)
		} else {
			msg = "network error"
		}
	}
	return domain.NewAppError(domain.CodeNetwork, msg, respErr)
}

func readMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
