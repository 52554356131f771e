package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 10 << 20

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 15 * time.Second

// Middleware wraps the client's transport.
type Middleware func(http.RoundTripper) http.RoundTripper

// Client talks to the backend.
type Client struct {
	base      *url.URL
	http      *http.Client
	token     string
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit limits outgoing requests. A zero limit disables limiting.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMiddleware wraps the transport. The first middleware is outermost.
func WithMiddleware(mws ...Middleware) Option {
	return func(c *Client) {
		rt := c.http.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		for i := len(mws) - 1; i >= 0; i-- {
			rt = mws[i](rt)
		}
		c.http.Transport = rt
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL %q must be http or https", baseURL)
	}
	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "dashkit",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// envelope is the read response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Get reads path and decodes the envelope's data into out. success=false
// is a status failure even on HTTP 200.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	op := http.MethodGet + " " + path
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return dasherrors.New(dasherrors.KindMalformed, op).Wrap(err)
	}
	if !env.Success {
		detail := env.Message
		if detail == "" {
			detail = "unsuccessful response"
		}
		return dasherrors.New(dasherrors.KindStatus, op).WithDetail(detail)
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return dasherrors.New(dasherrors.KindMalformed, op).WithDetail("missing data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return dasherrors.New(dasherrors.KindMalformed, op).Wrap(err)
	}
	return nil
}

// Post sends body as JSON and decodes the response entity into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.write(ctx, http.MethodPost, path, body, out)
}

// Patch sends body as JSON and decodes the response entity into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.write(ctx, http.MethodPatch, path, body, out)
}

// Delete sends an optional JSON body and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.write(ctx, http.MethodDelete, path, body, out)
}

func (c *Client) write(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return dasherrors.New(dasherrors.KindMalformed, op).WithDetail("encode request").Wrap(err)
		}
		payload = b
	}

	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(resp)) == 0 {
		if out != nil {
			return dasherrors.New(dasherrors.KindMalformed, op).WithDetail("empty response")
		}
		return nil
	}
	if !gjson.ValidBytes(resp) {
		return dasherrors.New(dasherrors.KindMalformed, op).WithDetail("invalid JSON")
	}

	if success := gjson.GetBytes(resp, "success"); success.Exists() && !success.Bool() {
		detail := gjson.GetBytes(resp, "message").String()
		if detail == "" {
			detail = "unsuccessful response"
		}
		return dasherrors.New(dasherrors.KindStatus, op).WithDetail(detail)
	}
	if out == nil {
		return nil
	}

	// Some writes answer with the read envelope.
	raw := resp
	if gjson.GetBytes(resp, "success").Exists() {
		if data := gjson.GetBytes(resp, "data"); data.Exists() {
			raw = []byte(data.Raw)
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dasherrors.New(dasherrors.KindMalformed, op).Wrap(err)
	}
	return nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	op := method + " " + path

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, dasherrors.FromTransport(op, err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return nil, dasherrors.New(dasherrors.KindPrecondition, op).WithDetail("invalid request").Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "op", op, "error", err)
		return nil, dasherrors.FromTransport(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, dasherrors.FromTransport(op, err)
	}

	c.logger.Debug("api request",
		"op", op,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, dasherrors.FromStatus(op, resp.StatusCode).WithDetail(errorMessage(data))
	}
	return data, nil
}

// resolve joins path onto the base URL, keeping any query string.
func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base.String() + path
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		msg := strings.TrimSpace(string(body))
		return truncate(msg, 200)
	}
	for _, path := range []string{"message", "error.message", "error", "detail"} {
		if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String {
			return r.String()
		}
	}
	return ""
}

// PathEscape escapes a single path segment.
func PathEscape(s string) string {
	return url.PathEscape(s)
}
