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

	"github.com/sethvargo/go-retry"

	"github.com/nixixoo/Notex/internal/common"
	"github.com/nixixoo/Notex/internal/logging"
)

// TokenSource supplies the bearer token for outbound requests. It reports
// ok=false when no token must be sent (guest mode, or no stored credential).
type TokenSource interface {
	Token(ctx context.Context) (token string, ok bool)
}

// Client performs typed JSON requests against the Notex API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger

	retryBase   time.Duration
	maxAttempts uint64
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRetryBase overrides the initial backoff delay. Tests use a tiny value.
func WithRetryBase(d time.Duration) Option {
	return func(c *Client) { c.retryBase = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: 30 * time.Second},
		log:         logging.Discard(),
		retryBase:   200 * time.Millisecond,
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the single response shape of the API. Data holds the typed
// payload; Message and Error carry human-readable text on failures.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// do runs one request with bounded retry on transient failures.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(c.maxAttempts-1, retry.NewExponential(c.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.once(ctx, method, path, payload, out)
		if errors.Is(err, common.ErrUnavailable) {
			c.log.Warn(ctx, "transient api error, retrying", "method", method, "path", path, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, out any) error {
	c.log.Debug(ctx, "api request", "method", method, "path", path)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Do not mask the caller's own cancellation as a server problem.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			// A failure with an unreadable body still maps by status.
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := env.Error
		if message == "" {
			message = env.Message
		}
		return newAPIError(resp.StatusCode, message)
	}

	if out == nil {
		return nil
	}
	if env.Data == nil {
		return fmt.Errorf("response has no data field")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
