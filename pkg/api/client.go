package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/tableorder/pkg/config"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	HeaderTenant    = "X-Tenant-Subdomain"
	HeaderRequestID = "X-Request-ID"
)

// TokenSource supplies the bearer token for authenticated calls. An empty
// token sends the request anonymously.
type TokenSource interface {
	AccessToken() string
}

type Options struct {
	BaseURL    string
	Tenant     string
	Timeout    time.Duration
	Breaker    config.BreakerConfig
	HTTPClient *http.Client
}

// Client talks to the restaurant ordering REST API. Every response is the
// {success, message, data} envelope.
type Client struct {
	baseURL string
	tenant  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *zap.Logger

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func(error)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func New(opts Options, logger *zap.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		tenant:  opts.Tenant,
		http:    httpClient,
		logger:  logger.Named("api"),
	}

	if opts.Breaker.Enabled {
		threshold := opts.Breaker.ConsecutiveFailures
		if threshold == 0 {
			threshold = 5
		}
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:    "ordering-api",
			Timeout: opts.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return c
}

func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers fn to be called when a response says the access
// token is expired or invalid.
func (c *Client) OnUnauthorized(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tenant != "" {
		req.Header.Set(HeaderTenant, c.tenant)
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())

	c.mu.RLock()
	tokens, hook := c.tokens, c.onUnauthorized
	c.mu.RUnlock()
	if tokens != nil {
		if tok := tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.send(req)
	if err != nil {
		c.logger.Warn("Request failed", zap.String("op", op), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	c.logger.Debug("Request completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if len(bytes.TrimSpace(raw)) == 0 && resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest || (decodeErr == nil && !env.Success) {
		be := &BackendError{Status: resp.StatusCode, Message: backendMessage(env, resp.StatusCode)}
		if IsTokenInvalid(be) && hook != nil {
			hook(be)
		}
		return be
	}
	if decodeErr != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, decodeErr)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: failed to decode data: %w", op, err)
		}
	}
	return nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.http.Do(req)
	}
	return c.breaker.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
}

func backendMessage(env envelope, status int) string {
	switch {
	case env.Message != "":
		return env.Message
	case env.Error != "":
		return env.Error
	case status >= http.StatusBadRequest:
		return http.StatusText(status)
	default:
		return "request failed"
	}
}
