// Package services talks to chessbook's HTTP collaborators: the PDF
// renderer, diagram detector, position recognizer, move-text extractor and
// the remote study store. Every call goes through a per-service circuit
// breaker and a shared rate limiter, and responses are validated before
// they reach the runtime.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/metrics"
)

// Service names used for breakers, logs and metrics.
const (
	ServicePDF         = "pdf"
	ServiceDetector    = "detector"
	ServiceRecognition = "recognition"
	ServiceExtractor   = "extractor"
	ServiceStudies     = "studies"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond limits outbound calls; 0 disables the limit.
	RequestsPerSecond float64
	// CacheTTL keeps recognition results; 0 disables the cache.
	CacheTTL time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
}

// Client is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	validate *validator.Validate
	cache    *cache.Cache
	logger   *logging.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New returns a Client for opts.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	burst := 0
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		validate: validator.New(),
		logger:   logger.With("component", "services"),
		metrics:  opts.Metrics,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
	if opts.CacheTTL > 0 {
		c.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return c
}

// breaker returns the circuit breaker for service, creating it on first use.
func (c *Client) breaker(service string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[service]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "service", name, "from", from.String(), "to", to.String())
		},
		// Rejected requests and cancellations say nothing about the
		// collaborator's health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.IsCanceled(err) {
				return true
			}
			var svcErr *errors.ServiceError
			if errors.As(err, &svcErr) && svcErr.StatusCode >= 400 && svcErr.StatusCode < 500 {
				return true
			}
			return false
		},
	})
	c.breakers[service] = cb
	return cb
}

// request describes one HTTP call.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

// call performs req against service and returns the response body.
func (c *Client) call(ctx context.Context, service string, req request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := c.breaker(service).Execute(func() (interface{}, error) {
		return c.send(ctx, service, req)
	})
	c.metrics.Observe(service, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = errors.NewServiceError("circuit open", err).WithService(service).WithEndpoint(req.path)
		}
		if !errors.IsCanceled(err) {
			c.metrics.Failure(service)
			c.logger.Warn("collaborator call failed",
				"service", service,
				"path", req.path,
				"severity", errors.GetSeverity(err).String(),
				"retryable", errors.IsRetryable(err),
				"error", err.Error())
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) send(ctx context.Context, service string, req request) ([]byte, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, errors.NewValidationError("invalid request").WithCause(err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		if isTimeout(err) {
			return nil, errors.NewTimeoutError(service+" "+req.path, c.http.Timeout).WithCause(err)
		}
		return nil, errors.NewServiceError(req.method+" failed", err).WithService(service).WithEndpoint(req.path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewServiceError("read response", err).WithService(service).WithEndpoint(req.path)
	}
	if resp.StatusCode >= 400 {
		return nil, errors.NewServiceError(errorMessage(data, resp.Status), nil).
			WithService(service).
			WithEndpoint(req.path).
			WithStatusCode(resp.StatusCode)
	}
	return data, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

// errorMessage extracts the {"error": "..."} body collaborators send.
func errorMessage(data []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return fallback
}

// getJSON calls a GET endpoint and decodes and validates the response.
func (c *Client) getJSON(ctx context.Context, service, path string, out any) error {
	data, err := c.call(ctx, service, request{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	return c.decode(service, path, data, out)
}

// postJSON sends in as JSON and decodes the response into out (unless nil).
func (c *Client) postJSON(ctx context.Context, service, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	data, err := c.call(ctx, service, request{method: http.MethodPost, path: path, body: body, contentType: "application/json"})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return c.decode(service, path, data, out)
}

func (c *Client) decode(service, path string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewServiceError("malformed response", err).WithService(service).WithEndpoint(path).WithRetryable(false)
	}
	if err := c.validate.Struct(out); err != nil {
		return errors.NewValidationError(fmt.Sprintf("%s returned an invalid response", service)).WithCause(err)
	}
	return nil
}
