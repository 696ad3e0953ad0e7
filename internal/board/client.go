// Package board talks to the physical sensor board service. The board is
// polled, never pushed: the runtime asks for its status and position on a
// timer and sends placements to it when analysis is synced.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/metrics"
	"github.com/Iron-Ham/chessbook/internal/position"
)

// ServiceName labels board calls in logs, metrics and errors.
const ServiceName = "board"

// Status is the board service's availability.
type Status struct {
	// Available is true when the service runs.
	Available bool `json:"available"`
	// Connected is true when a board is attached to it.
	Connected bool `json:"connected"`
}

// SyncResult is the board's answer to a placement push.
type SyncResult struct {
	FEN          string `json:"fen"`
	DriverSynced bool   `json:"driver_synced"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// New returns a Client for opts.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.With("component", "board")

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
		metrics: opts.Metrics,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        ServiceName,
			MaxRequests: 1,
			// Status polls keep probing, so a short open period is enough.
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("board breaker state changed", "from", from.String(), "to", to.String())
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.IsCanceled(err)
			},
		}),
	}
}

// Status reports whether the service runs and a board is attached.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

// Position reads the placement currently on the board. The board knows no
// side to move, so the remaining FEN fields are defaults.
func (c *Client) Position(ctx context.Context) (position.Position, error) {
	var resp struct {
		FEN string `json:"fen"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/state/fen", nil, &resp); err != nil {
		return "", err
	}
	pos, err := position.ParsePosition(resp.FEN)
	if err != nil {
		return "", errors.NewServiceError("board sent an invalid position", err).
			WithService(ServiceName).
			WithEndpoint("/api/state/fen").
			WithRetryable(false)
	}
	return pos, nil
}

// SetPlacement asks the board to show pl. With force the board moves its
// pieces at once instead of waiting for the user.
func (c *Client) SetPlacement(ctx context.Context, pl position.Placement, force bool) (SyncResult, error) {
	if err := position.ValidateForBoard(pl); err != nil {
		return SyncResult{}, err
	}
	body, err := json.Marshal(map[string]any{"fen": string(pl), "force": force})
	if err != nil {
		return SyncResult{}, errors.Wrap(err, "encode placement")
	}
	var res SyncResult
	if err := c.do(ctx, http.MethodPost, "/api/state/fen", body, &res); err != nil {
		return SyncResult{}, err
	}
	c.logger.Debug("placement sent to board", "fen", string(pl), "driver_synced", res.DriverSynced)
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, method, path, body, out)
	})
	c.metrics.Observe(ServiceName, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = errors.NewServiceError("circuit open", errors.ErrBoardUnavailable).
				WithService(ServiceName).
				WithEndpoint(path)
		}
		if !errors.IsCanceled(err) {
			c.metrics.Failure(ServiceName)
			c.logger.Debug("board call failed", "path", path, "error", err.Error())
		}
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewValidationError("invalid board request").WithCause(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return errors.NewServiceError("board unreachable", errors.Join(errors.ErrBoardUnavailable, err)).
			WithService(ServiceName).
			WithEndpoint(path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewServiceError("read board response", err).WithService(ServiceName).WithEndpoint(path)
	}
	if resp.StatusCode >= 400 {
		return errors.NewServiceError(detail(data, resp.Status), nil).
			WithService(ServiceName).
			WithEndpoint(path).
			WithStatusCode(resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewServiceError("malformed board response", err).
			WithService(ServiceName).
			WithEndpoint(path).
			WithRetryable(false)
	}
	return nil
}

// detail extracts the {"detail": "..."} body the board service sends with
// errors.
func detail(data []byte, fallback string) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil && body.Detail != "" {
		return body.Detail
	}
	return fallback
}
