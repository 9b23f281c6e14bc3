// Package solveclient requests traces from a remote solver over HTTP.
package solveclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/internal/observability"
	"github.com/signalsfoundry/colortrace/internal/solverapi"
	"github.com/signalsfoundry/colortrace/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultTimeout bounds a single solve round trip.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read into the error.
const maxErrorBody = 64 << 10

// Client implements core.Solver against POST {base}/solve/{algorithm}.
// Failed requests are reported, never retried.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	log     logging.Logger
	metrics *observability.SolveCollector
}

// Option configures optional Client behaviour.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each solve call. Non-positive values disable the bound
// and leave only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the client logger.
func WithLogger(log logging.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics records every call in collector.
func WithMetrics(collector *observability.SolveCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// New returns a client for the solver at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse solver url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("solver url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("solver url %q has no host", baseURL)
	}

	c := &Client{
		base:    u,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout: DefaultTimeout,
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Solve implements core.Solver.
func (c *Client) Solve(ctx context.Context, algorithm model.Algorithm, req model.SolveRequest) (*model.RawTrace, error) {
	ctx, solveID := logging.EnsureSolveID(ctx)
	ctx, span := observability.StartSpan(ctx, "solveclient.Solve", "algorithm", string(algorithm),
		attribute.Int("regions", len(req.Regions)),
		attribute.Int("max_colors", req.MaxColors),
	)
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := c.log.With(
		logging.String("solve_id", solveID),
		logging.String("algorithm", string(algorithm)),
	)
	start := time.Now()

	trace, err := c.do(ctx, algorithm, req)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.ObserveSolve(string(algorithm), observability.OutcomeError, elapsed, 0)
		log.Warn(ctx, "solve request failed", logging.Err(err), logging.Duration("elapsed", elapsed))
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("success", trace.Success),
		attribute.Int("total_steps", trace.TotalSteps),
	)
	c.metrics.ObserveSolve(string(algorithm), observability.SolveOutcome(trace.Success), elapsed, trace.TotalSteps)
	log.Debug(ctx, "solve response received",
		logging.Bool("success", trace.Success),
		logging.Int("total_steps", trace.TotalSteps),
		logging.Duration("elapsed", elapsed),
	)
	return trace, nil
}

func (c *Client) do(ctx context.Context, algorithm model.Algorithm, req model.SolveRequest) (*model.RawTrace, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", core.ErrSolveRequestFailed, err)
	}

	endpoint := c.base.JoinPath("solve", string(algorithm))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", core.ErrSolveRequestFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if id := logging.SolveIDFromContext(ctx); id != "" {
		httpReq.Header.Set(solverapi.SolveIDHeader, id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSolveRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: solver returned %d: %s",
			core.ErrSolveRequestFailed, resp.StatusCode, errorMessage(resp.Body))
	}

	var trace model.RawTrace
	if err := json.NewDecoder(resp.Body).Decode(&trace); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", core.ErrSolveRequestFailed, err)
	}
	return &trace, nil
}

// errorMessage extracts the solver's explanation from an error body. Both
// {"error": ...} and {"detail": ...} bodies are understood; anything else is
// returned as trimmed text.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	return strings.TrimSpace(string(raw))
}
