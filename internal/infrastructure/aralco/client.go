// Package aralco implements the remote catalog port over the Aralco
// Ecommerce REST API.
package aralco

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize is the maximum accepted response body (64MB); full
// product pulls are large
const maxResponseSize = 64 * 1024 * 1024

// errNotFound marks a 404 so lookups can return a nil record
var errNotFound = fmt.Errorf("%w: not found", integration.ErrRemoteFetchFailed)

// RequestObserver records the outcome of each API call
type RequestObserver interface {
	RemoteRequest(ctx context.Context, endpoint string) func(status int)
}

// Client is the Aralco API client
type Client struct {
	config     Config
	base       *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   RequestObserver
	logger     *zap.Logger
}

var _ integration.RemoteCatalog = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver records request counts and durations
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the client logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client. It fails with ErrConfigMissing when the API
// location or token is absent.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.APILocation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrConfigMissing, err)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		config:     cfg,
		base:       base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("aralco")
	return c, nil
}

// do sends one request and decodes a JSON response into out. out may be nil.
// Every failure is wrapped around ErrRemoteFetchFailed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "aralco."+path,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrHTTPMethod, method),
		telemetry.WithAttribute(telemetry.SpanAttrHTTPPath, path),
	)
	defer span.End()

	status := 0
	if c.observer != nil {
		done := c.observer.RemoteRequest(ctx, path)
		defer func() { done(status) }()
	}
	defer func() {
		if err != nil && !errors.Is(err, errNotFound) {
			telemetry.RecordError(span, err)
			c.logger.Warn("request failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", integration.ErrRemoteFetchFailed, path, err)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", integration.ErrRemoteFetchFailed, path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", integration.ErrRemoteFetchFailed, path, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	telemetry.SetAttributes(span, telemetry.SpanAttrHTTPStatus, status)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %v", integration.ErrRemoteFetchFailed, path, err)
	}

	if status == http.StatusNotFound {
		return errNotFound
	}
	if status >= 400 {
		var apiErr errorResponse
		_ = json.Unmarshal(data, &apiErr)
		msg := apiErr.text()
		if msg == "" {
			msg = http.StatusText(status)
		}
		return fmt.Errorf("%w: %s: HTTP %d: %s", integration.ErrRemoteFetchFailed, path, status, msg)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", integration.ErrRemoteFetchFailed, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+c.config.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}
