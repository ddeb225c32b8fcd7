// Package submit posts device envelopes to an lcore node over HTTP.
package submit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/pilacorp/go-device-sdk/config"
	"github.com/pilacorp/go-device-sdk/envelope"
)

// RequestIDHeader carries a per-request UUID.
const RequestIDHeader = "X-Request-ID"

const defaultPath = "/api/v1/messages"

// Client submits envelopes to a node. Submissions are never retried; a
// failed call is reported to the caller.
type Client struct {
	baseURL string
	path    string
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics
}

// ClientOpt configures a Client.
type ClientOpt func(c *Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) ClientOpt {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) ClientOpt {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithPath overrides the endpoint path on the node.
func WithPath(path string) ClientOpt {
	return func(c *Client) {
		if path != "" {
			c.path = "/" + strings.TrimLeft(path, "/")
		}
	}
}

// WithRegisterer registers the client's counters on reg.
func WithRegisterer(reg prometheus.Registerer) ClientOpt {
	return func(c *Client) {
		if reg != nil {
			c.metrics = newMetrics(reg)
		}
	}
}

// NewClient creates a Client for the node at baseURL.
func NewClient(baseURL string, opts ...ClientOpt) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    defaultPath,
		client: &http.Client{
			Timeout:   config.DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  zap.NewNop(),
		metrics: newMetrics(prometheus.NewRegistry()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a Client from cfg.
func NewClientFromConfig(cfg *config.Config, opts ...ClientOpt) *Client {
	all := append([]ClientOpt{WithTimeout(cfg.Timeout)}, opts...)
	return NewClient(cfg.NodeURL, all...)
}

// Submit validates env and posts it to the node.
func (c *Client) Submit(ctx context.Context, env *envelope.Envelope) error {
	if env == nil {
		return fmt.Errorf("envelope is nil")
	}
	if err := env.Validate(); err != nil {
		c.metrics.observe(env.Type, outcomeInvalid)
		return err
	}
	body, err := env.Marshal()
	if err != nil {
		c.metrics.observe(env.Type, outcomeInvalid)
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	requestID := uuid.New().String()
	logger := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("type", string(env.Type)),
		zap.String("device_id", env.DeviceID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.observe(env.Type, outcomeTransport)
		logger.Warn("submission failed", zap.Error(err))
		return fmt.Errorf("failed to make HTTP request to node: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.observe(env.Type, outcomeRejected)
		logger.Warn("submission rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", bytes.TrimSpace(msg)),
		)
		return fmt.Errorf("node returned non-2xx status: %s", resp.Status)
	}

	c.metrics.observe(env.Type, outcomeAccepted)
	logger.Debug("submission accepted", zap.Duration("elapsed", time.Since(start)))
	return nil
}
