// Package client provides the HTTP transport for the Polymarket Gamma and
// CLOB APIs: a GET that returns a parsed JSON body or a classified error on
// non-2xx and network failures, with bounded retries for transient classes.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for client operations.
var (
	pmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	pmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pm_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	pmErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// GammaURL is the base URL of the events API.
	GammaURL string

	// CLOBURL is the base URL of the price-history API.
	CLOBURL string

	// UserAgent identifies this client to the API.
	UserAgent string

	// Timeout bounds every request.
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		GammaURL:       "https://gamma-api.polymarket.com",
		CLOBURL:        "https://clob.polymarket.com",
		UserAgent:      "polymarket-data/0.1.0",
		Timeout:        25 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// Client is the HTTP transport for both Polymarket APIs.
type Client struct {
	httpClient *http.Client
	config     Config
	retry      RetryConfig
	logger     zerolog.Logger
}

// New creates a new API client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.GammaURL == "" {
		return nil, fmt.Errorf("gamma base URL is required")
	}
	if cfg.CLOBURL == "" {
		return nil, fmt.Errorf("clob base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}

	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		retry:  retry,
		logger: logger.With().Str("component", "api-client").Logger(),
	}, nil
}

// GammaURL returns the configured events API base URL.
func (c *Client) GammaURL() string {
	return c.config.GammaURL
}

// CLOBURL returns the configured price-history API base URL.
func (c *Client) CLOBURL() string {
	return c.config.CLOBURL
}

// GetJSON performs a GET against baseURL+path with the given query
// parameters and decodes the response body into v. Non-2xx responses and
// network failures return an *APIError; retriable classes are attempted up
// to the configured budget before the error propagates.
func (c *Client) GetJSON(ctx context.Context, baseURL, path string, params url.Values, v any) error {
	requestURL := strings.TrimRight(baseURL, "/") + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	startTime := time.Now()
	defer func() {
		pmRequestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	var body []byte

	err := retryWithBackoff(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		c.logger.Debug().
			Str("endpoint", path).
			Str("url", requestURL).
			Msg("Executing API request")

		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", path).Msg("HTTP request failed")
			pmErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			pmRequestsTotal.WithLabelValues(path, "network_error").Inc()
			return &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: reqErr}
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			pmErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{ErrorClass: ErrorClassNetwork, Message: "read response body", Err: readErr}
		}

		pmRequestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errorClass := classifyStatus(resp.StatusCode)
			pmErrorsTotal.WithLabelValues(string(errorClass)).Inc()

			c.logger.Warn().
				Str("endpoint", path).
				Int("status", resp.StatusCode).
				Str("error_class", string(errorClass)).
				Msg("API request error")

			return &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: errorClass,
				Message:    errorMessage(resp.Status, data),
			}
		}

		body = data
		return nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}

// errorMessage pulls the server's error detail out of the response body when
// it has the {"error": "..."} shape, falling back to the HTTP status line.
func errorMessage(status string, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Sprintf("%s: %s", status, payload.Error)
	}
	return status
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
