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

	"go.uber.org/zap"

	"botpanel/internal/config"
	"botpanel/internal/metrics"
)

// HTTPError is returned for any non-2xx backend response.
type HTTPError struct {
	StatusCode int
	Status     string
	// Detail is the backend's error detail, when the body carried one.
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// IsStatus reports whether err is an HTTPError with the given code.
func IsStatus(err error, code int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == code
}

type errorBody struct {
	Detail any    `json:"detail"`
	Error  string `json:"error"`
}

// Client talks to the bot backend. Every call is a single attempt.
type Client struct {
	BaseURL string

	HTTP    *http.Client
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func New(cfg config.APIConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	return &Client{
		BaseURL: cfg.BaseURL,
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		Logger:  logger,
		Metrics: m,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// do sends one request. route is the templated path used as a metrics label.
func (c *Client) do(ctx context.Context, method, route, path string, body, out any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return errors.New("api base url is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.Metrics.RecordRequest(route, method, 0, time.Since(start))
		c.logger().Debug("api request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.Metrics.RecordRequest(route, method, resp.StatusCode, time.Since(start))
	c.logger().Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp, b)
	}

	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	status := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}
	he := &HTTPError{StatusCode: resp.StatusCode, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch d := eb.Detail.(type) {
		case string:
			he.Detail = d
		case nil:
			he.Detail = eb.Error
		default:
			if raw, err := json.Marshal(d); err == nil {
				he.Detail = string(raw)
			}
		}
	}
	return he
}
