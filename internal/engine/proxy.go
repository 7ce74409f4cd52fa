package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// proxyBatch is the wire format for the remote statement executor: the
// plan's writes, in order, executed as one remote transaction.
type proxyBatch struct {
	Statements []Write `json:"statements"`
}

// ProxyGateway sends mutation plans as one batch RPC to a remote stateless
// statement executor. The executor is responsible for atomicity on its
// side; any non-success response is treated as total failure.
type ProxyGateway struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// ProxyOption configures a ProxyGateway.
type ProxyOption func(*ProxyGateway)

// WithHTTPClient sets the HTTP client used for batch requests.
func WithHTTPClient(c *http.Client) ProxyOption {
	return func(g *ProxyGateway) {
		g.client = c
	}
}

// NewProxyGateway creates a gateway that posts batches to the executor URL.
func NewProxyGateway(url string, logger *slog.Logger, opts ...ProxyOption) *ProxyGateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &ProxyGateway{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Apply serializes the plan and executes it remotely as one batch.
func (g *ProxyGateway) Apply(ctx context.Context, plan *Plan) error {
	body, err := json.Marshal(proxyBatch{Statements: plan.Writes()})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute batch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read batch response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("batch executor returned %d: %s", resp.StatusCode, executorError(respBody))
	}

	// The executor reports per-batch success in the response body.
	if ok := gjson.GetBytes(respBody, "ok"); ok.Exists() && !ok.Bool() {
		return fmt.Errorf("batch executor rejected plan: %s", executorError(respBody))
	}

	g.logger.Debug("batch applied", "statements", plan.Len())
	return nil
}

// executorError extracts the executor's error message from a response body.
func executorError(body []byte) string {
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return msg.String()
	}
	return string(body)
}
