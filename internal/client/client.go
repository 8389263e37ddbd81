// Package client submits envelopes to the image-transformation backend, one attempt per call
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/envelope"
	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/mwlogger"
	"github.com/UnendingLoop/ImageOrchestrator/internal/normalizer"
	"github.com/google/uuid"
)

const (
	DefaultBaseURL      = "http://localhost:8080"
	DefaultAdvancedPath = "/images/process"
	DefaultTimeout      = 60 * time.Second

	ResizePath = "/images/resize"
	BatchPath  = "/images/batch/resize"
	HealthPath = "/health"
)

// Options configures the client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL      string
	AdvancedPath string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// Client is stateless between calls: no retries, no caching, no session.
type Client struct {
	baseURL      string
	advancedPath string
	httpClient   *http.Client
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	advanced := strings.TrimSpace(opts.AdvancedPath)
	if advanced == "" {
		advanced = DefaultAdvancedPath
	}
	if !strings.HasPrefix(advanced, "/") {
		advanced = "/" + advanced
	}

	return &Client{baseURL: baseURL, advancedPath: advanced, httpClient: httpClient}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitResize sends one image with a flat resize spec.
func (c *Client) SubmitResize(ctx context.Context, asset model.ImageAsset, spec model.ResizeSpec) (*model.ProcessingResult, error) {
	p, err := envelope.Resize(asset, spec)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, model.CapResize, http.MethodPost, ResizePath, p)
	if err != nil {
		return nil, err
	}

	data, err := normalizer.Decode[normalizer.ImageResponse](bytes.NewReader(raw), model.CapResize)
	if err != nil {
		return nil, c.logFailure(ctx, err)
	}
	res := data.Result()
	return &res, nil
}

// SubmitAdvanced sends one image with every enabled operation.
func (c *Client) SubmitAdvanced(ctx context.Context, req *model.ProcessingRequest) (*model.ProcessingResult, error) {
	p, err := envelope.Advanced(req)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, model.CapAdvanced, http.MethodPost, c.advancedPath, p)
	if err != nil {
		return nil, err
	}

	data, err := normalizer.Decode[normalizer.ImageResponse](bytes.NewReader(raw), model.CapAdvanced)
	if err != nil {
		return nil, c.logFailure(ctx, err)
	}
	res := data.Result()
	return &res, nil
}

// SubmitBatch sends every asset in one call; per-item parallelism is the backend's business.
func (c *Client) SubmitBatch(ctx context.Context, req *model.BatchRequest) (*model.BatchResult, error) {
	p, err := envelope.Batch(req)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, model.CapBatch, http.MethodPost, BatchPath, p)
	if err != nil {
		return nil, err
	}

	data, err := normalizer.Decode[normalizer.BatchResponse](bytes.NewReader(raw), model.CapBatch)
	if err != nil {
		return nil, c.logFailure(ctx, err)
	}
	res := data.Result()
	return &res, nil
}

func (c *Client) FetchHealth(ctx context.Context) (*model.HealthReport, error) {
	raw, err := c.do(ctx, model.CapHealth, http.MethodGet, HealthPath, nil)
	if err != nil {
		return nil, err
	}

	data, err := normalizer.Decode[normalizer.HealthCheck](bytes.NewReader(raw), model.CapHealth)
	if err != nil {
		return nil, c.logFailure(ctx, err)
	}
	res := data.Report()
	return &res, nil
}

// Download fetches a result locator with a plain GET and returns its bytes and Content-Type.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(url), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &model.TransportError{Cause: err}
	}
	defer closeBody(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &model.TransportError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &model.TransportError{Cause: fmt.Errorf("read image: %w", err)}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, capab model.Capability, method, path string, p *envelope.Payload) ([]byte, error) {
	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx = mwlogger.WithRequestID(ctx, reqID, string(capab))
	logger := mwlogger.LoggerFromContext(ctx)

	var body io.Reader
	if p != nil {
		body = p.Reader()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", capab, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(mwlogger.RequestIDHeader, reqID)
	if p != nil {
		req.Header.Set("Content-Type", p.ContentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Backend is unreachable")
		return nil, &model.TransportError{Capability: capab, Cause: err}
	}
	defer closeBody(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("Backend answered with non-success status")
		return nil, &model.TransportError{Capability: capab, StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read backend response")
		return nil, &model.TransportError{Capability: capab, StatusCode: resp.StatusCode, Cause: err}
	}

	logger.Debug().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("Backend responded")
	return raw, nil
}

func (c *Client) logFailure(ctx context.Context, err error) error {
	logger := mwlogger.LoggerFromContext(ctx)
	logger.Warn().Err(err).Msg("Backend refused the request")
	return err
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

func closeBody(ctx context.Context, body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Msg("Failed to close response body")
	}
}
