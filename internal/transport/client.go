// Package transport is the HTTP client for the console API. Request bodies
// are streamed as zstd-compressed JSON.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/kubeadapt/kubeadapt-console/internal/config"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// Client calls the console API over HTTP.
type Client struct {
	httpClient *http.Client
	config     *config.Config
	metrics    *observability.Metrics
	baseURL    string

	// backoff returns the delay before retry attempt n (0-based).
	backoff func(attempt int) time.Duration
}

// NewClient creates a transport Client with middleware applied.
// Retry is handled per request (not in the RoundTripper) because the
// streaming io.Pipe body must be re-created on each attempt.
// metrics may be nil.
func NewClient(cfg *config.Config, metrics *observability.Metrics) *Client {
	// Use an explicit transport instead of http.DefaultTransport to avoid
	// sharing mutable state with other code in the process.
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	var transport http.RoundTripper = WithLogging(slog.Default(), base)
	if cfg.APIKey != "" {
		transport = WithAuth(cfg.APIKey, transport)
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		config:     cfg,
		metrics:    metrics,
		baseURL:    strings.TrimRight(cfg.ServerURL, "/"),
		backoff:    exponentialBackoff,
	}
}

// Render converts form state to YAML.
func (c *Client) Render(ctx context.Context, f model.FormState) (string, error) {
	var out model.RenderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/manifests/render", f, &out); err != nil {
		return "", err
	}
	return out.YAML, nil
}

// Parse extracts a form patch from manifest text.
func (c *Client) Parse(ctx context.Context, text string) (model.FormPatch, error) {
	var out model.FormPatch
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/manifests/parse", model.ManifestRequest{YAML: text}, &out)
	return out, err
}

// Validate checks manifest text. Malformed YAML is returned as an *APIError
// with status 422.
func (c *Client) Validate(ctx context.Context, text string) (model.ValidateResponse, error) {
	var out model.ValidateResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/manifests/validate", model.ManifestRequest{YAML: text}, &out)
	return out, err
}

// Templates lists the starter manifests.
func (c *Client) Templates(ctx context.Context) ([]model.Template, error) {
	var out []model.Template
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/templates", nil, &out)
	return out, err
}

// Template fetches one starter manifest.
func (c *Client) Template(ctx context.Context, typ string) (model.Template, error) {
	var out model.Template
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/templates/"+url.PathEscape(typ), nil, &out)
	return out, err
}

// Apply creates or updates the object described by text in the cluster.
func (c *Client) Apply(ctx context.Context, text string) (model.ApplyResult, error) {
	var out model.ApplyResult
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/apply", model.ManifestRequest{YAML: text}, &out)
	return out, err
}

// Delete removes the object named by text from the cluster.
func (c *Client) Delete(ctx context.Context, text string) (model.ApplyResult, error) {
	var out model.ApplyResult
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/delete", model.ManifestRequest{YAML: text}, &out)
	return out, err
}

// Resources lists a resource kind, optionally within one namespace. The
// items are returned undecoded.
func (c *Client) Resources(ctx context.Context, kind, namespace string) (json.RawMessage, error) {
	path := "/api/v1/resources/" + url.PathEscape(kind)
	if namespace != "" {
		path += "?namespace=" + url.QueryEscape(namespace)
	}
	var out json.RawMessage
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Stats fetches the latest usage sample for a pod.
func (c *Client) Stats(ctx context.Context, namespace, pod string) (model.PodStats, error) {
	path := "/api/v1/namespaces/" + url.PathEscape(namespace) + "/pods/" + url.PathEscape(pod) + "/stats"
	var out model.PodStats
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Logs copies a container log stream to w until it ends or ctx is canceled.
// Log streams are not retried.
func (c *Client) Logs(ctx context.Context, opts model.LogOptions, w io.Writer) error {
	q := url.Values{}
	if opts.Container != "" {
		q.Set("container", opts.Container)
	}
	if opts.TailLines != nil {
		q.Set("tail", strconv.FormatInt(*opts.TailLines, 10))
	}
	if opts.Follow {
		q.Set("follow", "true")
	}
	u := fmt.Sprintf("%s/api/v1/namespaces/%s/pods/%s/logs", c.baseURL, url.PathEscape(opts.Namespace), url.PathEscape(opts.Pod))
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("transport: failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transport: HTTP request failed: %w", err)
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return ParseError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil && ctx.Err() == nil {
		return fmt.Errorf("transport: log stream: %w", err)
	}
	return nil
}

// doJSON sends body (if any) as zstd-compressed JSON and decodes the
// response into out, retrying transient failures up to MaxRetries times.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var lastErr error

	maxAttempts := c.config.MaxRetries + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if c.metrics != nil {
				c.metrics.TransportRetries.Inc()
			}
			delay := c.backoff(attempt - 1)
			var apiErr *APIError
			if asAPIError(lastErr, &apiErr) && apiErr.RetryAfter > 0 {
				delay = apiErr.RetryAfter
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("transport: context canceled before attempt %d: %w", attempt+1, ctx.Err())
			case <-time.After(delay):
			}
		}

		err := c.doOnce(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		slog.Debug("request failed, retrying", "path", path, "attempt", attempt+1, "error", err)
	}
	return lastErr
}

// doOnce performs a single HTTP request with streaming compression.
// Each call creates a fresh io.Pipe so it can be called multiple times for retries.
func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	var raw, compressed *CountingWriter
	var start time.Time
	if body != nil {
		pr, pw := io.Pipe()
		compressed = NewCountingWriter(pw)

		zw, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.EncoderLevel(c.config.CompressionLevel)))
		if err != nil {
			_ = pw.Close()
			return fmt.Errorf("transport: failed to create zstd encoder: %w", err)
		}
		raw = NewCountingWriter(zw)
		start = time.Now()

		// Goroutine: encode JSON → zstd → pipe.
		go func() {
			encodeErr := json.NewEncoder(raw).Encode(body)
			// Close zstd first to flush, then close the pipe.
			closeErr := zw.Close()
			if encodeErr != nil {
				pw.CloseWithError(fmt.Errorf("transport: JSON encode failed: %w", encodeErr))
			} else if closeErr != nil {
				pw.CloseWithError(fmt.Errorf("transport: zstd close failed: %w", closeErr))
			} else {
				_ = pw.Close()
			}
		}()
		reqBody = pr
	}

	reqCtx := ctx
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reqBody)
	if err != nil {
		if pr, ok := reqBody.(*io.PipeReader); ok {
			_ = pr.Close()
		}
		return fmt.Errorf("transport: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "zstd")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transport: HTTP request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if body != nil {
		c.recordCompression(raw.Count(), compressed.Count(), time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ParseError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: HTTP %d: %w", errDecode, resp.StatusCode, err)
	}
	return nil
}

func (c *Client) recordCompression(raw, compressed int64, elapsed time.Duration) {
	if c.metrics == nil || raw == 0 || compressed == 0 {
		return
	}
	c.metrics.CompressionRatio.Set(float64(raw) / float64(compressed))
	c.metrics.CompressionDuration.Observe(elapsed.Seconds())
}

// exponentialBackoff is 1s * 2^attempt.
func exponentialBackoff(attempt int) time.Duration {
	return time.Second << attempt
}
