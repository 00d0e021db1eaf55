package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"NewsBrief/internal/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Options tunes the outbound request defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Language  string
}

// HTTPFetcher issues plain GET requests with fixed headers. It never retries.
type HTTPFetcher struct {
	client  *http.Client
	headers http.Header
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher wires an HTTP client; a nil client gets the configured timeout.
func NewHTTPFetcher(client *http.Client, opts Options) *HTTPFetcher {
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if opts.UserAgent != "" {
		headers.Set("User-Agent", opts.UserAgent)
	}
	if opts.Language != "" {
		headers.Set("Accept-Language", opts.Language)
	}

	return &HTTPFetcher{client: client, headers: headers}
}

// Get downloads the body at pageURL. Any non-2xx status is an error.
func (f *HTTPFetcher) Get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for key, values := range f.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("request %s: unexpected status %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body %s: %w", pageURL, err)
	}

	return string(body), nil
}
