// Package httpclient is the HTTP implementation of the davclient
// contract: PROPFIND and REPORT over a wrapped http.Client, with request
// bodies built and responses parsed by the caldav package.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Wrapper implements davclient.Client over an http.Client. Target URLs
// are resolved against the base URL, so relative hrefs from multistatus
// responses can be passed back in directly.
type Wrapper struct {
	client  *http.Client
	baseURL url.URL
	logger  *slog.Logger
}

// New creates a wrapper. A nil logger discards debug output.
func New(client *http.Client, baseURL url.URL, logger *slog.Logger) (*Wrapper, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Wrapper{client: client, baseURL: baseURL, logger: logger}, nil
}

func (w *Wrapper) resolveURL(urlStr string) (*url.URL, error) {
	ref, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %q: %w", urlStr, err)
	}
	return w.baseURL.ResolveReference(ref), nil
}

// roundTrip sends one DAV request and returns the multistatus body.
func (w *Wrapper) roundTrip(ctx context.Context, method, target string, depth int, body string) (string, error) {
	resolved, err := w.resolveURL(target)
	if err != nil {
		return "", err
	}
	w.logger.Debug("starting DAV request",
		"method", method,
		"url", resolved.String(),
		"depth", depth)

	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	req.Header.Set("Depth", strconv.Itoa(depth))

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus {
		w.logger.Debug("unexpected response status", "status", resp.Status)
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	w.logger.Debug("DAV request complete", "method", method, "body_len", len(data))
	return string(data), nil
}
