package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/beevik/etree"
	"github.com/emersion/go-webdav"
	"golang.org/x/time/rate"
)

// HttpClientWrapper wraps an HTTP client with CalDAV-specific functionality.
// Every call performs exactly one authorized request and returns the fully
// read response; status codes are left to the caller to interpret.
type HttpClientWrapper interface {
	DoGET(ctx context.Context, url string) (*Response, error)
	DoPUT(ctx context.Context, url string, data []byte) (*Response, error)
	DoDELETE(ctx context.Context, url string) (*Response, error)
	DoREPORT(ctx context.Context, url string, depth int, query *etree.Document) (*Response, error)
}

// Response is a consumed HTTP response. The connection it came from is
// already closed.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

type httpClientWrapper struct {
	client     webdav.HTTPClient
	baseURL    url.URL
	authorizer Authorizer
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// resolveURL resolves a URL string against the base URL
func (c *httpClientWrapper) resolveURL(urlStr string) (*url.URL, error) {
	ref, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %q: %w", urlStr, err)
	}
	return c.baseURL.ResolveReference(ref), nil
}

// NewHttpClientWrapper creates a new client wrapper. The authorizer supplies
// the Authorization header of every request; limiter may be nil.
func NewHttpClientWrapper(client webdav.HTTPClient, baseURL url.URL, authorizer Authorizer, limiter *rate.Limiter, logger *slog.Logger) (HttpClientWrapper, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &httpClientWrapper{
		client:     client,
		baseURL:    baseURL,
		authorizer: authorizer,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// do builds, authorizes and executes a single request
func (c *httpClientWrapper) do(ctx context.Context, method, urlStr string, body []byte, header http.Header) (*Response, error) {
	resolvedURL, err := c.resolveURL(urlStr)
	if err != nil {
		c.logger.Debug("failed to resolve URL", "url", urlStr, "error", err)
		return nil, err
	}
	c.logger.Debug("resolved URL", "method", method, "url", resolvedURL.String())

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var authorization string
	if c.authorizer != nil {
		authorization, err = c.authorizer.Authorization(ctx, method, resolvedURL)
		if err != nil {
			c.logger.Debug("authorization failed", "method", method, "error", err)
			return nil, fmt.Errorf("failed to authorize %s request: %w", method, err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, resolvedURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "error", err)
		return nil, fmt.Errorf("failed to execute %s request: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}
	c.logger.Debug("received response", "method", method, "status", resp.Status, "body_length", len(data))

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
