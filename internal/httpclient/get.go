package httpclient

import (
	"context"
	"net/http"
)

// DoGET fetches a single calendar resource
func (c *httpClientWrapper) DoGET(ctx context.Context, urlStr string) (*Response, error) {
	c.logger.Debug("starting GET request", "url", urlStr)

	resp, err := c.do(ctx, http.MethodGet, urlStr, nil, nil)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("GET request complete",
		"status", resp.Status,
		"etag", resp.Header.Get("ETag"))
	return resp, nil
}
