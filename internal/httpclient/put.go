package httpclient

import (
	"context"
	"net/http"
)

// DoPUT creates or replaces a calendar resource with the given iCalendar data
func (c *httpClientWrapper) DoPUT(ctx context.Context, urlStr string, data []byte) (*Response, error) {
	c.logger.Debug("starting PUT request",
		"url", urlStr,
		"data_length", len(data))

	header := http.Header{}
	header.Set("Content-Type", "text/calendar; charset=utf-8")

	resp, err := c.do(ctx, http.MethodPut, urlStr, data, header)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("PUT request complete",
		"status", resp.Status,
		"new_etag", resp.Header.Get("ETag"))
	return resp, nil
}
