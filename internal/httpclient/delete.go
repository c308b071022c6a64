package httpclient

import (
	"context"
	"net/http"
)

// DoDELETE removes a calendar resource
func (c *httpClientWrapper) DoDELETE(ctx context.Context, urlStr string) (*Response, error) {
	c.logger.Debug("starting DELETE request", "url", urlStr)

	resp, err := c.do(ctx, http.MethodDelete, urlStr, nil, nil)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("DELETE request complete", "status", resp.Status)
	return resp, nil
}
