package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/beevik/etree"
)

// MethodReport is the CalDAV REPORT verb
const MethodReport = "REPORT"

// DoREPORT executes a CalDAV REPORT request
func (c *httpClientWrapper) DoREPORT(ctx context.Context, urlStr string, depth int, query *etree.Document) (*Response, error) {
	c.logger.Debug("starting REPORT request",
		"url", urlStr,
		"depth", depth)

	if query == nil {
		return nil, fmt.Errorf("REPORT query is required")
	}
	queryXML, err := query.WriteToBytes()
	if err != nil {
		c.logger.Debug("failed to serialize query", "error", err)
		return nil, fmt.Errorf("failed to serialize REPORT query: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/xml; charset=utf-8")
	header.Set("Depth", fmt.Sprintf("%d", depth))

	resp, err := c.do(ctx, MethodReport, urlStr, queryXML, header)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("REPORT request complete",
		"status", resp.Status,
		"body_length", len(resp.Body))
	return resp, nil
}
