package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/beevik/etree"
)

// newTestWrapper returns a wrapper pointed at server with basic auth
func newTestWrapper(t *testing.T, server *httptest.Server) *httpClientWrapper {
	t.Helper()
	base, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	return &httpClientWrapper{
		client:     server.Client(),
		baseURL:    *base,
		authorizer: &BasicAuthorizer{Username: "user1", Password: "password1"},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testQuery() *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("C:calendar-query")
	root.CreateAttr("xmlns:C", "urn:ietf:params:xml:ns:caldav")
	root.CreateElement("C:filter")
	return doc
}

func TestDoREPORT(t *testing.T) {
	tests := []struct {
		name          string
		query         *etree.Document
		serverHandler func(w http.ResponseWriter, r *http.Request)
		wantErr       bool
		wantStatus    int
		validateBody  func([]byte) bool
	}{
		{
			name:  "successful request",
			query: testQuery(),
			serverHandler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != "REPORT" {
					t.Errorf("expected REPORT method, got %s", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/xml; charset=utf-8" {
					t.Errorf("expected Content-Type application/xml, got %s", ct)
				}
				if depth := r.Header.Get("Depth"); depth != "1" {
					t.Errorf("expected Depth 1, got %s", depth)
				}
				if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Basic ") {
					t.Errorf("expected basic Authorization header, got %q", auth)
				}
				body, _ := io.ReadAll(r.Body)
				if !strings.Contains(string(body), "calendar-query") {
					t.Errorf("expected calendar-query body, got %s", body)
				}

				w.WriteHeader(http.StatusMultiStatus)
				w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:">
<D:response>
<D:href>/calendar/event1.ics</D:href>
<D:propstat>
<D:prop>
<C:calendar-data xmlns:C="urn:ietf:params:xml:ns:caldav">BEGIN:VCALENDAR...</C:calendar-data>
</D:prop>
<D:status>HTTP/1.1 200 OK</D:status>
</D:propstat>
</D:response>
</D:multistatus>`))
			},
			wantErr:    false,
			wantStatus: http.StatusMultiStatus,
			validateBody: func(body []byte) bool {
				return strings.Contains(string(body), "BEGIN:VCALENDAR...")
			},
		},
		{
			name:  "missing query",
			query: nil,
			serverHandler: func(w http.ResponseWriter, r *http.Request) {
				t.Error("server should not be called")
			},
			wantErr: true,
		},
		{
			name:  "server error is returned, not interpreted",
			query: testQuery(),
			serverHandler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:    false,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverHandler))
			defer server.Close()

			client := newTestWrapper(t, server)

			resp, err := client.DoREPORT(context.Background(), "/calendar/", 1, tt.query)

			if (err != nil) != tt.wantErr {
				t.Errorf("DoREPORT() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("DoREPORT() status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.validateBody != nil && !tt.validateBody(resp.Body) {
				t.Error("response validation failed")
			}
		})
	}
}
