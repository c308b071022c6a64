package davclient

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/beevik/etree"
	"github.com/cyp0633/caldora-client/internal/httpclient"
)

// mockCall records one request seen by mockHTTPClient
type mockCall struct {
	Method string
	URL    string
	Depth  int
	Body   []byte
}

// Mock types for testing. Every hook is optional; an unset hook answers 200
// with an empty body.
type mockHTTPClient struct {
	mu    sync.Mutex
	calls []mockCall

	get    func(url string) (*httpclient.Response, error)
	put    func(url string, data []byte) (*httpclient.Response, error)
	delete func(url string) (*httpclient.Response, error)
	report func(url string, depth int, query *etree.Document) (*httpclient.Response, error)
}

func (m *mockHTTPClient) record(call mockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// methods lists the methods of all recorded calls in order
func (m *mockHTTPClient) methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, call := range m.calls {
		out = append(out, call.Method)
	}
	return out
}

func (m *mockHTTPClient) count(method string) int {
	n := 0
	for _, got := range m.methods() {
		if got == method {
			n++
		}
	}
	return n
}

func (m *mockHTTPClient) DoGET(_ context.Context, url string) (*httpclient.Response, error) {
	m.record(mockCall{Method: "GET", URL: url})
	if m.get != nil {
		return m.get(url)
	}
	return statusResponse(200, ""), nil
}

func (m *mockHTTPClient) DoPUT(_ context.Context, url string, data []byte) (*httpclient.Response, error) {
	m.record(mockCall{Method: "PUT", URL: url, Body: data})
	if m.put != nil {
		return m.put(url, data)
	}
	return statusResponse(201, ""), nil
}

func (m *mockHTTPClient) DoDELETE(_ context.Context, url string) (*httpclient.Response, error) {
	m.record(mockCall{Method: "DELETE", URL: url})
	if m.delete != nil {
		return m.delete(url)
	}
	return statusResponse(204, ""), nil
}

func (m *mockHTTPClient) DoREPORT(_ context.Context, url string, depth int, query *etree.Document) (*httpclient.Response, error) {
	body, _ := query.WriteToBytes()
	m.record(mockCall{Method: "REPORT", URL: url, Depth: depth, Body: body})
	if m.report != nil {
		return m.report(url, depth, query)
	}
	return statusResponse(207, multistatus()), nil
}

func statusResponse(code int, body string) *httpclient.Response {
	return &httpclient.Response{StatusCode: code, Body: []byte(body)}
}

// newMockClient builds a Client around mock for the collection at
// https://cal.example.com/dav/cal/ with fixed UIDs.
func newMockClient(mock *mockHTTPClient, opts ...Option) *Client {
	conn, err := ParseConfig(Settings{
		URI:      "https://cal.example.com/dav/cal/",
		Username: "user1",
		Password: "password1",
	})
	if err != nil {
		panic(err)
	}
	o := options{
		retry:    DefaultRetryPolicy(),
		strategy: UpdateOverwrite,
		newUID:   func() string { return "uid-1" },
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return newClient(conn, mock, o)
}

// multistatus wraps calendar-data payloads in a REPORT response, one
// D:response per payload
func multistatus(payloads ...string) string {
	out := `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">`
	for i, data := range payloads {
		out += `<D:response><D:href>/dav/cal/` + string(rune('a'+i)) + `.ics</D:href><D:propstat><D:prop>` +
			`<D:getetag>"` + string(rune('a'+i)) + `"</D:getetag>` +
			`<C:calendar-data><![CDATA[` + data + `]]></C:calendar-data>` +
			`</D:prop><D:status>HTTP/1.1 200 OK</D:status></D:propstat></D:response>`
	}
	return out + `</D:multistatus>`
}

func veventCalendar(uid, summary string) string {
	return "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//Test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:" + uid + "\r\n" +
		"DTSTAMP:20240101T000000Z\r\n" +
		"DTSTART:20240101T100000Z\r\n" +
		"DTEND:20240101T110000Z\r\n" +
		"SUMMARY:" + summary + "\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
}

func vtodoCalendar(uid, summary string) string {
	return "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//Test//EN\r\n" +
		"BEGIN:VTODO\r\n" +
		"UID:" + uid + "\r\n" +
		"DTSTAMP:20240101T000000Z\r\n" +
		"SUMMARY:" + summary + "\r\n" +
		"END:VTODO\r\n" +
		"END:VCALENDAR\r\n"
}
