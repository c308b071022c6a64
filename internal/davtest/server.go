package davtest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/icholy/digest"
)

// AuthMode selects how the server checks credentials
type AuthMode int

const (
	AuthBasic AuthMode = iota
	AuthDigest
)

const (
	realm = "davtest"
	nonce = "dcd98b7102dd2f0e8b11d0f600bfb0c093"
)

// Server serves one calendar collection from a Store
type Server struct {
	Store    *Store
	Username string
	Password string
	Auth     AuthMode
	Logger   *slog.Logger

	mu       sync.Mutex
	requests []string
}

// NewServer creates a server for the given credentials
func NewServer(username, password string, mode AuthMode, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		Store:    NewStore(),
		Username: username,
		Password: password,
		Auth:     mode,
		Logger:   logger,
	}
}

// Start runs the server on a loopback listener. Close the result when done.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s)
}

// Requests returns "METHOD path" for every request received, including
// rejected ones
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.mu.Unlock()

	if !s.authorized(r) {
		if s.Auth == AuthDigest {
			w.Header().Set("WWW-Authenticate", `Digest realm="`+realm+`", nonce="`+nonce+`", qop="auth", algorithm=MD5`)
		} else {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.Logger.Debug("davtest request", "method", r.Method, "path", r.URL.Path)

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPut:
		s.handlePut(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	case "REPORT":
		s.handleReport(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE, REPORT")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.Auth == AuthBasic {
		user, pass, ok := r.BasicAuth()
		return ok && user == s.Username && pass == s.Password
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return false
	}
	cred, err := digest.ParseCredentials(header)
	if err != nil || cred.Username != s.Username {
		return false
	}
	chal := &digest.Challenge{
		Realm:     realm,
		Nonce:     nonce,
		Algorithm: "MD5",
		QOP:       []string{"auth"},
	}
	want, err := digest.Digest(chal, digest.Options{
		Method:   r.Method,
		URI:      r.URL.RequestURI(),
		Username: s.Username,
		Password: s.Password,
		Count:    cred.Nc,
		Cnonce:   cred.Cnonce,
	})
	return err == nil && want.Response == cred.Response
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.Store.Get(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("ETag", obj.ETag)
	_, _ = w.Write(obj.Data)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.Store.Put(r.URL.Path, data) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.Store.Delete(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r.Body); err != nil {
		http.Error(w, "malformed REPORT body", http.StatusBadRequest)
		return
	}

	comp := "VEVENT"
	var start, end time.Time
	if filter := doc.FindElement("//comp-filter/comp-filter"); filter != nil {
		comp = filter.SelectAttrValue("name", comp)
		if tr := filter.SelectElement("time-range"); tr != nil {
			start = parseUTC(tr.SelectAttrValue("start", ""))
			end = parseUTC(tr.SelectAttrValue("end", ""))
		}
	}

	prefix := strings.TrimRight(r.URL.Path, "/") + "/"
	resp := etree.NewDocument()
	resp.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	ms := resp.CreateElement("D:multistatus")
	ms.CreateAttr("xmlns:D", "DAV:")
	ms.CreateAttr("xmlns:C", "urn:ietf:params:xml:ns:caldav")

	for _, obj := range s.Store.Objects() {
		if !strings.HasPrefix(obj.Path, prefix) || !obj.Match(comp, start, end) {
			continue
		}
		response := ms.CreateElement("D:response")
		response.CreateElement("D:href").SetText(obj.Path)
		propstat := response.CreateElement("D:propstat")
		prop := propstat.CreateElement("D:prop")
		prop.CreateElement("D:getetag").SetText(obj.ETag)
		prop.CreateElement("C:calendar-data").SetText(string(obj.Data))
		propstat.CreateElement("D:status").SetText("HTTP/1.1 200 OK")
	}

	body, err := resp.WriteToBytes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusMultiStatus)
	_, _ = w.Write(body)
}

func parseUTC(s string) time.Time {
	t, err := time.Parse("20060102T150405Z", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
