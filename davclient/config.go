package davclient

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// AuthType selects how requests are authenticated
type AuthType string

const (
	AuthBasic  AuthType = "basic"
	AuthDigest AuthType = "digest"
)

// ParseAuthType accepts "basic" and "digest"; an empty string means basic
func ParseAuthType(s string) (AuthType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(AuthBasic):
		return AuthBasic, nil
	case string(AuthDigest):
		return AuthDigest, nil
	}
	return "", configErrorf("unsupported auth type %q: use basic or digest", s)
}

// Settings are the construction inputs of a Client
type Settings struct {
	// URI of the calendar collection, e.g. https://cal.example.com/dav/calendars/alice/home/
	URI string
	// ProxyURI optionally routes requests through an HTTP proxy
	ProxyURI string
	Username string
	Password string
	// AuthType is "basic" (default) or "digest"
	AuthType string
	// InsecureSkipVerify disables TLS certificate verification. Off by default.
	InsecureSkipVerify bool
}

// ProxyConfig addresses an HTTP proxy
type ProxyConfig struct {
	Host string
	Port int
}

// ConnectionConfig is the validated, immutable form of Settings
type ConnectionConfig struct {
	Host               string
	Port               int
	BasePath           string
	Username           string
	Password           string
	SSL                bool
	Proxy              mo.Option[ProxyConfig]
	AuthType           AuthType
	InsecureSkipVerify bool
}

// ParseConfig validates settings into a ConnectionConfig
func ParseConfig(s Settings) (ConnectionConfig, error) {
	authType, err := ParseAuthType(s.AuthType)
	if err != nil {
		return ConnectionConfig{}, err
	}

	host, port, path, ssl, err := splitURI(s.URI)
	if err != nil {
		return ConnectionConfig{}, err
	}
	if s.Username == "" {
		return ConnectionConfig{}, configErrorf("username is required")
	}

	cfg := ConnectionConfig{
		Host:               host,
		Port:               port,
		BasePath:           path,
		Username:           s.Username,
		Password:           s.Password,
		SSL:                ssl,
		Proxy:              mo.None[ProxyConfig](),
		AuthType:           authType,
		InsecureSkipVerify: s.InsecureSkipVerify,
	}

	if s.ProxyURI != "" {
		proxyHost, proxyPort, _, _, err := splitURI(s.ProxyURI)
		if err != nil {
			return ConnectionConfig{}, configErrorf("proxy: %v", err)
		}
		cfg.Proxy = mo.Some(ProxyConfig{Host: proxyHost, Port: proxyPort})
	}

	return cfg, nil
}

func splitURI(raw string) (host string, port int, path string, ssl bool, err error) {
	if strings.TrimSpace(raw) == "" {
		return "", 0, "", false, configErrorf("URI is required")
	}
	u, perr := url.Parse(raw)
	if perr != nil {
		return "", 0, "", false, configErrorf("invalid URI %q: %v", raw, perr)
	}
	switch u.Scheme {
	case "http":
		port = 80
	case "https":
		ssl = true
		port = 443
	default:
		return "", 0, "", false, configErrorf("unsupported URI scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", 0, "", false, configErrorf("URI %q has no host", raw)
	}
	if p := u.Port(); p != "" {
		port, perr = strconv.Atoi(p)
		if perr != nil || port <= 0 || port > 65535 {
			return "", 0, "", false, configErrorf("invalid port in URI %q", raw)
		}
	}
	path = u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return u.Hostname(), port, path, ssl, nil
}

func (c ConnectionConfig) scheme() string {
	if c.SSL {
		return "https"
	}
	return "http"
}

// ServerURL is the scheme://host:port the client talks to
func (c ConnectionConfig) ServerURL() url.URL {
	return url.URL{
		Scheme: c.scheme(),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
	}
}

// ProxyURL returns the proxy as a URL, or nil when none is configured
func (c ConnectionConfig) ProxyURL() *url.URL {
	proxy, ok := c.Proxy.Get()
	if !ok {
		return nil
	}
	return &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(proxy.Host, strconv.Itoa(proxy.Port)),
	}
}

// ResourcePath returns {base path}/{uid}.ics
func (c ConnectionConfig) ResourcePath(uid string) string {
	return strings.TrimRight(c.BasePath, "/") + "/" + url.PathEscape(uid) + ".ics"
}
