package davclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantHost string
		wantPort int
		wantPath string
		wantSSL  bool
		wantErr  bool
	}{
		{
			name:     "https default port",
			settings: Settings{URI: "https://cal.example.com/dav/calendars/alice/home/"},
			wantHost: "cal.example.com",
			wantPort: 443,
			wantPath: "/dav/calendars/alice/home/",
			wantSSL:  true,
		},
		{
			name:     "http explicit port",
			settings: Settings{URI: "http://localhost:5232/alice/cal"},
			wantHost: "localhost",
			wantPort: 5232,
			wantPath: "/alice/cal",
		},
		{
			name:     "no path",
			settings: Settings{URI: "http://localhost"},
			wantHost: "localhost",
			wantPort: 80,
			wantPath: "/",
		},
		{name: "empty", settings: Settings{}, wantErr: true},
		{name: "bad scheme", settings: Settings{URI: "ftp://example.com/"}, wantErr: true},
		{name: "no host", settings: Settings{URI: "https:///cal"}, wantErr: true},
		{name: "bad port", settings: Settings{URI: "https://example.com:99999/"}, wantErr: true},
		{name: "bad auth type", settings: Settings{URI: "https://example.com/", AuthType: "ntlm"}, wantErr: true},
		{name: "bad proxy", settings: Settings{URI: "https://example.com/", ProxyURI: "socks5://proxy:1080"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := tt.settings
			settings.Username = "alice"
			cfg, err := ParseConfig(settings)
			if tt.wantErr {
				assert.Equal(t, KindConfig, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantPort, cfg.Port)
			assert.Equal(t, tt.wantPath, cfg.BasePath)
			assert.Equal(t, tt.wantSSL, cfg.SSL)
			assert.Equal(t, AuthBasic, cfg.AuthType)
			assert.True(t, cfg.Proxy.IsAbsent())
		})
	}
}

func TestParseConfigProxyAndAuth(t *testing.T) {
	cfg, err := ParseConfig(Settings{
		URI:      "https://cal.example.com/dav/",
		ProxyURI: "http://proxy.internal:3128",
		Username: "alice",
		Password: "secret",
		AuthType: "Digest",
	})
	require.NoError(t, err)

	assert.Equal(t, AuthDigest, cfg.AuthType)
	proxy, ok := cfg.Proxy.Get()
	require.True(t, ok)
	assert.Equal(t, ProxyConfig{Host: "proxy.internal", Port: 3128}, proxy)
	assert.Equal(t, "http://proxy.internal:3128", cfg.ProxyURL().String())

	server := cfg.ServerURL()
	assert.Equal(t, "https://cal.example.com:443", server.String())
}

func TestResourcePath(t *testing.T) {
	withSlash := ConnectionConfig{BasePath: "/dav/cal/"}
	withoutSlash := ConnectionConfig{BasePath: "/dav/cal"}

	assert.Equal(t, "/dav/cal/abc.ics", withSlash.ResourcePath("abc"))
	assert.Equal(t, "/dav/cal/abc.ics", withoutSlash.ResourcePath("abc"))
	assert.Equal(t, "/dav/cal/a%2Fb.ics", withSlash.ResourcePath("a/b"))
	assert.Nil(t, withSlash.ProxyURL())
}
