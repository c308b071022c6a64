package httpclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/emersion/go-webdav"
	"github.com/icholy/digest"
)

// AuthKind selects the HTTP authentication scheme
type AuthKind string

const (
	AuthBasic  AuthKind = "basic"
	AuthDigest AuthKind = "digest"
)

var (
	// ErrNoChallenge is returned when a digest probe does not yield a usable challenge
	ErrNoChallenge = errors.New("digest: server did not issue a usable challenge")

	// ErrUnknownAuthKind is returned for schemes other than basic and digest
	ErrUnknownAuthKind = errors.New("unknown authentication scheme")
)

// Authorizer produces the Authorization header value for a request
type Authorizer interface {
	Authorization(ctx context.Context, method string, target *url.URL) (string, error)
}

// NewAuthorizer returns the Authorizer for kind. The client is only used by
// digest authentication to probe for challenges.
func NewAuthorizer(kind AuthKind, username, password string, client webdav.HTTPClient, logger *slog.Logger) (Authorizer, error) {
	switch kind {
	case AuthBasic, "":
		return &BasicAuthorizer{Username: username, Password: password}, nil
	case AuthDigest:
		if client == nil {
			return nil, errors.New("digest authentication requires an http client")
		}
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		return &DigestAuthorizer{
			Username: username,
			Password: password,
			Client:   client,
			Logger:   logger,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuthKind, kind)
	}
}

// BasicAuthorizer encodes the credentials directly, no round trip needed
type BasicAuthorizer struct {
	Username string
	Password string
}

// Authorization implements Authorizer
func (a *BasicAuthorizer) Authorization(_ context.Context, _ string, _ *url.URL) (string, error) {
	if a.Username == "" {
		return "", errors.New("basic auth username cannot be empty")
	}
	creds := a.Username + ":" + a.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)), nil
}

// DigestAuthorizer performs a throwaway GET against the target to obtain a
// fresh WWW-Authenticate challenge, then answers it for the real method.
// Challenges are never cached: many servers issue single-use nonces.
type DigestAuthorizer struct {
	Username string
	Password string
	Client   webdav.HTTPClient
	Logger   *slog.Logger
}

// Authorization implements Authorizer
func (a *DigestAuthorizer) Authorization(ctx context.Context, method string, target *url.URL) (string, error) {
	chal, err := a.probe(ctx, target)
	if err != nil {
		return "", err
	}

	cred, err := digest.Digest(chal, digest.Options{
		Method:   method,
		URI:      target.RequestURI(),
		Username: a.Username,
		Password: a.Password,
		Count:    1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to compute digest response: %w", err)
	}
	return cred.String(), nil
}

func (a *DigestAuthorizer) probe(ctx context.Context, target *url.URL) (*digest.Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest probe: %w", err)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("digest probe failed: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	a.Logger.Debug("digest probe complete",
		"url", target.String(),
		"status", resp.Status)

	chal, err := digest.FindChallenge(resp.Header)
	if err != nil {
		return nil, fmt.Errorf("%w (status %d): %w", ErrNoChallenge, resp.StatusCode, err)
	}
	return chal, nil
}
