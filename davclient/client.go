package davclient

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/cyp0633/caldora-client/internal/httpclient"
	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DAVClient interface defines the CalDAV client operations
type DAVClient interface {
	FindEvents(ctx context.Context, start, end any, opts ...QueryOption) ([]ical.Event, error)
	FindEvent(ctx context.Context, uid string) (*ical.Event, error)
	CreateEvent(ctx context.Context, build func(*ical.Event)) (*ical.Event, error)
	AddEvent(ctx context.Context, event *ical.Event) (*ical.Event, error)
	UpdateEvent(ctx context.Context, event *ical.Event) (*ical.Event, error)
	DeleteEvent(ctx context.Context, uid string) (bool, error)

	FindTodos(ctx context.Context) ([]*ical.Component, error)
	FindTodo(ctx context.Context, uid string) (*ical.Component, error)
	CreateTodo(ctx context.Context, attrs TodoAttributes) (*ical.Component, error)
	UpdateTodo(ctx context.Context, todo *ical.Component) (*ical.Component, error)
	DeleteTodo(ctx context.Context, uid string) (bool, error)
}

// UpdateStrategy selects how an existing resource is replaced
type UpdateStrategy int

const (
	// UpdateOverwrite replaces the resource with a single PUT to its UID
	UpdateOverwrite UpdateStrategy = iota
	// UpdateDeleteCreate deletes the resource and stores it again under the
	// same UID. It is not atomic: if the second step fails the resource is
	// gone and the error has KindPartialUpdate.
	UpdateDeleteCreate
)

// ParseUpdateStrategy accepts "overwrite" (or empty) and "delete-create"
func ParseUpdateStrategy(s string) (UpdateStrategy, error) {
	switch s {
	case "", "overwrite":
		return UpdateOverwrite, nil
	case "delete-create":
		return UpdateDeleteCreate, nil
	}
	return 0, configErrorf("unsupported update strategy %q", s)
}

// Client talks to one calendar collection. It holds no mutable state and may
// be used from several goroutines.
type Client struct {
	conn     ConnectionConfig
	http     httpclient.HttpClientWrapper
	retry    RetryPolicy
	strategy UpdateStrategy
	newUID   func() string
	logger   *slog.Logger
}

var _ DAVClient = (*Client)(nil)

type options struct {
	logger     *slog.Logger
	httpClient webdav.HTTPClient
	timeout    time.Duration
	retry      RetryPolicy
	limiter    *rate.Limiter
	strategy   UpdateStrategy
	newUID     func() string
}

// Option configures a Client
type Option func(*options)

// WithLogger sets the logger. If nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient replaces the built-in transport. Proxy, TLS and timeout
// settings are then the caller's responsibility.
func WithHTTPClient(client webdav.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTimeout bounds every request/response cycle of the built-in transport
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithRetry sets the retry policy of all network operations
func WithRetry(policy RetryPolicy) Option {
	return func(o *options) {
		o.retry = policy
	}
}

// WithRateLimit throttles outgoing requests to rps per second with the given burst
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUpdateStrategy selects how UpdateEvent and UpdateTodo replace resources
func WithUpdateStrategy(strategy UpdateStrategy) Option {
	return func(o *options) {
		o.strategy = strategy
	}
}

// WithUIDGenerator replaces the UUID generator used for new resources
func WithUIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.newUID = gen
	}
}

// NewClient validates settings and creates a client for the collection at settings.URI
func NewClient(settings Settings, opts ...Option) (*Client, error) {
	conn, err := ParseConfig(settings)
	if err != nil {
		return nil, err
	}

	o := options{
		retry:    DefaultRetryPolicy(),
		strategy: UpdateOverwrite,
		newUID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.newUID == nil {
		o.newUID = uuid.NewString
	}

	if o.httpClient == nil {
		o.httpClient = httpclient.NewHTTPClient(httpclient.TransportConfig{
			ProxyURL:           conn.ProxyURL(),
			InsecureSkipVerify: conn.InsecureSkipVerify,
			Timeout:            o.timeout,
			Logger:             o.logger,
		})
	}

	authorizer, err := httpclient.NewAuthorizer(httpclient.AuthKind(conn.AuthType), conn.Username, conn.Password, o.httpClient, o.logger)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: "authentication", Err: err}
	}

	wrapper, err := httpclient.NewHttpClientWrapper(o.httpClient, conn.ServerURL(), authorizer, o.limiter, o.logger)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: "http client", Err: err}
	}

	return newClient(conn, wrapper, o), nil
}

func newClient(conn ConnectionConfig, wrapper httpclient.HttpClientWrapper, o options) *Client {
	c := &Client{
		conn:     conn,
		http:     wrapper,
		retry:    o.retry,
		strategy: o.strategy,
		newUID:   o.newUID,
		logger:   o.logger,
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = func(attempt int, err error) {
			c.logger.Debug("retrying request", "attempt", attempt, "error", err)
		}
	}
	return c
}

// Config returns the connection configuration the client was built with
func (c *Client) Config() ConnectionConfig {
	return c.conn
}
