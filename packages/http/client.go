package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	neturl "net/url"
	"time"
)

const (
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
)

// Doer sends a single transport request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportConfig is everything a TransportFactory needs to build a client
// for one call.
type TransportConfig struct {
	Timeout         time.Duration
	FollowRedirects bool
	MaxRedirects    int
	ValidateSSL     bool
	Proxy           string
}

// TransportFactory builds the transport for one call. The default,
// NewTransport, returns a fresh *http.Client every time so calls share no
// connections; inject a factory returning a shared client to opt into reuse.
type TransportFactory func(cfg TransportConfig) (Doer, error)

// NewTransport is the default TransportFactory.
func NewTransport(cfg TransportConfig) (Doer, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	if !cfg.ValidateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if cfg.Proxy != "" {
		proxyURL, err := neturl.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if proxyURL.Scheme == "" || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL: %q", cfg.Proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !cfg.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.MaxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	return &http.Client{
		Transport:     transport,
		Timeout:       cfg.Timeout,
		CheckRedirect: redirectPolicy,
	}, nil
}

// Client executes Requests. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	factory        TransportFactory
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
	logger         *slog.Logger
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		factory:        NewTransport,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTransportFactory replaces the per-call transport construction.
func WithTransportFactory(f TransportFactory) ClientOption {
	return func(c *Client) {
		c.factory = f
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithDefaultHeaders sets headers sent with every request unless the request
// supplies the same name.
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Do executes req end to end. On failure the error is always an *Error and
// the Response is nil.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	doer, err := c.factory(TransportConfig{
		Timeout:         req.EffectiveTimeout(),
		FollowRedirects: c.followRedirect,
		MaxRedirects:    c.maxRedirects,
		ValidateSSL:     c.validateSSL,
		Proxy:           c.proxyURL,
	})
	if err != nil {
		return nil, clientCreateFailed(err)
	}

	httpReq, err := Assemble(ctx, c.withDefaults(req))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending request", "method", httpReq.Method, "url", req.URL)

	httpResp, err := doer.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed", "method", httpReq.Method, "url", req.URL, "error", err)
		return nil, requestFailed(err)
	}

	resp, err := Normalize(start, httpResp)
	if err != nil {
		c.logger.Warn("reading response failed", "url", req.URL, "status", httpResp.StatusCode, "error", err)
		return nil, err
	}

	c.logger.Debug("received response", "url", req.URL, "status", resp.Status, "response_time_ms", resp.ResponseTime)
	return resp, nil
}

func (c *Client) withDefaults(req *Request) *Request {
	if len(c.defaultHeaders) == 0 {
		return req
	}
	merged := *req
	merged.Headers = make(map[string]string, len(req.Headers)+len(c.defaultHeaders))
	for k, v := range c.defaultHeaders {
		if !req.HasHeader(k) {
			merged.Headers[k] = v
		}
	}
	for k, v := range req.Headers {
		merged.Headers[k] = v
	}
	return &merged
}

// MakeRequest executes a wire request with a default Client.
func MakeRequest(ctx context.Context, w WireRequest) (*Response, error) {
	return NewClient().Do(ctx, w.Request())
}
