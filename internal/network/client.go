// File: internal/network/client.go

// Package network provides the outbound HTTP client used for link probing.
// Pages are rendered through the browser; this client exists for the cheap
// HEAD/GET checks where spinning up a tab would be wasteful.
package network

import (
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"go.uber.org/zap"
)

const (
	DefaultRequestTimeout        = 15 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
	DefaultResponseHeaderTimeout = 10 * time.Second

	// Link probing fans out across one site, so per-host limits matter more
	// than the pool total.
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 30 * time.Second

	// maxRedirects caps redirect chains during probes. A link that redirects
	// forever is broken in its own way.
	maxRedirects = 10
)

// ClientConfig holds the configuration for the probe client.
type ClientConfig struct {
	// IgnoreTLSErrors skips certificate verification, matching the browser's
	// setting so both views of the site agree.
	IgnoreTLSErrors bool

	// UserAgent is sent on every probe when non-empty. Some sites answer
	// differently (or not at all) to the Go default.
	UserAgent string

	RequestTimeout        time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	Logger *zap.Logger
}

// Client wraps the standard http.Client. Embedding keeps it a drop-in
// replacement; callers remain responsible for closing response bodies.
type Client struct {
	*http.Client
}

// NewDefaultClientConfig returns a configuration suitable for probing links
// on a single site.
func NewDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		RequestTimeout:        DefaultRequestTimeout,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
	}
}

// NewClient builds the probe client. A nil config gets defaults.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = NewDefaultClientConfig()
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.TLSHandshakeTimeout <= 0 {
		config.TLSHandshakeTimeout = DefaultTLSHandshakeTimeout
	}
	if config.ResponseHeaderTimeout <= 0 {
		config.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
	}

	transport := newTransport(config)

	standardClient := &http.Client{
		Transport: transport,
		Timeout:   config.RequestTimeout,
		// Unlike a scanner, a QA probe should follow redirects: a link whose
		// target 301s to a live page is not broken. Only unbounded chains are.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
	return &Client{Client: standardClient}
}

func newTransport(config *ClientConfig) http.RoundTripper {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ClientSessionCache: tls.NewLRUClientSessionCache(64),
		InsecureSkipVerify: config.IgnoreTLSErrors,
	}

	transport := &http.Transport{
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		MaxIdleConns:          DefaultMaxIdleConns,
		MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ForceAttemptHTTP2:     true,
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		if config.Logger != nil {
			config.Logger.Warn("failed to configure HTTP/2 transport, falling back to HTTP/1.1", zap.Error(err))
		}
	}

	if config.UserAgent != "" {
		return &userAgentTransport{base: transport, agent: config.UserAgent}
	}
	return transport
}

// userAgentTransport stamps a User-Agent on requests that lack one.
type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		clone := req.Clone(req.Context())
		clone.Header.Set("User-Agent", t.agent)
		req = clone
	}
	return t.base.RoundTrip(req)
}
