package httprequest

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Client sends requests to chayns backends and resolves their responses
// according to Options.
//
// Create a Client using New():
//
//	client := httprequest.New(
//	    httprequest.WithHost(runtime),
//	    httprequest.WithDefaults(httprequest.Defaults{
//	        Address: "https://cube.tobit.cloud/my-backend/v1.0",
//	        Options: httprequest.Options{ResponseType: httprequest.ResponseTypeJSON},
//	    }),
//	)
//
//	users, err := client.Fetch(ctx, "/users", httprequest.Config{}, "GetUsers", httprequest.Options{})
//
// A Client is safe for concurrent use.
type Client struct {
	// httpClient is the underlying HTTP client with the transport chain.
	httpClient *http.Client

	cfg    *internalConfig
	logger zerolog.Logger

	requestLogs *requestLogCounter

	mu       sync.RWMutex
	defaults Defaults

	refreshGroup singleflight.Group
}

// New creates a Client.
//
// The transport chain, outermost first: tracing and metrics, circuit
// breaker, rate limiter, base transport.
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)

	var transport http.RoundTripper = cfg.baseTransport()
	transport = newRateLimitTransport(transport, cfg.rateLimitConfig)
	transport = newCircuitBreakerTransport(transport, cfg)
	transport = newOtelTransport(transport, cfg)

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.transportConfig.Timeout,
		},
		cfg:      cfg,
		logger:   cfg.logger,
		defaults: cfg.defaults,
	}

	counter, err := newRequestLogCounter(cfg.registerer)
	if err != nil {
		c.logger.Warn().Err(err).Msg("request counter not registered")
	}
	c.requestLogs = counter

	return c
}

// HTTP returns the underlying *http.Client, e.g. for libraries that expect
// one. Requests sent through it skip option resolution and logging.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

// SetDefaults replaces the defaults merged into every subsequent request.
func (c *Client) SetDefaults(address string, cfg Config, opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults = Defaults{Address: address, Config: cfg, Options: opts}
}

// Defaults returns the current defaults.
func (c *Client) Defaults() Defaults {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaults
}

// refreshToken refreshes the access token and returns the new one.
// Concurrent refreshes share one call to the token source.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	if c.cfg.tokens == nil {
		return "", ErrNoTokenSource
	}

	v, err, shared := c.refreshGroup.Do("access_token", func() (any, error) {
		return c.cfg.tokens.RefreshAccessToken(ctx)
	})

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.cfg.metrics.recordTokenRefresh(ctx, outcome, shared)

	if err != nil {
		return "", err
	}
	token, _ := v.(string)
	return token, nil
}
