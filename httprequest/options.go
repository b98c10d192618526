package httprequest

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/chincoe/chayns-helper-sub000/host"
)

const (
	scope = "github.com/chincoe/chayns-helper-sub000/httprequest"
)

// TransportConfig holds the connection settings of the underlying
// http.Transport.
//
// Use one of the presets and adjust individual fields:
//
//	cfg := httprequest.DefaultTransportConfig()
//	cfg.Timeout = 30 * time.Second
//	client := httprequest.New(httprequest.WithTransportConfig(cfg))
type TransportConfig struct {
	// Timeout is the overall request timeout, including reading the body.
	// Zero means no timeout; cancellation is then left to the caller's context.
	Timeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	DialTimeout time.Duration
	KeepAlive   time.Duration

	ForceHTTP2 bool
}

// DefaultTransportConfig returns settings suited for talking to a handful of
// chayns backends from one process.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout: 0,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout: 10 * time.Second,

		DialTimeout: 5 * time.Second,
		KeepAlive:   30 * time.Second,
	}
}

// ConservativeTransportConfig returns settings for low-traffic callers such
// as CLIs and cron jobs.
func ConservativeTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout: 30 * time.Second,

		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout: 10 * time.Second,

		DialTimeout: 5 * time.Second,
		KeepAlive:   30 * time.Second,
	}
}

// internalConfig holds the resolved client configuration.
type internalConfig struct {
	transportConfig TransportConfig
	transport       http.RoundTripper
	mockTransport   *MockTransport

	defaults Defaults

	logger       zerolog.Logger
	debug        bool
	generateCurl bool

	tokens  host.TokenSource
	env     func() host.Env
	cursor  host.WaitCursor
	dialogs host.Dialogs

	interceptors []RequestInterceptor

	breakerConfig   *BreakerConfig
	rateLimitConfig RateLimitConfig

	serviceName    string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	metrics        *metrics
	registerer     prometheus.Registerer
}

func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		transportConfig: DefaultTransportConfig(),
		logger:          zerolog.New(os.Stdout).With().Timestamp().Logger(),
		tracerProvider:  otel.GetTracerProvider(),
		meterProvider:   otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.tracer = cfg.tracerProvider.Tracer(scope)
	cfg.metrics, _ = newMetrics(cfg.meterProvider.Meter(scope))

	return cfg
}

// buildTransport creates an http.Transport from the transport settings.
func (cfg *internalConfig) buildTransport() *http.Transport {
	tc := cfg.transportConfig

	dialer := &net.Dialer{
		Timeout:   tc.DialTimeout,
		KeepAlive: tc.KeepAlive,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          tc.MaxIdleConns,
		MaxIdleConnsPerHost:   tc.MaxIdleConnsPerHost,
		MaxConnsPerHost:       tc.MaxConnsPerHost,
		IdleConnTimeout:       tc.IdleConnTimeout,
		TLSHandshakeTimeout:   tc.TLSHandshakeTimeout,
		ResponseHeaderTimeout: tc.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     tc.ForceHTTP2,
	}
}

// baseTransport picks the innermost round tripper.
func (cfg *internalConfig) baseTransport() http.RoundTripper {
	switch {
	case cfg.mockTransport != nil:
		return cfg.mockTransport
	case cfg.transport != nil:
		return cfg.transport
	default:
		return cfg.buildTransport()
	}
}

func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	if cfg.serviceName == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String("http.client.name", cfg.serviceName)}
}

// Option configures a Client.
type Option func(*internalConfig)

// WithDefaults sets the defaults merged into every request.
func WithDefaults(d Defaults) Option {
	return func(cfg *internalConfig) {
		cfg.defaults = d
	}
}

// WithHost wires the host runtime: environment placeholders, access token,
// wait cursor and alert dialogs.
func WithHost(rt host.Runtime) Option {
	return func(cfg *internalConfig) {
		if rt == nil {
			return
		}
		cfg.tokens = rt
		cfg.env = rt.Env
		cfg.cursor = rt
		cfg.dialogs = rt
	}
}

// WithTokenSource sets only the access token source, for processes without
// a full host runtime.
func WithTokenSource(ts host.TokenSource) Option {
	return func(cfg *internalConfig) {
		cfg.tokens = ts
	}
}

// WithLogger sets the logger requests are logged with.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.logger = l
	}
}

// WithDebug logs every outgoing request and incoming response at debug level.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.debug = enabled
	}
}

// WithGenerateCurl stores a cURL equivalent of every request on the Response.
func WithGenerateCurl(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.generateCurl = enabled
	}
}

// WithTransportConfig sets the connection settings.
func WithTransportConfig(c TransportConfig) Option {
	return func(cfg *internalConfig) {
		cfg.transportConfig = c
	}
}

// WithTransport replaces the underlying round tripper. Tracing, metrics,
// rate limiting and the circuit breaker still wrap it.
func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *internalConfig) {
		cfg.transport = rt
	}
}

// WithMockTransport makes the client send every request to mock.
func WithMockTransport(mock *MockTransport) Option {
	return func(cfg *internalConfig) {
		cfg.mockTransport = mock
	}
}

// WithRequestInterceptor adds an interceptor run on every outgoing request.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.interceptors = append(cfg.interceptors, i)
	}
}

// WithServiceName sets the http.client.name attribute on spans and metrics.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.serviceName = name
	}
}

// WithTracerProvider sets the tracer provider. Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider. Default: the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.meterProvider = mp
	}
}

// WithPrometheusRegisterer counts logged requests per level and status in a
// chayns_helper_requests_total counter registered with reg.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(cfg *internalConfig) {
		cfg.registerer = reg
	}
}

// WithCircuitBreaker wraps the transport in a circuit breaker. Requests
// rejected by an open breaker resolve as StatusFailedToFetch.
func WithCircuitBreaker(c BreakerConfig) Option {
	return func(cfg *internalConfig) {
		cfg.breakerConfig = &c
	}
}

// WithRateLimit limits outgoing requests on the client side.
func WithRateLimit(c RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.rateLimitConfig = c
	}
}
