package httprequest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var _ http.RoundTripper = (*otelTransport)(nil)

type processNameKey struct{}

// withProcessName stores the calling process name for span naming.
func withProcessName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, processNameKey{}, name)
}

func processNameFrom(ctx context.Context) string {
	name, _ := ctx.Value(processNameKey{}).(string)
	return name
}

// otelTransport wraps an http.RoundTripper with tracing and metrics.
type otelTransport struct {
	base       http.RoundTripper
	cfg        *internalConfig
	propagator propagation.TextMapPropagator
}

func newOtelTransport(base http.RoundTripper, cfg *internalConfig) *otelTransport {
	return &otelTransport{
		base: base,
		cfg:  cfg,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
}

// RoundTrip starts a client span named "HTTP {method} {process}".
func (t *otelTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	spanName := "HTTP " + req.Method
	process := processNameFrom(ctx)
	if process != "" {
		spanName += " " + process
	}

	ctx, span := t.cfg.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.requestAttributes(req, process)...),
	)
	defer span.End()

	t.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
	req = req.WithContext(ctx)

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	attrs := append(t.cfg.baseAttributes(), attribute.String("http.request.method", req.Method))

	if err != nil {
		errorType := classifyError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", errorType))
		t.cfg.metrics.recordError(ctx, errorType, attrs)
		t.cfg.metrics.recordRequestDuration(ctx, duration, append(attrs, attribute.String("error.type", errorType)))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		span.SetAttributes(attribute.String("error.type", strconv.Itoa(resp.StatusCode)))
	}

	t.cfg.metrics.recordRequestDuration(ctx, duration,
		append(attrs, attribute.Int("http.response.status_code", resp.StatusCode)))

	return resp, nil
}

func (t *otelTransport) requestAttributes(req *http.Request, process string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs, t.cfg.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))

	if process != "" {
		attrs = append(attrs, attribute.String("chayns.process_name", process))
	}

	if req.URL != nil {
		attrs = append(attrs, attribute.String("url.full", req.URL.String()))
		if host := req.URL.Hostname(); host != "" {
			attrs = append(attrs, attribute.String("server.address", host))
		}
	}

	if id := req.Header.Get(requestIDHeader); id != "" {
		attrs = append(attrs, attribute.String("http.request.id", id))
	}

	return attrs
}

// classifyError maps a transport error to a low-cardinality error.type value.
func classifyError(err error) string {
	var netErr net.Error
	var dnsErr *net.DNSError

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, errBreakerOpen):
		return "circuit_open"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection_refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection_reset"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}
