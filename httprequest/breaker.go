package httprequest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// errBreakerOpen wraps rejections of an open or saturated half-open breaker.
var errBreakerOpen = errors.New("httprequest: circuit breaker open")

// errBreakerFailure marks a response the classifier counted as a failure.
var errBreakerFailure = errors.New("httprequest: breaker failure")

// NewRedisBreakerStore creates a shared breaker state store, so several
// instances of a service trip and recover together.
func NewRedisBreakerStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// BreakerClassifier decides whether a round trip counts as a failure.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig configures the optional circuit breaker.
//
// A request rejected by the breaker never reaches the network and resolves
// like any other transport failure: status StatusFailedToFetch.
type BreakerConfig struct {
	// Name identifies the breaker in metrics and in the shared store.
	// Default: the client's service name, or "chayns-helper".
	Name string

	// MaxRequests allowed in the half-open state.
	MaxRequests uint32

	// Interval after which closed-state counts are cleared.
	Interval time.Duration

	// Timeout of the open state before moving to half-open.
	Timeout time.Duration

	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32

	// Store makes the breaker distributed. Nil keeps the state in memory.
	Store gobreaker.SharedDataStore

	// Classifier counts failures. Default: DefaultBreakerClassifier
	Classifier BreakerClassifier
}

// DefaultBreakerConfig returns an in-memory breaker tripping after five
// consecutive failures.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DistributedBreakerConfig is DefaultBreakerConfig with a shared store.
func DistributedBreakerConfig(store gobreaker.SharedDataStore) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Store = store
	return cfg
}

// DefaultBreakerClassifier counts transport errors and 5xx responses.
// Caller cancellation is not a failure of the backend.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	return resp != nil && resp.StatusCode >= 500
}

type breaker interface {
	Execute(req func() (*http.Response, error)) (*http.Response, error)
}

type circuitBreakerTransport struct {
	breaker    breaker
	next       http.RoundTripper
	classifier BreakerClassifier
	metrics    *metrics
	name       string
}

func (t *circuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var failed *http.Response
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose
		if t.classifier(resp, err) {
			if err != nil {
				return nil, err
			}
			failed = resp
			return nil, errBreakerFailure
		}
		return resp, err
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		t.metrics.recordBreakerRequest(ctx, t.name, "rejected")
		return nil, fmt.Errorf("%w: %s: %w", errBreakerOpen, t.name, err)
	case errors.Is(err, errBreakerFailure):
		t.metrics.recordBreakerRequest(ctx, t.name, "failure")
		return failed, nil
	case err != nil:
		t.metrics.recordBreakerRequest(ctx, t.name, "failure")
		return nil, err
	}

	t.metrics.recordBreakerRequest(ctx, t.name, "success")
	return resp, nil
}

func newCircuitBreakerTransport(next http.RoundTripper, cfg *internalConfig) http.RoundTripper {
	bc := cfg.breakerConfig
	if bc == nil {
		return next
	}

	name := bc.Name
	if name == "" {
		name = cfg.serviceName
	}
	if name == "" {
		name = "chayns-helper"
	}

	classifier := bc.Classifier
	if classifier == nil {
		classifier = DefaultBreakerClassifier
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return bc.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= bc.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.metrics.recordBreakerState(context.Background(), name, int64(to))
			cfg.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	var cb breaker = gobreaker.NewCircuitBreaker[*http.Response](st)
	if bc.Store != nil {
		dcb, err := gobreaker.NewDistributedCircuitBreaker[*http.Response](bc.Store, st)
		if err != nil {
			cfg.logger.Warn().Err(err).Str("breaker", name).Msg("falling back to in-memory circuit breaker")
		} else {
			cb = dcb
		}
	}

	return &circuitBreakerTransport{
		breaker:    cb,
		next:       next,
		classifier: classifier,
		metrics:    cfg.metrics,
		name:       name,
	}
}
