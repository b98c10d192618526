package httprequest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()

	assert.InDelta(t, float64(50), cfg.RequestsPerSecond, 0.0001)
	assert.Equal(t, 10, cfg.Burst)
	assert.True(t, cfg.WaitOnLimit)
}

func TestRateLimit_FailFast(t *testing.T) {
	mock := NewMockTransport().StubJSON("/x", 200, `{}`)
	client := New(
		WithMockTransport(mock),
		WithRateLimit(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}),
		WithLogger(zerolog.Nop()),
	)
	ctx := context.Background()
	opts := Options{ThrowErrors: ThrowNone(), ResponseType: ResponseTypeResponse}

	res, err := client.Fetch(ctx, "https://api.test/x", Config{}, "Limited", opts)
	require.NoError(t, err)
	assert.Equal(t, 200, res.(*Response).StatusCode)

	res, err = client.Fetch(ctx, "https://api.test/x", Config{}, "Limited", opts)
	require.NoError(t, err)
	resp := res.(*Response)
	assert.Equal(t, StatusFailedToFetch, resp.StatusCode)
	assert.ErrorIs(t, resp.TransportError(), ErrRateLimited)
	assert.Equal(t, 1, mock.RequestCount())
}

func TestRateLimit_WaitBeyondDeadline(t *testing.T) {
	mock := NewMockTransport().StubJSON("/x", 200, `{}`)
	client := New(
		WithMockTransport(mock),
		WithRateLimit(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, WaitOnLimit: true}),
		WithLogger(zerolog.Nop()),
	)

	_, err := client.Fetch(context.Background(), "https://api.test/x", Config{}, "Limited", Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Fetch(ctx, "https://api.test/x", Config{}, "Limited", Options{})

	assert.Equal(t, StatusFailedToFetch, StatusCode(err))
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, mock.RequestCount())
}

func TestRateLimit_Disabled(t *testing.T) {
	mock := NewMockTransport().StubJSON("/x", 200, `{}`)
	client := New(WithMockTransport(mock), WithLogger(zerolog.Nop()))

	for range 20 {
		_, err := client.Fetch(context.Background(), "https://api.test/x", Config{}, "Unlimited", Options{})
		require.NoError(t, err)
	}

	assert.Equal(t, 20, mock.RequestCount())
}

func TestRateLimit_PerHost(t *testing.T) {
	mock := NewMockTransport().StubJSON("/x", 200, `{}`)
	client := New(
		WithMockTransport(mock),
		WithRateLimit(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, PerHost: true}),
		WithLogger(zerolog.Nop()),
	)
	ctx := context.Background()

	_, errA := client.Fetch(ctx, "https://a.test/x", Config{}, "A", Options{})
	_, errB := client.Fetch(ctx, "https://b.test/x", Config{}, "B", Options{})
	_, errA2 := client.Fetch(ctx, "https://a.test/x", Config{}, "A", Options{})

	require.NoError(t, errA)
	require.NoError(t, errB, "hosts have separate buckets")
	assert.ErrorIs(t, errA2, ErrRateLimited)
	assert.Equal(t, 2, mock.RequestCount())
}
