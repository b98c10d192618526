package httprequest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chincoe/chayns-helper-sub000/host"
)

func TestStartWaitCursor(t *testing.T) {
	t.Run("given no config, then the cursor is never shown", func(t *testing.T) {
		rt := host.NewStatic(host.Env{})

		stop := startWaitCursor(rt, nil)
		stop()

		_, _, shows := rt.WaitCursorState()
		assert.Equal(t, 0, shows)
	})

	t.Run("given stop before the delay, then the cursor is never shown", func(t *testing.T) {
		rt := host.NewStatic(host.Env{})

		stop := startWaitCursor(rt, &WaitCursorConfig{Delay: time.Hour})
		stop()

		visible, _, shows := rt.WaitCursorState()
		assert.False(t, visible)
		assert.Equal(t, 0, shows)
	})

	t.Run("given the delay elapsed, then the cursor is shown and hidden on stop", func(t *testing.T) {
		rt := host.NewStatic(host.Env{})

		stop := startWaitCursor(rt, &WaitCursorConfig{Delay: 5 * time.Millisecond, Text: "Loading"})
		require.Eventually(t, func() bool {
			visible, text, _ := rt.WaitCursorState()
			return visible && text == "Loading"
		}, time.Second, time.Millisecond)

		stop()
		stop()

		visible, _, shows := rt.WaitCursorState()
		assert.False(t, visible)
		assert.Equal(t, 1, shows)
	})

	t.Run("given steps, then the text changes after each step", func(t *testing.T) {
		rt := host.NewStatic(host.Env{})

		stop := startWaitCursor(rt, &WaitCursorConfig{
			Delay: time.Millisecond,
			Text:  "Loading",
			Steps: []WaitCursorStep{{After: 10 * time.Millisecond, Text: "Still loading"}},
		})
		defer stop()

		require.Eventually(t, func() bool {
			_, text, _ := rt.WaitCursorState()
			return text == "Still loading"
		}, time.Second, time.Millisecond)
		_, _, shows := rt.WaitCursorState()
		assert.Equal(t, 1, shows)
	})
}

func TestFetch_WaitCursor(t *testing.T) {
	release := make(chan struct{})
	slow := NewMockTransport()
	rt := host.NewStatic(host.Env{})
	client := New(
		WithTransport(roundTripFunc(func(req *http.Request) (*http.Response, error) {
			<-release
			return slow.RoundTrip(req)
		})),
		WithHost(rt),
		WithLogger(zerolog.Nop()),
	)
	slow.StubJSON("/slow", 200, `{}`)

	done := make(chan error, 1)
	go func() {
		_, err := client.Fetch(context.Background(), "https://api.test/slow", Config{}, "Slow", Options{
			WaitCursor: &WaitCursorConfig{Delay: time.Millisecond, Text: "Loading"},
		})
		done <- err
	}()

	require.Eventually(t, func() bool {
		visible, _, _ := rt.WaitCursorState()
		return visible
	}, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, <-done)

	visible, _, shows := rt.WaitCursorState()
	assert.False(t, visible)
	assert.Equal(t, 1, shows)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
