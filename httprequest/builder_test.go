package httprequest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chincoe/chayns-helper-sub000/host"
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestRequestBuilder(t *testing.T) {
	t.Run("given builder calls, then they map onto config and options", func(t *testing.T) {
		mock := NewMockTransport().StubJSON("/users/42", 200, `{"id":42,"name":"Jane"}`)
		rt := host.NewStatic(host.Env{UserID: 42}, host.WithToken("t"))
		client := New(WithMockTransport(mock), WithHost(rt), WithLogger(zerolog.Nop()),
			WithDefaults(Defaults{Address: "https://api.test"}))

		var got user
		res, err := client.Request("UpdateUser").
			WithChaynsAuth().
			Header("X-Source", "builder").
			Body(user{ID: 42, Name: "Jane"}).
			Decode(&got).
			Put(context.Background(), "/users/##userId##")

		require.NoError(t, err)
		assert.Same(t, &got, res)
		assert.Equal(t, user{ID: 42, Name: "Jane"}, got)

		req := mock.LastRequest()
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "builder", req.Header.Get("X-Source"))
		assert.Equal(t, "Bearer t", req.Header.Get("Authorization"))
		assert.JSONEq(t, `{"id":42,"name":"Jane"}`, string(mock.LastBody()))
	})

	t.Run("given handlers, then they resolve failed requests", func(t *testing.T) {
		mock := NewMockTransport().
			StubJSON("/gone", 404, `{}`).
			StubJSON("/code", 400, `{"errorCode":"tapp_api/invalid","requestId":"r"}`)
		client := New(WithMockTransport(mock), WithLogger(zerolog.Nop()))
		ctx := context.Background()

		res, err := client.Request("Gone").
			OnStatus("404", Custom(constHandler("fallback"))).
			LogLevel("404", LogLevelNone).
			Get(ctx, "https://api.test/gone")
		require.NoError(t, err)
		assert.Equal(t, "fallback", res)

		res, err = client.Request("Code").
			OnError(`/^tapp_api\//`, Decode(ResponseTypeNoneWithStatus)).
			Delete(ctx, "https://api.test/code")
		require.NoError(t, err)
		assert.Equal(t, &StatusResult{Status: 400}, res)
	})

	t.Run("given replacements and throw policy, then both apply", func(t *testing.T) {
		mock := NewMockTransport().StubJSON("/v2/items", 409, `{}`)
		client := New(WithMockTransport(mock), WithLogger(zerolog.Nop()))

		res, err := client.Request("Items").
			ReplaceKey(Literal("/v1/"), "/v2/").
			ThrowErrors(ThrowExcept(409)).
			ResponseType(ResponseTypeText).
			Post(context.Background(), "https://api.test/v1/items")

		require.NoError(t, err)
		assert.Equal(t, "", res)
		assert.Equal(t, http.MethodPost, mock.LastRequest().Method)
	})

	t.Run("given escaped regex replacement, then the path segment is rewritten", func(t *testing.T) {
		mock := NewMockTransport().StubJSON("/v2/items", 200, `{}`)
		client := New(WithMockTransport(mock), WithLogger(zerolog.Nop()))

		_, err := client.Request("Items").
			Replace(`/\/v1\//`, "/v2/").
			Get(context.Background(), "https://api.test/v1/items")

		require.NoError(t, err)
		assert.Equal(t, "https://api.test/v2/items", mock.LastRequest().URL.String())
	})

	t.Run("given error dialog and side effects, then both run", func(t *testing.T) {
		mock := NewMockTransport().StubJSON("/x", 403, `{"errorCode":"auth/denied","requestId":"r","displayMessage":"Denied"}`)
		rt := host.NewStatic(host.Env{})
		client := New(WithMockTransport(mock), WithHost(rt), WithLogger(zerolog.Nop()))

		var status int
		_, err := client.Request("Denied").
			ErrorDialog("auth/denied").
			SideEffects(SideEffect(func(s int, _ *ChaynsErrorObject) { status = s })).
			Patch(context.Background(), "https://api.test/x")

		assert.True(t, IsChaynsError(err, "auth/denied"))
		assert.Equal(t, 403, status)
		assert.Equal(t, []host.Alert{{Message: "Denied"}}, rt.Alerts())
	})

	t.Run("given options after builder calls, then options replace them", func(t *testing.T) {
		mock := NewMockTransport().StubJSON("/x", 200, `{"a":1}`)
		client := New(WithMockTransport(mock), WithLogger(zerolog.Nop()))

		res, err := client.Request("Options").
			ResponseType(ResponseTypeText).
			Options(Options{ResponseType: ResponseTypeNoneWithStatus}).
			AutoRefreshToken(false).
			Get(context.Background(), "https://api.test/x")

		require.NoError(t, err)
		assert.Equal(t, &StatusResult{Status: 200}, res)
	})
}

func TestFetchJSON(t *testing.T) {
	mock := NewMockTransport().
		StubJSON("/users/1", 200, `{"id":1,"name":"Jane"}`).
		StubJSON("/users/2", 404, `{}`).
		StubJSON("/users", 200, `[{"id":1,"name":"Jane"},{"id":2,"name":"John"}]`).
		StubPathError("/down", errors.New("offline"))
	client := New(WithMockTransport(mock), WithLogger(zerolog.Nop()))
	ctx := context.Background()

	t.Run("given JSON object, then decodes into T", func(t *testing.T) {
		got, err := FetchJSON[user](ctx, client, "https://api.test/users/1", Config{}, "GetUser", Options{})

		require.NoError(t, err)
		assert.Equal(t, user{ID: 1, Name: "Jane"}, got)
	})

	t.Run("given JSON array, then decodes into a slice", func(t *testing.T) {
		got, err := FetchJSON[[]user](ctx, client, "https://api.test/users", Config{}, "ListUsers", Options{})

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("given status response type, then data is unwrapped", func(t *testing.T) {
		got, err := FetchJSON[user](ctx, client, "https://api.test/users/1", Config{}, "GetUser", Options{
			ResponseType: ResponseTypeJSONWithStatus,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, got.ID)
	})

	t.Run("given failure, then returns the error", func(t *testing.T) {
		_, err := FetchJSON[user](ctx, client, "https://api.test/users/2", Config{}, "GetUser", Options{})

		assert.Equal(t, 404, StatusCode(err))
	})

	t.Run("given excused failure, then returns zero value", func(t *testing.T) {
		got, err := FetchJSON[user](ctx, client, "https://api.test/users/2", Config{}, "GetUser", Options{
			ThrowErrors: ThrowExcept(404),
		})

		require.NoError(t, err)
		assert.Equal(t, user{}, got)
	})

	t.Run("given handler returning T, then it is passed through", func(t *testing.T) {
		got, err := FetchJSON[user](ctx, client, "https://api.test/down", Config{}, "GetUser", Options{
			StatusHandlers: NewPatternMap[Handler]().SetStatus(StatusFailedToFetch, Custom(constHandler(user{Name: "offline"}))),
		})

		require.NoError(t, err)
		assert.Equal(t, "offline", got.Name)
	})
}
