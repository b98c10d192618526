package httprequest

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse(t *testing.T) {
	newTestResponse := func(status int, body string) *Response {
		return newResponse(&http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil, "Test", "req-1")
	}

	t.Run("given body, then it is cached across reads", func(t *testing.T) {
		resp := newTestResponse(200, `{"name":"Jane"}`)

		first, err := resp.String()
		require.NoError(t, err)
		var v struct{ Name string }
		require.NoError(t, resp.JSON(&v))

		assert.Equal(t, `{"name":"Jane"}`, first)
		assert.Equal(t, "Jane", v.Name)
	})

	t.Run("given statuses, then success and error are classified", func(t *testing.T) {
		tests := []struct {
			status      int
			wantSuccess bool
			wantError   bool
		}{
			{status: 200, wantSuccess: true},
			{status: 304, wantSuccess: true},
			{status: 401, wantError: true},
			{status: 503, wantError: true},
			{status: StatusFailedToFetch, wantError: true},
		}

		for _, tt := range tests {
			resp := newTestResponse(tt.status, "")
			assert.Equal(t, tt.wantSuccess, resp.IsSuccess(), tt.status)
			assert.Equal(t, tt.wantError, resp.IsError(), tt.status)
		}
	})

	t.Run("given transport failure, then synthetic response has status 1 and empty body", func(t *testing.T) {
		offline := errors.New("offline")
		resp := newFailedResponse(nil, offline, "Test", "req-1")

		body, err := resp.Body()
		require.NoError(t, err)
		assert.Empty(t, body)
		assert.Equal(t, StatusFailedToFetch, resp.StatusCode)
		assert.Equal(t, "1 Failed to fetch", resp.Status)
		assert.ErrorIs(t, resp.TransportError(), offline)
		assert.Equal(t, "Test", resp.ProcessName())
		assert.Equal(t, "req-1", resp.RequestID())
	})

	t.Run("given JSON message member, then bodyMessage returns it", func(t *testing.T) {
		assert.Equal(t, "token_expired", newTestResponse(401, `{"message":"token_expired"}`).bodyMessage())
		assert.Empty(t, newTestResponse(401, `not json`).bodyMessage())
		assert.Empty(t, newTestResponse(401, ``).bodyMessage())
	})
}

func TestGenerateCurlCommand(t *testing.T) {
	tests := []struct {
		name   string
		method string
		header http.Header
		body   []byte
		want   string
	}{
		{
			name:   "given GET, then method flag is omitted",
			method: http.MethodGet,
			want:   "curl 'https://api.test/users'",
		},
		{
			name:   "given bearer token, then it is masked",
			method: http.MethodGet,
			header: http.Header{"Authorization": []string{"Bearer secret"}},
			want:   "curl 'https://api.test/users' -H 'Authorization: Bearer ***'",
		},
		{
			name:   "given POST with body, then headers are sorted and quotes escaped",
			method: http.MethodPost,
			header: http.Header{"X-B": []string{"2"}, "Content-Type": []string{"application/json"}},
			body:   []byte(`{"q":"it's"}`),
			want:   `curl -X POST 'https://api.test/users' -H 'Content-Type: application/json' -H 'X-B: 2' -d '{"q":"it'\''s"}'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, "https://api.test/users", nil)
			require.NoError(t, err)
			if tt.header != nil {
				req.Header = tt.header
			}

			assert.Equal(t, tt.want, generateCurlCommand(req, tt.body))
		})
	}
}
