package httprequest

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBody(t *testing.T) {
	tests := []struct {
		name            string
		body            any
		opts            Options
		wantBody        string
		wantContentType string
		wantErr         error
	}{
		{
			name: "given nil body, then nothing is sent",
		},
		{
			name:            "given string, then sent as plain text",
			body:            "hello",
			wantBody:        "hello",
			wantContentType: contentTypeText,
		},
		{
			name:     "given bytes, then sent as-is without content type",
			body:     []byte{0x01, 0x02},
			wantBody: "\x01\x02",
		},
		{
			name:            "given form values, then sent url encoded",
			body:            url.Values{"a": []string{"1"}, "b": []string{"x y"}},
			wantBody:        "a=1&b=x+y",
			wantContentType: contentTypeForm,
		},
		{
			name:     "given reader, then its content is buffered",
			body:     strings.NewReader("stream"),
			wantBody: "stream",
		},
		{
			name:            "given struct, then sent as JSON",
			body:            struct{ Name string `json:"name"` }{Name: "Jane"},
			wantBody:        `{"name":"Jane"}`,
			wantContentType: contentTypeJSON,
		},
		{
			name:    "given struct with stringify disabled, then fails",
			body:    struct{}{},
			opts:    Options{StringifyBody: Bool(false)},
			wantErr: ErrUnencodableBody,
		},
		{
			name:            "given string with stringify disabled, then still sent",
			body:            "raw",
			opts:            Options{StringifyBody: Bool(false)},
			wantBody:        "raw",
			wantContentType: contentTypeText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, contentType, err := encodeBody(tt.body, tt.opts)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(data))
			assert.Equal(t, tt.wantContentType, contentType)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestEncodeBody_ReaderError(t *testing.T) {
	_, _, err := encodeBody(failingReader{}, Options{})

	assert.ErrorContains(t, err, "read failed")
}

func TestSerializeJSON(t *testing.T) {
	ts := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		so   *SerializationOptions
		want string
	}{
		{
			name: "given no options, then plain JSON",
			in:   map[string]any{"a": 1, "b": nil},
			want: `{"a":1,"b":null}`,
		},
		{
			name: "given exclude null, then null members are dropped at any depth",
			in:   map[string]any{"a": 1, "b": nil, "c": map[string]any{"d": nil, "e": "x"}},
			so:   &SerializationOptions{ExcludeNull: true},
			want: `{"a":1,"c":{"e":"x"}}`,
		},
		{
			name: "given excluded literal key, then it is dropped at any depth",
			in:   map[string]any{"password": "x", "user": map[string]any{"password": "y", "name": "Jane"}},
			so:   &SerializationOptions{ExcludeKeys: []string{"password"}},
			want: `{"user":{"name":"Jane"}}`,
		},
		{
			name: "given excluded regex key, then matching keys are dropped",
			in:   map[string]any{"_internal": 1, "_meta": 2, "id": 3},
			so:   &SerializationOptions{ExcludeKeys: []string{`/^_/`}},
			want: `{"id":3}`,
		},
		{
			name: "given excluded key inside arrays, then it is dropped from every element",
			in:   []any{map[string]any{"id": 1, "secret": "a"}, map[string]any{"id": 2, "secret": "b"}},
			so:   &SerializationOptions{ExcludeKeys: []string{"secret"}},
			want: `[{"id":1},{"id":2}]`,
		},
		{
			name: "given location, then timestamps are converted",
			in:   map[string]any{"at": ts},
			so:   &SerializationOptions{Location: time.FixedZone("CET", 3600)},
			want: `{"at":"2024-01-02T11:30:00+01:00"}`,
		},
		{
			name: "given date layout, then timestamps are reformatted",
			in:   map[string]any{"at": ts, "name": "not a date"},
			so:   &SerializationOptions{DateLayout: "2006-01-02"},
			want: `{"at":"2024-01-02","name":"not a date"}`,
		},
		{
			name: "given large numbers, then precision is kept",
			in:   map[string]any{"id": int64(9007199254740993)},
			so:   &SerializationOptions{ExcludeNull: true},
			want: `{"id":9007199254740993}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := serializeJSON(tt.in, tt.so)

			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
