package httprequest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		callSite  *PatternMap[LogLevel]
		defaults  *PatternMap[LogLevel]
		wantKeys  []string
		wantValue map[string]LogLevel
	}{
		{
			name: "given shared key, then call-site value wins",
			callSite: NewPatternMap[LogLevel]().
				Set("404", LogLevelNone),
			defaults: NewPatternMap[LogLevel]().
				Set("404", LogLevelError),
			wantKeys:  []string{"404"},
			wantValue: map[string]LogLevel{"404": LogLevelNone},
		},
		{
			name: "given default-only keys, then they are appended after call-site keys",
			callSite: NewPatternMap[LogLevel]().
				Set("/5\\d{2}/", LogLevelCritical).
				Set("401", LogLevelInfo),
			defaults: NewPatternMap[LogLevel]().
				Set("403", LogLevelWarning).
				Set("401", LogLevelError).
				Set("test_api/code", LogLevelNone),
			wantKeys: []string{"/5\\d{2}/", "401", "403", "test_api/code"},
			wantValue: map[string]LogLevel{
				"401":           LogLevelInfo,
				"403":           LogLevelWarning,
				"test_api/code": LogLevelNone,
			},
		},
		{
			name:      "given no call-site map, then defaults are used",
			callSite:  nil,
			defaults:  NewPatternMap[LogLevel]().Set("500", LogLevelCritical),
			wantKeys:  []string{"500"},
			wantValue: map[string]LogLevel{"500": LogLevelCritical},
		},
		{
			name:     "given neither map, then result is empty",
			wantKeys: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.callSite, tt.defaults)

			assert.Equal(t, tt.wantKeys, got.Keys())
			for k, want := range tt.wantValue {
				v, ok := got.Get(k)
				require.True(t, ok, k)
				assert.Equal(t, want, v, k)
			}
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	callSite := NewPatternMap[string]().Set("a", "1").Set("b", "2")
	defaults := NewPatternMap[string]().Set("b", "x").Set("c", "3")

	once := Merge(callSite, defaults)
	twice := Merge(once, defaults)

	assert.Equal(t, once.Keys(), twice.Keys())
	for _, k := range once.Keys() {
		a, _ := once.Get(k)
		b, _ := twice.Get(k)
		assert.Equal(t, a, b)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	callSite := NewPatternMap[string]().Set("a", "1")
	defaults := NewPatternMap[string]().Set("b", "2")

	merged := Merge(callSite, defaults)
	merged.Set("c", "3")

	assert.Equal(t, []string{"a"}, callSite.Keys())
	assert.Equal(t, []string{"b"}, defaults.Keys())
}

func TestPatternMap_SetKeepsPosition(t *testing.T) {
	m := NewPatternMap[int]().Set("a", 1).Set("b", 2).Set("a", 3)

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, _ := m.Get("a")
	assert.Equal(t, 3, v)
}

func TestPatternMap_Lookup(t *testing.T) {
	m := NewPatternMap[string]().
		Set("/^4/", "regex-4xx").
		Set("404", "literal-404").
		Set("/^40/", "regex-40x")

	tests := []struct {
		name      string
		candidate string
		want      string
		wantOK    bool
	}{
		{
			name:      "given literal and regex match, then literal wins regardless of order",
			candidate: "404",
			want:      "literal-404",
			wantOK:    true,
		},
		{
			name:      "given several regex matches, then first registered wins",
			candidate: "401",
			want:      "regex-4xx",
			wantOK:    true,
		},
		{
			name:      "given no match, then not found",
			candidate: "500",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Lookup(tt.candidate)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeOptions(t *testing.T) {
	t.Run("given scalar fields on both sides, then call site wins", func(t *testing.T) {
		got := mergeOptions(
			Options{ResponseType: ResponseTypeText, AutoRefreshToken: Bool(false)},
			Options{ResponseType: ResponseTypeJSON, AutoRefreshToken: Bool(true), ThrowErrors: ThrowNone()},
		)

		assert.Equal(t, ResponseTypeText, got.ResponseType)
		assert.False(t, *got.AutoRefreshToken)
		assert.False(t, got.ThrowErrors.shouldThrow(500))
	})

	t.Run("given handler maps on both sides, then they are merged", func(t *testing.T) {
		got := mergeOptions(
			Options{StatusHandlers: NewPatternMap[Handler]().Set("404", Decode(ResponseTypeNone))},
			Options{StatusHandlers: NewPatternMap[Handler]().
				Set("404", Decode(ResponseTypeText)).
				Set("500", Decode(ResponseTypeThrowError))},
		)

		assert.Equal(t, []string{"404", "500"}, got.StatusHandlers.Keys())
		h, _ := got.StatusHandlers.Get("404")
		assert.Equal(t, ResponseTypeNone, h.ResponseType())
	})

	t.Run("given keyed side effects on both sides, then they are merged", func(t *testing.T) {
		noop := func(int, *ChaynsErrorObject) {}
		got := mergeOptions(
			Options{SideEffects: SideEffectMap(NewPatternMap[SideEffectFunc]().Set("401", noop))},
			Options{SideEffects: SideEffectMap(NewPatternMap[SideEffectFunc]().Set("403", noop))},
		)

		assert.Equal(t, []string{"401", "403"}, got.SideEffects.keyed.Keys())
	})
}

func TestMergeConfig(t *testing.T) {
	t.Run("given no method, then defaults to GET", func(t *testing.T) {
		got := mergeConfig(Config{}, Config{})

		assert.Equal(t, http.MethodGet, got.Method)
	})

	t.Run("given headers on both sides, then call site replaces same name", func(t *testing.T) {
		got := mergeConfig(
			Config{Headers: http.Header{"accept": []string{"text/plain"}}},
			Config{Headers: http.Header{
				"Accept":    []string{"application/json"},
				"X-Default": []string{"1"},
			}},
		)

		assert.Equal(t, []string{"text/plain"}, got.Headers.Values("Accept"))
		assert.Equal(t, "1", got.Headers.Get("X-Default"))
	})

	t.Run("given default auth flag, then it is inherited", func(t *testing.T) {
		got := mergeConfig(Config{Method: http.MethodPost}, Config{UseChaynsAuth: Bool(true)})

		assert.Equal(t, http.MethodPost, got.Method)
		assert.True(t, *got.UseChaynsAuth)
	})
}
