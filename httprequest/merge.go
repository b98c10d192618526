package httprequest

import (
	"net/http"
	"strconv"
)

// PatternMap is an insertion-ordered map from PatternKey to V.
//
// Iteration order matters: regex keys are tested in the order they were
// registered, so the first matching entry wins.
//
// Example:
//
//	handlers := httprequest.NewPatternMap[httprequest.Handler]().
//	    Set("404", httprequest.Decode(httprequest.ResponseTypeNone)).
//	    Set("/5\\d{2}/", httprequest.Decode(httprequest.ResponseTypeThrowError))
type PatternMap[V any] struct {
	entries []patternEntry[V]
}

type patternEntry[V any] struct {
	key   PatternKey
	value V
}

// NewPatternMap creates an empty PatternMap.
func NewPatternMap[V any]() *PatternMap[V] {
	return &PatternMap[V]{}
}

// Set registers value under key, parsed with ParseKey. Setting an existing key
// replaces its value and keeps its position.
func (m *PatternMap[V]) Set(key string, value V) *PatternMap[V] {
	return m.SetKey(ParseKey(key), value)
}

// SetStatus registers value under the literal status code.
func (m *PatternMap[V]) SetStatus(status int, value V) *PatternMap[V] {
	return m.SetKey(Literal(strconv.Itoa(status)), value)
}

// SetKey registers value under an already parsed key.
func (m *PatternMap[V]) SetKey(key PatternKey, value V) *PatternMap[V] {
	for i := range m.entries {
		if m.entries[i].key.raw == key.raw {
			m.entries[i].value = value
			return m
		}
	}
	m.entries = append(m.entries, patternEntry[V]{key: key, value: value})
	return m
}

// Get returns the value stored under the exact raw key.
func (m *PatternMap[V]) Get(key string) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	for _, e := range m.entries {
		if e.key.raw == key {
			return e.value, true
		}
	}
	return zero, false
}

// Len returns the number of entries.
func (m *PatternMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the registered keys in order.
func (m *PatternMap[V]) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key.raw
	}
	return keys
}

// Lookup finds the value for candidate: first an exact literal match, then
// the first regex key (in registration order) that matches.
func (m *PatternMap[V]) Lookup(candidate string) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	for _, e := range m.entries {
		if e.key.matchExact(candidate) {
			return e.value, true
		}
	}
	for _, e := range m.entries {
		if e.key.matchStrict(candidate) {
			return e.value, true
		}
	}
	return zero, false
}

// lookupLoose is Lookup with a final pass that treats literal keys as
// unanchored expressions.
func (m *PatternMap[V]) lookupLoose(candidate string) (V, bool) {
	if v, ok := m.Lookup(candidate); ok {
		return v, true
	}
	var zero V
	if m == nil {
		return zero, false
	}
	for _, e := range m.entries {
		if e.key.matchLoose(candidate) {
			return e.value, true
		}
	}
	return zero, false
}

// matchAll returns every value whose key matches candidate exactly or by regex.
func (m *PatternMap[V]) matchAll(candidate string) []V {
	if m == nil {
		return nil
	}
	var out []V
	for _, e := range m.entries {
		if e.key.matchExact(candidate) || e.key.matchStrict(candidate) {
			out = append(out, e.value)
		}
	}
	return out
}

// clone returns a shallow copy.
func (m *PatternMap[V]) clone() *PatternMap[V] {
	if m == nil {
		return nil
	}
	out := &PatternMap[V]{entries: make([]patternEntry[V], len(m.entries))}
	copy(out.entries, m.entries)
	return out
}

// Merge combines call-site entries with defaults. Call-site entries come first
// in their own order and win on shared keys; default-only keys are appended
// in their order. Merging an already merged map again yields the same map.
func Merge[V any](callSite, defaults *PatternMap[V]) *PatternMap[V] {
	if callSite == nil {
		return defaults.clone()
	}
	if defaults == nil {
		return callSite.clone()
	}

	out := callSite.clone()
	for _, e := range defaults.entries {
		if _, exists := out.Get(e.key.raw); !exists {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// mergeOptions applies call-site priority field by field. Map-valued options
// are merged with Merge so defaults fill keys the call site does not set.
func mergeOptions(callSite, defaults Options) Options {
	out := callSite

	if out.ResponseType == "" {
		out.ResponseType = defaults.ResponseType
	}
	if out.ThrowErrors == nil {
		out.ThrowErrors = defaults.ThrowErrors
	}
	if out.AutoRefreshToken == nil {
		out.AutoRefreshToken = defaults.AutoRefreshToken
	}
	if out.StringifyBody == nil {
		out.StringifyBody = defaults.StringifyBody
	}
	if out.Serialization == nil {
		out.Serialization = defaults.Serialization
	}
	if out.WaitCursor == nil {
		out.WaitCursor = defaults.WaitCursor
	}

	out.StatusHandlers = Merge(callSite.StatusHandlers, defaults.StatusHandlers)
	out.ErrorHandlers = Merge(callSite.ErrorHandlers, defaults.ErrorHandlers)
	out.LogConfig = Merge(callSite.LogConfig, defaults.LogConfig)
	out.Replacements = Merge(callSite.Replacements, defaults.Replacements)
	out.ErrorDialogs = Merge(callSite.ErrorDialogs, defaults.ErrorDialogs)
	out.SideEffects = mergeSideEffects(callSite.SideEffects, defaults.SideEffects)

	return out
}

// mergeConfig applies call-site priority to the request descriptor. Headers
// set at the call site replace default values of the same name.
func mergeConfig(callSite, defaults Config) Config {
	out := callSite

	if out.Method == "" {
		out.Method = defaults.Method
	}
	if out.Method == "" {
		out.Method = http.MethodGet
	}
	if out.Body == nil {
		out.Body = defaults.Body
	}
	if out.UseChaynsAuth == nil {
		out.UseChaynsAuth = defaults.UseChaynsAuth
	}

	headers := make(http.Header, len(defaults.Headers)+len(callSite.Headers))
	for k, v := range defaults.Headers {
		headers[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	for k, v := range callSite.Headers {
		headers[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	out.Headers = headers

	return out
}
