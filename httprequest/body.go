package httprequest

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// encodeBody turns a request body into bytes and a default content type.
// The bytes are kept so the request can be sent again after a token refresh.
func encodeBody(body any, opts Options) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(b), contentTypeText, nil
	case []byte:
		return b, "", nil
	case url.Values:
		return []byte(b.Encode()), contentTypeForm, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", fmt.Errorf("read request body: %w", err)
		}
		return data, "", nil
	}

	if !boolOr(opts.StringifyBody, true) {
		return nil, "", fmt.Errorf("%w: %T", ErrUnencodableBody, body)
	}

	data, err := serializeJSON(body, opts.Serialization)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return data, contentTypeJSON, nil
}

// serializeJSON encodes v and applies the serialization options to the
// encoded tree: excluded keys and null members are dropped, timestamps are
// converted to the configured location and layout.
func serializeJSON(v any, so *SerializationOptions) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || so == nil {
		return data, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	s := newSerializer(so)
	return json.Marshal(s.transform(tree))
}

type serializer struct {
	exclude     []PatternKey
	excludeNull bool
	location    *time.Location
	layout      string
}

func newSerializer(so *SerializationOptions) *serializer {
	s := &serializer{
		excludeNull: so.ExcludeNull,
		location:    so.Location,
		layout:      so.DateLayout,
	}
	for _, k := range so.ExcludeKeys {
		s.exclude = append(s.exclude, ParseKey(k))
	}
	return s
}

func (s *serializer) excluded(key string) bool {
	for _, k := range s.exclude {
		if k.matchExact(key) || k.matchStrict(key) {
			return true
		}
	}
	return false
}

func (s *serializer) transform(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if s.excluded(k) || (s.excludeNull && child == nil) {
				continue
			}
			out[k] = s.transform(child)
		}
		return out
	case []any:
		for i, child := range val {
			val[i] = s.transform(child)
		}
		return val
	case string:
		return s.formatTime(val)
	default:
		return v
	}
}

// formatTime rewrites RFC 3339 timestamps; other strings are returned as-is.
func (s *serializer) formatTime(str string) string {
	if s.location == nil && s.layout == "" {
		return str
	}
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return str
	}
	if s.location != nil {
		t = t.In(s.location)
	}
	layout := s.layout
	if layout == "" {
		layout = time.RFC3339
	}
	return t.Format(layout)
}
