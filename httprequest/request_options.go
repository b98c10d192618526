package httprequest

import (
	"net/http"
	"strconv"
	"time"
)

// Config describes a single request: method, headers, body and whether the
// user's access token is attached.
//
// Body encoding:
//   - string, []byte, io.Reader: sent as-is
//   - anything else: JSON (unless Options.StringifyBody is false)
type Config struct {
	// Method is the HTTP method. Default: GET
	Method string

	// Headers are merged over the default headers; a header set here
	// replaces the default value of the same name.
	Headers http.Header

	// Body is the request body.
	Body any

	// UseChaynsAuth attaches "Authorization: Bearer <token>" from the host.
	// Default: false
	UseChaynsAuth *bool
}

// Options controls how a response is resolved, logged and reported.
//
// Every field is optional. Unset fields fall back to the client defaults;
// map-valued fields are merged key by key with the call site winning.
type Options struct {
	// ResponseType is the default decoding for the response body.
	// Unset resolves with the *Response.
	ResponseType ResponseType

	// ThrowErrors decides whether unhandled statuses >= 400 are returned as
	// errors. Default: ThrowAll()
	ThrowErrors *ThrowPolicy

	// StatusHandlers override decoding per status code ("404", "/5\\d{2}/").
	StatusHandlers *PatternMap[Handler]

	// ErrorHandlers override decoding per chayns error code
	// ("auth/token_invalid", "/^tapp_api\\//"). They take priority over
	// StatusHandlers.
	ErrorHandlers *PatternMap[Handler]

	// LogConfig sets the log level per status or error code.
	LogConfig *PatternMap[LogLevel]

	// AutoRefreshToken retries once with a refreshed token when an
	// authenticated request fails with 401 "token_expired". Default: true
	AutoRefreshToken *bool

	// Replacements are applied to the request URL before the host
	// placeholders, so a value may itself contain "##tappId##". Literal keys
	// are replaced verbatim, regex keys via ReplaceAllString.
	//
	// Set parses keys shaped like "/.../" as regular expressions, so a path
	// segment such as "/v1/" must be registered with SetKey(Literal("/v1/"))
	// or RequestBuilder.ReplaceKey.
	Replacements *PatternMap[string]

	// SideEffects run after the result is resolved.
	SideEffects SideEffects

	// ErrorDialogs lists chayns error codes whose display message is shown
	// in a host alert dialog.
	ErrorDialogs *PatternMap[bool]

	// WaitCursor shows the host wait cursor while the request is running.
	WaitCursor *WaitCursorConfig

	// StringifyBody encodes non-raw bodies as JSON. Default: true
	StringifyBody *bool

	// Serialization tunes JSON body encoding.
	Serialization *SerializationOptions

	// Target receives decoded JSON bodies instead of a generic value.
	// It must be a pointer. Target is call-site only: a Target in the
	// client defaults is ignored, since concurrent requests would decode
	// into the same value.
	Target any
}

// Defaults are the process-wide request settings a Client merges into
// every call. Call-site values always win.
type Defaults struct {
	// Address is the base address. Relative request addresses are joined to it.
	Address string
	Config  Config
	Options Options
}

// ThrowPolicy decides whether a failed status is returned as an error.
type ThrowPolicy struct {
	throw  bool
	except *PatternMap[bool]
}

// ThrowAll returns errors for every unhandled status >= 400.
func ThrowAll() *ThrowPolicy {
	return &ThrowPolicy{throw: true}
}

// ThrowNone never returns errors for failed statuses.
func ThrowNone() *ThrowPolicy {
	return &ThrowPolicy{}
}

// ThrowExcept returns errors for failed statuses except the listed ones.
func ThrowExcept(statuses ...int) *ThrowPolicy {
	p := &ThrowPolicy{throw: true, except: NewPatternMap[bool]()}
	for _, s := range statuses {
		p.except.Set(strconv.Itoa(s), true)
	}
	return p
}

// ThrowExceptPatterns is ThrowExcept with status patterns such as "/40[34]/".
func ThrowExceptPatterns(keys ...string) *ThrowPolicy {
	p := &ThrowPolicy{throw: true, except: NewPatternMap[bool]()}
	for _, k := range keys {
		p.except.Set(k, true)
	}
	return p
}

// shouldThrow reports whether status must be returned as an error.
// A nil policy throws.
func (p *ThrowPolicy) shouldThrow(status int) bool {
	if p == nil {
		return true
	}
	if !p.throw {
		return false
	}
	if _, excused := p.except.Lookup(strconv.Itoa(status)); excused {
		return false
	}
	return true
}

// SerializationOptions tunes how a body is encoded to JSON.
type SerializationOptions struct {
	// ExcludeKeys drops object keys at any depth. Keys may be literals or
	// serialized regexes.
	ExcludeKeys []string

	// ExcludeNull drops object members whose value is null.
	ExcludeNull bool

	// Location converts timestamps into this time zone before encoding.
	Location *time.Location

	// DateLayout formats timestamps. Default: time.RFC3339
	DateLayout string
}

// WaitCursorConfig shows the host wait cursor while a request is running.
type WaitCursorConfig struct {
	// Delay before the cursor is shown. Requests finishing earlier never
	// show it. Default: 300ms
	Delay time.Duration

	// Text is shown with the cursor.
	Text string

	// Steps change the text after the given time since the cursor appeared.
	Steps []WaitCursorStep
}

// WaitCursorStep replaces the wait cursor text after a delay.
type WaitCursorStep struct {
	After time.Duration
	Text  string
}

// Bool returns a pointer to b, for optional boolean fields.
func Bool(b bool) *bool {
	return &b
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
