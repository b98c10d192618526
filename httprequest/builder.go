package httprequest

import (
	"context"
	"net/http"
)

// RequestBuilder builds a Fetch call fluently.
//
// Example:
//
//	res, err := client.Request("UpdateUser").
//	    WithChaynsAuth().
//	    Body(user).
//	    ResponseType(httprequest.ResponseTypeJSON).
//	    OnStatus("404", httprequest.Decode(httprequest.ResponseTypeNone)).
//	    Put(ctx, "/users/##userId##")
type RequestBuilder struct {
	client      *Client
	processName string
	cfg         Config
	opts        Options
}

// Request starts a request for the given process name. The name appears in
// logs, errors, spans and metrics.
func (c *Client) Request(processName string) *RequestBuilder {
	return &RequestBuilder{
		client:      c,
		processName: processName,
		cfg:         Config{Headers: make(http.Header)},
	}
}

// Header sets a request header.
func (rb *RequestBuilder) Header(key, value string) *RequestBuilder {
	rb.cfg.Headers.Set(key, value)
	return rb
}

// Body sets the request body.
func (rb *RequestBuilder) Body(v any) *RequestBuilder {
	rb.cfg.Body = v
	return rb
}

// WithChaynsAuth attaches the user's access token.
func (rb *RequestBuilder) WithChaynsAuth() *RequestBuilder {
	rb.cfg.UseChaynsAuth = Bool(true)
	return rb
}

// ResponseType sets how the body is decoded.
func (rb *RequestBuilder) ResponseType(rt ResponseType) *RequestBuilder {
	rb.opts.ResponseType = rt
	return rb
}

// Decode decodes JSON responses into target and sets the response type to
// ResponseTypeJSON unless another one was chosen.
func (rb *RequestBuilder) Decode(target any) *RequestBuilder {
	rb.opts.Target = target
	if rb.opts.ResponseType == "" {
		rb.opts.ResponseType = ResponseTypeJSON
	}
	return rb
}

// OnStatus registers a status handler ("404", "/5\\d{2}/").
func (rb *RequestBuilder) OnStatus(key string, h Handler) *RequestBuilder {
	if rb.opts.StatusHandlers == nil {
		rb.opts.StatusHandlers = NewPatternMap[Handler]()
	}
	rb.opts.StatusHandlers.Set(key, h)
	return rb
}

// OnError registers a chayns error code handler.
func (rb *RequestBuilder) OnError(code string, h Handler) *RequestBuilder {
	if rb.opts.ErrorHandlers == nil {
		rb.opts.ErrorHandlers = NewPatternMap[Handler]()
	}
	rb.opts.ErrorHandlers.Set(code, h)
	return rb
}

// LogLevel sets the log level for a status or error code key.
func (rb *RequestBuilder) LogLevel(key string, lvl LogLevel) *RequestBuilder {
	if rb.opts.LogConfig == nil {
		rb.opts.LogConfig = NewPatternMap[LogLevel]()
	}
	rb.opts.LogConfig.Set(key, lvl)
	return rb
}

// Replace adds a URL replacement. key is parsed like any pattern key, so
// "/.../" is a regular expression.
func (rb *RequestBuilder) Replace(key, value string) *RequestBuilder {
	if rb.opts.Replacements == nil {
		rb.opts.Replacements = NewPatternMap[string]()
	}
	rb.opts.Replacements.Set(key, value)
	return rb
}

// ReplaceKey adds a URL replacement for an already parsed key. Use it with
// Literal for keys that look like a regex, such as "/v1/".
func (rb *RequestBuilder) ReplaceKey(key PatternKey, value string) *RequestBuilder {
	if rb.opts.Replacements == nil {
		rb.opts.Replacements = NewPatternMap[string]()
	}
	rb.opts.Replacements.SetKey(key, value)
	return rb
}

// ErrorDialog shows the display message of chayns errors matching code.
func (rb *RequestBuilder) ErrorDialog(code string) *RequestBuilder {
	if rb.opts.ErrorDialogs == nil {
		rb.opts.ErrorDialogs = NewPatternMap[bool]()
	}
	rb.opts.ErrorDialogs.Set(code, true)
	return rb
}

// ThrowErrors sets the throw policy.
func (rb *RequestBuilder) ThrowErrors(p *ThrowPolicy) *RequestBuilder {
	rb.opts.ThrowErrors = p
	return rb
}

// AutoRefreshToken enables or disables the token refresh retry.
func (rb *RequestBuilder) AutoRefreshToken(enabled bool) *RequestBuilder {
	rb.opts.AutoRefreshToken = Bool(enabled)
	return rb
}

// SideEffects sets the side effects.
func (rb *RequestBuilder) SideEffects(s SideEffects) *RequestBuilder {
	rb.opts.SideEffects = s
	return rb
}

// WaitCursor shows the host wait cursor while the request runs.
func (rb *RequestBuilder) WaitCursor(cfg WaitCursorConfig) *RequestBuilder {
	rb.opts.WaitCursor = &cfg
	return rb
}

// Options replaces all options at once. Builder calls made afterwards
// modify the given options.
func (rb *RequestBuilder) Options(opts Options) *RequestBuilder {
	rb.opts = opts
	return rb
}

// Get sends a GET request.
func (rb *RequestBuilder) Get(ctx context.Context, address string) (any, error) {
	return rb.execute(ctx, http.MethodGet, address)
}

// Post sends a POST request.
func (rb *RequestBuilder) Post(ctx context.Context, address string) (any, error) {
	return rb.execute(ctx, http.MethodPost, address)
}

// Put sends a PUT request.
func (rb *RequestBuilder) Put(ctx context.Context, address string) (any, error) {
	return rb.execute(ctx, http.MethodPut, address)
}

// Patch sends a PATCH request.
func (rb *RequestBuilder) Patch(ctx context.Context, address string) (any, error) {
	return rb.execute(ctx, http.MethodPatch, address)
}

// Delete sends a DELETE request.
func (rb *RequestBuilder) Delete(ctx context.Context, address string) (any, error) {
	return rb.execute(ctx, http.MethodDelete, address)
}

func (rb *RequestBuilder) execute(ctx context.Context, method, address string) (any, error) {
	cfg := rb.cfg
	cfg.Method = method
	return rb.client.Fetch(ctx, address, cfg, rb.processName, rb.opts)
}

// FetchJSON sends a request and decodes a JSON response into T.
//
// Handlers still run; if one returns a value of type T it is passed through.
// Failed requests that are neither handled nor thrown yield the zero value.
//
// Example:
//
//	user, err := httprequest.FetchJSON[User](ctx, client, "/users/1", httprequest.Config{}, "GetUser", httprequest.Options{})
func FetchJSON[T any](ctx context.Context, c *Client, address string, cfg Config, processName string, opts Options) (T, error) {
	var out T
	opts.Target = &out
	if opts.ResponseType == "" {
		opts.ResponseType = ResponseTypeJSON
	}

	res, err := c.Fetch(ctx, address, cfg, processName, opts)
	if err != nil {
		var zero T
		return zero, err
	}

	switch v := res.(type) {
	case *T:
		return *v, nil
	case T:
		return v, nil
	case *StatusResult:
		if p, ok := v.Data.(*T); ok {
			return *p, nil
		}
	}

	var zero T
	return zero, nil
}
