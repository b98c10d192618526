package httprequest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// tokenExpiredMessage is the body message of a 401 caused by an expired token.
const tokenExpiredMessage = "token_expired"

// call is one Fetch invocation with its merged configuration.
type call struct {
	client      *Client
	processName string
	cfg         Config
	opts        Options

	url         string
	body        []byte
	contentType string
	requestID   string
	useAuth     bool

	// refreshedToken replaces the token source's current token on the
	// attempt after a refresh.
	refreshedToken string
}

// Fetch sends a request and resolves the response.
//
// address is joined to the default address unless it is absolute. cfg and
// opts are merged over the client defaults with the call site winning.
//
// The result depends on the options, in this order:
//  1. an ErrorHandlers entry matching the chayns error code. Failed
//     responses are always classified; successful ones only when
//     ErrorHandlers is not empty.
//  2. a StatusHandlers entry matching the status
//  3. ResponseType
//  4. the *Response itself
//
// Unhandled failures (status >= 400, or StatusFailedToFetch when the
// transport failed) are returned as *RequestError or *ChaynsError unless
// ThrowErrors excuses the status. An expired access token is refreshed and
// the request sent once more.
//
// Example:
//
//	res, err := client.Fetch(ctx, "/defaultGet", httprequest.Config{}, "DefaultGet", httprequest.Options{
//	    ResponseType: httprequest.ResponseTypeJSONWithStatus,
//	})
//	// res: &StatusResult{Status: 200, Data: map[string]any{"foo": 1, "bar": 2}}
func (c *Client) Fetch(ctx context.Context, address string, cfg Config, processName string, opts Options) (any, error) {
	cl, err := c.newCall(address, cfg, processName, opts)
	if err != nil {
		return nil, err
	}

	stop := startWaitCursor(c.cfg.cursor, cl.opts.WaitCursor)
	defer stop()

	return cl.run(ctx)
}

// newCall merges the configuration and prepares everything that does not
// change between attempts.
func (c *Client) newCall(address string, cfg Config, processName string, opts Options) (*call, error) {
	defaults := c.Defaults()

	merged := mergeOptions(opts, defaults.Options)
	if err := validateOptions(merged); err != nil {
		return nil, err
	}

	mc := mergeConfig(cfg, defaults.Config)
	mc.Method = strings.ToUpper(mc.Method)

	url := applyReplacements(resolveAddress(defaults.Address, address), merged.Replacements)
	if c.cfg.env != nil {
		url = replacePlaceholders(url, c.cfg.env())
	}

	body, contentType, err := encodeBody(mc.Body, merged)
	if err != nil {
		return nil, fmt.Errorf("httprequest: %s: %w", processName, err)
	}

	useAuth := boolOr(mc.UseChaynsAuth, false)
	if useAuth && c.cfg.tokens == nil {
		return nil, fmt.Errorf("httprequest: %s: %w", processName, ErrNoTokenSource)
	}

	requestID := mc.Headers.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return &call{
		client:      c,
		processName: processName,
		cfg:         mc,
		opts:        merged,
		url:         url,
		body:        body,
		contentType: contentType,
		requestID:   requestID,
		useAuth:     useAuth,
	}, nil
}

// validateOptions rejects unknown response types, including decoding
// directives inside handler maps.
func validateOptions(opts Options) error {
	if !opts.ResponseType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidResponseType, opts.ResponseType)
	}
	for _, m := range []*PatternMap[Handler]{opts.StatusHandlers, opts.ErrorHandlers} {
		if m == nil {
			continue
		}
		for _, e := range m.entries {
			if !e.value.IsCustom() && (e.value.responseType == "" || !e.value.responseType.Valid()) {
				return fmt.Errorf("%w: %q for key %s", ErrInvalidResponseType, e.value.responseType, e.key)
			}
		}
	}
	return nil
}

// run sends the request at most twice: the second attempt only happens after
// a successful token refresh and never refreshes again.
func (cl *call) run(ctx context.Context) (any, error) {
	autoRefresh := boolOr(cl.opts.AutoRefreshToken, true)

	var (
		result    any
		resultErr error
	)
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		res, err := cl.attempt(ctx, autoRefresh)
		if errors.Is(err, errTokenExpired) {
			autoRefresh = false
			return struct{}{}, err
		}
		result, resultErr = res, err
		return struct{}{}, nil
	},
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(2),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return nil, err
	}
	return result, resultErr
}

// attempt sends the request once and resolves the response.
// It returns errTokenExpired after refreshing the token.
func (cl *call) attempt(ctx context.Context, autoRefresh bool) (any, error) {
	c := cl.client

	req, err := cl.newRequest(ctx)
	if err != nil {
		return nil, err
	}

	if c.cfg.debug {
		logRequest(c.logger, cl.processName, req)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)

	var resp *Response
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		resp = newFailedResponse(req, err, cl.processName, cl.requestID)
	} else {
		resp = newResponse(httpResp, req, cl.processName, cl.requestID)
		_, _ = resp.Body()
	}
	resp.duration = time.Since(start)

	if c.cfg.generateCurl {
		resp.curlCommand = generateCurlCommand(req, cl.body)
	}
	if c.cfg.debug {
		logResponse(c.logger, cl.processName, resp, resp.duration)
	}

	status := resp.StatusCode

	if !resp.IsError() {
		// Success bodies are only read for classification when an error
		// handler could use the result.
		var errObj *ChaynsErrorObject
		if cl.opts.ErrorHandlers.Len() > 0 {
			errObj = ClassifyChaynsError(resp)
		}
		cl.logResult(resolveLogLevel(status, cl.opts.LogConfig, LogLevelInfo, errObj), resp, errObj)
		defer cl.opts.SideEffects.dispatch(status, errObj)
		return cl.resolveChain(ctx, resp, errObj, false)
	}

	errObj := ClassifyChaynsError(resp)

	if status == http.StatusUnauthorized && cl.useAuth && autoRefresh && resp.bodyMessage() == tokenExpiredMessage {
		token, err := c.refreshToken(ctx)
		if err == nil {
			cl.refreshedToken = token
			c.logger.Info().
				Str("process", cl.processName).
				Str("request_id", cl.requestID).
				Msg("access token expired, retrying with refreshed token")
			return nil, errTokenExpired
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn().
			Err(err).
			Str("process", cl.processName).
			Str("request_id", cl.requestID).
			Msg("access token refresh failed")
	}

	cl.logResult(resolveLogLevel(status, cl.opts.LogConfig, defaultLogLevel(status), errObj), resp, errObj)
	cl.showErrorDialog(ctx, errObj)
	defer cl.opts.SideEffects.dispatch(status, errObj)

	if !cl.hasHandler(status, errObj) && cl.opts.ThrowErrors.shouldThrow(status) {
		return nil, cl.newError(resp, errObj)
	}
	return cl.resolveChain(ctx, resp, errObj, true)
}

// newRequest builds the http.Request for one attempt. A retry after a
// token refresh carries the refreshed token.
func (cl *call) newRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(withProcessName(ctx, cl.processName), cl.cfg.Method, cl.url, body)
	if err != nil {
		return nil, fmt.Errorf("httprequest: %s: build request: %w", cl.processName, err)
	}

	req.Header = cl.cfg.Headers.Clone()
	if cl.contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set(requestIDHeader, cl.requestID)

	interceptors := cl.client.cfg.interceptors
	if cl.useAuth {
		token := cl.refreshedToken
		if token == "" {
			var err error
			if token, err = cl.client.cfg.tokens.AccessToken(ctx); err != nil {
				return nil, fmt.Errorf("httprequest: %s: access token: %w", cl.processName, err)
			}
		}
		interceptors = append([]RequestInterceptor{bearerInterceptor(token)}, interceptors...)
	}

	if err := applyInterceptors(req, interceptors...); err != nil {
		return nil, fmt.Errorf("httprequest: %s: interceptor: %w", cl.processName, err)
	}

	return req, nil
}

// resolveChain applies the handler priority. failed selects the empty value
// fallback for responses that were not thrown.
func (cl *call) resolveChain(ctx context.Context, resp *Response, errObj *ChaynsErrorObject, failed bool) (any, error) {
	if errObj != nil {
		if h, ok := cl.opts.ErrorHandlers.Lookup(errObj.ErrorCode); ok {
			return cl.resolve(ctx, h, resp, errObj)
		}
	}

	if h, ok := cl.opts.StatusHandlers.Lookup(strconv.Itoa(resp.StatusCode)); ok {
		return cl.resolve(ctx, h, resp, errObj)
	}

	if rt := cl.opts.ResponseType; rt != "" {
		if failed {
			return cl.emptyValue(rt, resp, errObj)
		}
		return cl.decode(rt, resp, errObj)
	}

	return resp, nil
}

// hasHandler reports whether a handler is registered for the error code or
// the status.
func (cl *call) hasHandler(status int, errObj *ChaynsErrorObject) bool {
	if errObj != nil {
		if _, ok := cl.opts.ErrorHandlers.Lookup(errObj.ErrorCode); ok {
			return true
		}
	}
	_, ok := cl.opts.StatusHandlers.Lookup(strconv.Itoa(status))
	return ok
}

// showErrorDialog alerts the display message of chayns errors listed in
// ErrorDialogs.
func (cl *call) showErrorDialog(ctx context.Context, errObj *ChaynsErrorObject) {
	dialogs := cl.client.cfg.dialogs
	if errObj == nil || dialogs == nil || errObj.DisplayMessage == "" {
		return
	}
	if show, ok := cl.opts.ErrorDialogs.Lookup(errObj.ErrorCode); !ok || !show {
		return
	}
	if err := dialogs.Alert(ctx, "", errObj.DisplayMessage); err != nil {
		cl.client.logger.Warn().
			Err(err).
			Str("process", cl.processName).
			Str("error_code", errObj.ErrorCode).
			Msg("failed to show error dialog")
	}
}
