package httprequest

import (
	"context"
	"reflect"

	json "github.com/goccy/go-json"
)

// resolve turns a response into the call result using h.
func (c *call) resolve(ctx context.Context, h Handler, resp *Response, errObj *ChaynsErrorObject) (any, error) {
	if h.IsCustom() {
		return h.fn(ctx, resp, errObj)
	}
	return c.decode(h.responseType, resp, errObj)
}

// decode implements the response type directives. Decode failures are logged
// as warnings and degrade to an empty value; they never return an error.
func (c *call) decode(rt ResponseType, resp *Response, errObj *ChaynsErrorObject) (any, error) {
	status := resp.StatusCode

	switch rt {
	case ResponseTypeJSON, ResponseTypeJSONWithStatus:
		data, _ := c.decodeJSON(resp)
		return wrapStatus(rt, status, data), nil

	case ResponseTypeText, ResponseTypeTextWithStatus:
		body, err := resp.Body()
		if err != nil {
			c.warnDecode(rt, resp, err)
			return wrapStatus(rt, status, nil), nil
		}
		return wrapStatus(rt, status, string(body)), nil

	case ResponseTypeBlob, ResponseTypeBlobWithStatus:
		body, err := resp.Body()
		if err != nil {
			c.warnDecode(rt, resp, err)
			return wrapStatus(rt, status, nil), nil
		}
		return wrapStatus(rt, status, &Blob{ContentType: resp.Header.Get("Content-Type"), Data: body}), nil

	case ResponseTypeBinary, ResponseTypeBinaryWithStatus:
		body, err := resp.Body()
		if err != nil {
			c.warnDecode(rt, resp, err)
			return wrapStatus(rt, status, nil), nil
		}
		return wrapStatus(rt, status, body), nil

	case ResponseTypeNone, ResponseTypeNoneWithStatus:
		return wrapStatus(rt, status, nil), nil

	case ResponseTypeThrowError:
		return nil, c.newError(resp, errObj)

	default:
		return resp, nil
	}
}

// decodeJSON decodes the body into the configured target, or into a generic
// value when no target is set.
func (c *call) decodeJSON(resp *Response) (any, bool) {
	body, err := resp.Body()
	if err != nil {
		c.warnDecode(ResponseTypeJSON, resp, err)
		return nil, false
	}

	if target := c.opts.Target; target != nil {
		if rv := reflect.ValueOf(target); rv.Kind() != reflect.Pointer || rv.IsNil() {
			c.warnDecode(ResponseTypeJSON, resp, errTargetNotPointer)
			return nil, false
		}
		if err := json.Unmarshal(body, target); err != nil {
			c.warnDecode(ResponseTypeJSON, resp, err)
			return nil, false
		}
		return target, true
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		c.warnDecode(ResponseTypeJSON, resp, err)
		return nil, false
	}
	return v, true
}

// emptyValue is the result of a failed request that is neither handled nor
// thrown.
func (c *call) emptyValue(rt ResponseType, resp *Response, errObj *ChaynsErrorObject) (any, error) {
	switch rt {
	case ResponseTypeResponse:
		return resp, nil
	case ResponseTypeThrowError:
		return nil, c.newError(resp, errObj)
	case ResponseTypeText:
		return "", nil
	default:
		return wrapStatus(rt, resp.StatusCode, nil), nil
	}
}

func wrapStatus(rt ResponseType, status int, data any) any {
	if rt.withStatus() {
		return &StatusResult{Status: status, Data: data}
	}
	return data
}

func (c *call) warnDecode(rt ResponseType, resp *Response, err error) {
	c.client.logger.Warn().
		Err(err).
		Str("process", c.processName).
		Str("response_type", string(rt)).
		Int("status", resp.StatusCode).
		Str("request_id", c.requestID).
		Msg("failed to decode response body")
}

// newError builds the error a failed response is rejected with.
func (c *call) newError(resp *Response, errObj *ChaynsErrorObject) error {
	reqErr := &RequestError{
		StatusCode:  resp.StatusCode,
		ProcessName: c.processName,
		Method:      c.cfg.Method,
		URL:         c.url,
		RequestID:   c.requestID,
		Err:         resp.transportErr,
	}
	if errObj != nil {
		return &ChaynsError{Object: *errObj, Request: reqErr}
	}
	return reqErr
}
