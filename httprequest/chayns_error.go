package httprequest

import (
	"bytes"
	"io"
	"net/http"
	"regexp"

	json "github.com/goccy/go-json"
)

// errorCodePattern is the namespaced form of a chayns error code: "ns/code".
var errorCodePattern = regexp.MustCompile(`^[A-Za-z0-9_]+/[A-Za-z0-9_/]+$`)

// ChaynsErrorObject is the structured error body chayns backends return.
//
//	{
//	    "errorCode": "tapp_api/user_not_found",
//	    "requestId": "8c2f...",
//	    "displayMessage": "Der Nutzer wurde nicht gefunden.",
//	    "parameters": {"userId": 42}
//	}
type ChaynsErrorObject struct {
	ErrorCode      string         `json:"errorCode"`
	RequestID      string         `json:"requestId"`
	DisplayMessage string         `json:"displayMessage"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

// ClassifyChaynsError returns the chayns error carried by v, or nil.
//
// Accepted inputs:
//   - *Response, *http.Response (the body is restored after reading)
//   - []byte, string (raw JSON)
//   - map[string]any (decoded JSON)
//   - *ChaynsErrorObject, ChaynsErrorObject
//   - func() (any, error): a deferred value, resolved and classified
//
// It never panics and never returns an error; anything that is not a
// well-formed chayns error yields nil.
func ClassifyChaynsError(v any) *ChaynsErrorObject {
	switch val := v.(type) {
	case nil:
		return nil
	case *Response:
		if val == nil {
			return nil
		}
		body, err := val.Body()
		if err != nil {
			return nil
		}
		return classifyBytes(body)
	case *http.Response:
		if val == nil || val.Body == nil {
			return nil
		}
		body, err := io.ReadAll(val.Body)
		val.Body.Close()
		val.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return nil
		}
		return classifyBytes(body)
	case []byte:
		return classifyBytes(val)
	case string:
		return classifyBytes([]byte(val))
	case map[string]any:
		return classifyMap(val)
	case *ChaynsErrorObject:
		if val == nil || !errorCodePattern.MatchString(val.ErrorCode) {
			return nil
		}
		return val
	case ChaynsErrorObject:
		return ClassifyChaynsError(&val)
	case func() (any, error):
		resolved, err := val()
		if err != nil {
			return nil
		}
		return ClassifyChaynsError(resolved)
	default:
		return nil
	}
}

func classifyBytes(body []byte) *ChaynsErrorObject {
	if len(body) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	return classifyMap(m)
}

func classifyMap(m map[string]any) *ChaynsErrorObject {
	code, ok := m["errorCode"].(string)
	if !ok || !errorCodePattern.MatchString(code) {
		return nil
	}
	requestID, present := m["requestId"]
	if !present {
		return nil
	}

	obj := &ChaynsErrorObject{ErrorCode: code}
	if s, ok := requestID.(string); ok {
		obj.RequestID = s
	}
	if s, ok := m["displayMessage"].(string); ok {
		obj.DisplayMessage = s
	}
	if p, ok := m["parameters"].(map[string]any); ok {
		obj.Parameters = p
	}
	return obj
}
