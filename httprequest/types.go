package httprequest

import (
	"fmt"
	"net/http"
)

// StatusFailedToFetch is the synthetic status code used when the transport
// failed before a response was received (offline, DNS, connection refused,
// open circuit breaker, rate limit rejection).
//
// It is routed through the same handler, log and side-effect lookups as a
// real HTTP status, so a single handler keyed "1" covers network failures.
const StatusFailedToFetch = 1

// ResponseType selects how a response body is decoded.
//
// The "WithStatus" variants wrap the decoded value in a *StatusResult.
type ResponseType string

const (
	// ResponseTypeJSON decodes the body as JSON.
	ResponseTypeJSON ResponseType = "json"
	// ResponseTypeJSONWithStatus decodes the body as JSON and pairs it with the status.
	ResponseTypeJSONWithStatus ResponseType = "jsonWithStatus"
	// ResponseTypeText returns the body as a string.
	ResponseTypeText ResponseType = "text"
	// ResponseTypeTextWithStatus returns the body as a string paired with the status.
	ResponseTypeTextWithStatus ResponseType = "textWithStatus"
	// ResponseTypeBlob returns the body as a *Blob (content type + bytes).
	ResponseTypeBlob ResponseType = "blob"
	// ResponseTypeBlobWithStatus returns a *Blob paired with the status.
	ResponseTypeBlobWithStatus ResponseType = "blobWithStatus"
	// ResponseTypeBinary returns the raw body bytes.
	ResponseTypeBinary ResponseType = "binary"
	// ResponseTypeBinaryWithStatus returns the raw body bytes paired with the status.
	ResponseTypeBinaryWithStatus ResponseType = "binaryWithStatus"
	// ResponseTypeResponse returns the *Response itself.
	ResponseTypeResponse ResponseType = "response"
	// ResponseTypeNone discards the body and resolves with nil.
	ResponseTypeNone ResponseType = "none"
	// ResponseTypeNoneWithStatus discards the body and resolves with the status only.
	ResponseTypeNoneWithStatus ResponseType = "noneWithStatus"
	// ResponseTypeThrowError turns the response into a returned error.
	ResponseTypeThrowError ResponseType = "error"
)

// Valid reports whether rt is a known response type. The empty value is
// valid and means "not configured".
func (rt ResponseType) Valid() bool {
	switch rt {
	case "",
		ResponseTypeJSON, ResponseTypeJSONWithStatus,
		ResponseTypeText, ResponseTypeTextWithStatus,
		ResponseTypeBlob, ResponseTypeBlobWithStatus,
		ResponseTypeBinary, ResponseTypeBinaryWithStatus,
		ResponseTypeResponse,
		ResponseTypeNone, ResponseTypeNoneWithStatus,
		ResponseTypeThrowError:
		return true
	default:
		return false
	}
}

// withStatus reports whether the decoded value is paired with the status.
func (rt ResponseType) withStatus() bool {
	switch rt {
	case ResponseTypeJSONWithStatus, ResponseTypeTextWithStatus,
		ResponseTypeBlobWithStatus, ResponseTypeBinaryWithStatus,
		ResponseTypeNoneWithStatus:
		return true
	default:
		return false
	}
}

// LogLevel is the severity a request is logged with.
type LogLevel string

const (
	LogLevelInfo     LogLevel = "info"
	LogLevelWarning  LogLevel = "warning"
	LogLevelError    LogLevel = "error"
	LogLevelCritical LogLevel = "critical"
	LogLevelNone     LogLevel = "none"
)

// StatusResult pairs a decoded body with the response status.
// It is returned for all "WithStatus" response types.
type StatusResult struct {
	Status int `json:"status"`
	Data   any `json:"data"`
}

// Blob is a response body together with its content type.
type Blob struct {
	ContentType string
	Data        []byte
}

// Size returns the number of bytes in the blob.
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// statusText mirrors http.StatusText but names the synthetic transport status.
func statusText(status int) string {
	if status == StatusFailedToFetch {
		return "Failed to fetch"
	}
	if t := http.StatusText(status); t != "" {
		return t
	}
	return fmt.Sprintf("status %d", status)
}
