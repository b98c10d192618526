package httprequest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponseType is returned before any network activity when a
// request is configured with an unknown response type.
var ErrInvalidResponseType = errors.New("httprequest: invalid response type")

// ErrNoTokenSource is returned when a request asks for chayns auth but the
// client has no token source.
var ErrNoTokenSource = errors.New("httprequest: no token source configured")

// ErrUnencodableBody is returned when a body cannot be sent as-is and JSON
// encoding was disabled with StringifyBody.
var ErrUnencodableBody = errors.New("httprequest: body cannot be sent without encoding")

// ErrRateLimited is the transport error of a request rejected by the client
// side rate limiter. It surfaces as a StatusFailedToFetch response.
var ErrRateLimited = errors.New("httprequest: rate limit exceeded")

var errTargetNotPointer = errors.New("httprequest: decode target must be a non-nil pointer")

// errTokenExpired signals the retry loop that the token was refreshed and
// the request must be sent again.
var errTokenExpired = errors.New("httprequest: token expired")

// RequestError is returned when a request fails with an unhandled status
// >= 400 or a transport failure (StatusCode == StatusFailedToFetch).
//
// Example:
//
//	_, err := client.Fetch(ctx, "/users", cfg, "GetUsers", opts)
//	var reqErr *httprequest.RequestError
//	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
//	    // handle 404
//	}
type RequestError struct {
	// StatusCode is the HTTP status, or StatusFailedToFetch for transport failures.
	StatusCode int

	// ProcessName identifies the calling operation.
	ProcessName string

	Method string
	URL    string

	// RequestID is the X-Request-Id sent with the request.
	RequestID string

	// Err is the transport error for StatusFailedToFetch, nil otherwise.
	Err error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString("httprequest: ")
	if e.ProcessName != "" {
		b.WriteString(e.ProcessName)
		b.WriteString(": ")
	}
	if e.Method != "" {
		b.WriteString(e.Method)
		b.WriteString(" ")
	}
	if e.URL != "" {
		b.WriteString(e.URL)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%d %s", e.StatusCode, statusText(e.StatusCode))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ChaynsError is returned when a failed response carried a chayns error body.
// errors.As also finds the underlying *RequestError.
type ChaynsError struct {
	Object  ChaynsErrorObject
	Request *RequestError
}

func (e *ChaynsError) Error() string {
	msg := fmt.Sprintf("httprequest: chayns error %s (request %s)", e.Object.ErrorCode, e.Object.RequestID)
	if e.Request != nil {
		msg += ": " + e.Request.Error()
	}
	return msg
}

func (e *ChaynsError) Unwrap() error {
	if e.Request == nil {
		return nil
	}
	return e.Request
}

// StatusCode extracts the status of a *RequestError or *ChaynsError in err's
// chain. It returns 0 if there is none.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// IsChaynsError reports whether err carries a chayns error with the given
// code. An empty code matches any chayns error.
func IsChaynsError(err error, code string) bool {
	var ce *ChaynsError
	if !errors.As(err, &ce) {
		return false
	}
	return code == "" || ce.Object.ErrorCode == code
}
