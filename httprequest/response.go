package httprequest

import (
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// Response wraps http.Response with a cached body and request metadata.
//
// For transport failures the client builds a synthetic Response with
// StatusCode == StatusFailedToFetch, an empty body and the transport error
// available via TransportError.
//
// Example:
//
//	res, err := client.Fetch(ctx, "/users", httprequest.Config{}, "GetUsers", httprequest.Options{})
//	resp := res.(*httprequest.Response)
//	if resp.IsSuccess() {
//	    var users []User
//	    err = resp.JSON(&users)
//	}
type Response struct {
	// Response embeds the standard http.Response.
	// Read the body through Body, String or JSON, not Response.Body.
	*http.Response

	request      *http.Request
	body         []byte
	bodyRead     bool
	bodyErr      error
	transportErr error
	processName  string
	requestID    string
	curlCommand  string
	duration     time.Duration
}

func newResponse(httpResp *http.Response, req *http.Request, processName, requestID string) *Response {
	return &Response{
		Response:    httpResp,
		request:     req,
		processName: processName,
		requestID:   requestID,
	}
}

// newFailedResponse builds the synthetic response for a transport failure.
func newFailedResponse(req *http.Request, err error, processName, requestID string) *Response {
	return &Response{
		Response: &http.Response{
			StatusCode: StatusFailedToFetch,
			Status:     fmt.Sprintf("%d %s", StatusFailedToFetch, statusText(StatusFailedToFetch)),
			Header:     make(http.Header),
			Body:       http.NoBody,
			Request:    req,
		},
		request:      req,
		body:         []byte{},
		bodyRead:     true,
		transportErr: err,
		processName:  processName,
		requestID:    requestID,
	}
}

// Body returns the response body. It is read once and cached.
func (r *Response) Body() ([]byte, error) {
	if r.bodyRead {
		return r.body, r.bodyErr
	}
	r.bodyRead = true

	if r.Response == nil || r.Response.Body == nil {
		r.body = []byte{}
		return r.body, nil
	}

	defer r.Response.Body.Close()
	r.body, r.bodyErr = io.ReadAll(r.Response.Body)
	return r.body, r.bodyErr
}

// String returns the response body as a string.
func (r *Response) String() (string, error) {
	body, err := r.Body()
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// JSON decodes the response body into target.
func (r *Response) JSON(target any) error {
	body, err := r.Body()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

// IsSuccess returns true if the status is below 400 and the transport succeeded.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// IsError returns true for statuses >= 400 and for transport failures.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400 || r.StatusCode == StatusFailedToFetch
}

// TransportError returns the transport error behind a StatusFailedToFetch
// response, nil otherwise.
func (r *Response) TransportError() error {
	return r.transportErr
}

// ProcessName returns the process name the request was issued with.
func (r *Response) ProcessName() string {
	return r.processName
}

// RequestID returns the X-Request-Id sent with the request.
func (r *Response) RequestID() string {
	return r.requestID
}

// Duration returns the round trip time of the request.
func (r *Response) Duration() time.Duration {
	return r.duration
}

// CurlCommand returns the cURL equivalent of the request.
// Only populated if WithGenerateCurl(true) was set on the client.
func (r *Response) CurlCommand() string {
	return r.curlCommand
}

// bodyMessage returns the "message" member of a JSON object body.
func (r *Response) bodyMessage() string {
	body, err := r.Body()
	if err != nil || len(body) == 0 {
		return ""
	}
	var m struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	return m.Message
}
