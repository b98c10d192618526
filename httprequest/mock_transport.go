package httprequest

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
)

// MockTransport is a configurable http.RoundTripper for tests.
//
// Stubs are checked in registration order; the first match wins. A sequence
// stub returns its responses in order and repeats the last one.
//
// Example:
//
//	mock := httprequest.NewMockTransport().
//	    StubJSON("/defaultGet", 200, `{"foo":1,"bar":2}`).
//	    StubPathError("/failedToFetch", errors.New("offline"))
//	client := httprequest.New(httprequest.WithMockTransport(mock))
type MockTransport struct {
	mu       sync.Mutex
	stubs    []*stub
	requests []recordedRequest
}

type stub struct {
	matcher   func(*http.Request) bool
	responses []stubResponse
	calls     int
}

type stubResponse struct {
	status int
	header http.Header
	body   []byte
	err    error
}

type recordedRequest struct {
	req  *http.Request
	body []byte
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubPath answers requests to path with status and body.
func (m *MockTransport) StubPath(path string, status int, body string) *MockTransport {
	return m.stub(pathMatcher(path), stubResponse{status: status, body: []byte(body)})
}

// StubJSON is StubPath with a JSON content type.
func (m *MockTransport) StubJSON(path string, status int, body string) *MockTransport {
	return m.stub(pathMatcher(path), jsonResponse(status, body))
}

// StubPathRegex answers requests whose path matches pattern.
func (m *MockTransport) StubPathRegex(pattern string, status int, body string) *MockTransport {
	re := regexp.MustCompile(pattern)
	return m.stub(func(req *http.Request) bool {
		return re.MatchString(req.URL.Path)
	}, stubResponse{status: status, body: []byte(body)})
}

// StubPathError fails requests to path with err, as if the network was down.
func (m *MockTransport) StubPathError(path string, err error) *MockTransport {
	return m.stub(pathMatcher(path), stubResponse{err: err})
}

// StubSequence answers requests to path with the given JSON responses in
// order. The last response repeats.
func (m *MockTransport) StubSequence(path string, responses ...MockResponse) *MockTransport {
	out := make([]stubResponse, len(responses))
	for i, r := range responses {
		out[i] = jsonResponse(r.Status, r.Body)
		out[i].err = r.Err
	}
	return m.stub(pathMatcher(path), out...)
}

// StubFunc answers requests matching the predicate.
func (m *MockTransport) StubFunc(matcher func(*http.Request) bool, status int, body string) *MockTransport {
	return m.stub(matcher, stubResponse{status: status, body: []byte(body)})
}

// MockResponse is one entry of a StubSequence.
type MockResponse struct {
	Status int
	Body   string
	Err    error
}

func (m *MockTransport) stub(matcher func(*http.Request) bool, responses ...stubResponse) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, &stub{matcher: matcher, responses: responses})
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, recordedRequest{req: req, body: body})

	for _, s := range m.stubs {
		if !s.matcher(req) {
			continue
		}
		i := min(s.calls, len(s.responses)-1)
		s.calls++
		r := s.responses[i]
		if r.err != nil {
			return nil, r.err
		}
		return r.toResponse(req), nil
	}

	return nil, errors.New("no stub found for request: " + req.Method + " " + req.URL.String())
}

// RequestCount returns the number of requests made.
func (m *MockTransport) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns all requests made, in order.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*http.Request, len(m.requests))
	for i, r := range m.requests {
		out[i] = r.req
	}
	return out
}

// LastRequest returns the most recent request, or nil if none.
func (m *MockTransport) LastRequest() *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1].req
}

// LastBody returns the body of the most recent request.
func (m *MockTransport) LastBody() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1].body
}

// Reset clears recorded requests and stubs.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.stubs = nil
}

func pathMatcher(path string) func(*http.Request) bool {
	return func(req *http.Request) bool {
		return req.URL.Path == path
	}
}

func jsonResponse(status int, body string) stubResponse {
	return stubResponse{
		status: status,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   []byte(body),
	}
}

func (r stubResponse) toResponse(req *http.Request) *http.Response {
	header := r.header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        strconv.Itoa(r.status) + " " + http.StatusText(r.status),
		StatusCode:    r.status,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.body)),
		ContentLength: int64(len(r.body)),
		Request:       req,
	}
}
