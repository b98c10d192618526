package httprequest

import (
	"net/http"
)

// RequestInterceptor modifies an outgoing request after headers, auth and
// body are set. Returning an error aborts the request before it is sent.
type RequestInterceptor func(req *http.Request) error

// UserAgentInterceptor sets the User-Agent header.
func UserAgentInterceptor(userAgent string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("User-Agent", userAgent)
		return nil
	}
}

// HeaderInterceptor sets a static header on every request, e.g. an API key
// for a backend that does not use chayns auth.
func HeaderInterceptor(name, value string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set(name, value)
		return nil
	}
}

func bearerInterceptor(token string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

func applyInterceptors(req *http.Request, interceptors ...RequestInterceptor) error {
	for _, i := range interceptors {
		if err := i(req); err != nil {
			return err
		}
	}
	return nil
}
