package httprequest

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// maskedHeaders carry credentials and are never printed verbatim.
var maskedHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
}

// generateCurlCommand renders req as a cURL command line. Credentials are
// masked; an authorization scheme such as "Bearer" is kept.
//
// Example output:
//
//	curl -X POST 'https://api.chayns.net/users' -H 'Authorization: Bearer ***' -H 'Content-Type: application/json' -d '{"name":"John"}'
func generateCurlCommand(req *http.Request, body []byte) string {
	var b strings.Builder
	b.WriteString("curl")

	if req.Method != http.MethodGet {
		b.WriteString(" -X ")
		b.WriteString(req.Method)
	}
	b.WriteString(" ")
	b.WriteString(shellQuote(req.URL.String()))

	names := make([]string, 0, len(req.Header))
	for name := range req.Header {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		for _, v := range req.Header[name] {
			if maskedHeaders[name] {
				v = maskCredential(v)
			}
			b.WriteString(" -H ")
			b.WriteString(shellQuote(name + ": " + v))
		}
	}

	if len(body) > 0 {
		b.WriteString(" -d ")
		b.WriteString(shellQuote(string(body)))
	}

	return b.String()
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func maskCredential(v string) string {
	if scheme, _, ok := strings.Cut(v, " "); ok {
		return scheme + " ***"
	}
	return "***"
}

func logRequest(logger zerolog.Logger, processName string, req *http.Request) {
	logger.Debug().
		Str("process", processName).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", req.Header.Get(requestIDHeader)).
		Msg("sending request")
}

func logResponse(logger zerolog.Logger, processName string, resp *Response, duration time.Duration) {
	ev := logger.Debug().
		Str("process", processName).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Str("request_id", resp.requestID)
	if resp.Response != nil {
		ev = ev.Int64("content_length", resp.ContentLength)
	}
	ev.Msg("received response")
}
