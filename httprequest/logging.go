package httprequest

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const maxBodyLogSize = 4 * 1024

// resolveLogLevel picks the level a finished request is logged with:
// an exact status key first, then the chayns error code (exact, then regex),
// then any key that matches the status as an unanchored pattern. Without a
// match def is used.
func resolveLogLevel(status int, cfg *PatternMap[LogLevel], def LogLevel, errObj *ChaynsErrorObject) LogLevel {
	if cfg.Len() == 0 {
		return def
	}

	statusStr := strconv.Itoa(status)
	for _, e := range cfg.entries {
		if e.key.matchExact(statusStr) {
			return e.value
		}
	}

	if errObj != nil {
		if lvl, ok := cfg.Lookup(errObj.ErrorCode); ok {
			return lvl
		}
	}

	if lvl, ok := cfg.lookupLoose(statusStr); ok {
		return lvl
	}
	return def
}

// defaultLogLevel is info for successes, warning for 401 and error for
// every other failure.
func defaultLogLevel(status int) LogLevel {
	switch {
	case status == StatusFailedToFetch:
		return LogLevelError
	case status < 400:
		return LogLevelInfo
	case status == 401:
		return LogLevelWarning
	default:
		return LogLevelError
	}
}

// event returns the zerolog event for lvl, or nil for LogLevelNone.
// zerolog treats nil events as no-ops.
func event(logger zerolog.Logger, lvl LogLevel) *zerolog.Event {
	switch lvl {
	case LogLevelNone:
		return nil
	case LogLevelInfo:
		return logger.Info()
	case LogLevelWarning:
		return logger.Warn()
	case LogLevelCritical:
		return logger.Error().Str("severity", string(LogLevelCritical))
	default:
		return logger.Error()
	}
}

// logResult writes the request log entry.
func (c *call) logResult(lvl LogLevel, resp *Response, errObj *ChaynsErrorObject) {
	c.client.requestLogs.observe(lvl, resp.StatusCode)

	ev := event(c.client.logger, lvl)
	if ev == nil {
		return
	}

	ev = ev.
		Str("process", c.processName).
		Str("method", c.cfg.Method).
		Str("url", c.url).
		Int("status", resp.StatusCode).
		Dur("duration", resp.duration).
		Str("request_id", c.requestID)

	if errObj != nil {
		ev = ev.
			Str("error_code", errObj.ErrorCode).
			Str("chayns_request_id", errObj.RequestID).
			Str("display_message", errObj.DisplayMessage)
	}

	if err := resp.TransportError(); err != nil {
		ev = ev.Err(err)
	}

	if resp.IsError() {
		if body, err := resp.Body(); err == nil && len(body) > 0 {
			if len(body) > maxBodyLogSize {
				body = body[:maxBodyLogSize]
			}
			ev = ev.Bytes("response_body", body)
		}
	}

	if resp.curlCommand != "" {
		ev = ev.Str("curl", resp.curlCommand)
	}

	ev.Msg("request completed")
}

// requestLogCounter counts logged requests per level and status.
type requestLogCounter struct {
	vec *prometheus.CounterVec
}

func newRequestLogCounter(reg prometheus.Registerer) (*requestLogCounter, error) {
	if reg == nil {
		return nil, nil
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chayns_helper",
		Name:      "requests_total",
		Help:      "Number of finished requests by log level and status.",
	}, []string{"level", "status"})

	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		vec = existing
	}

	return &requestLogCounter{vec: vec}, nil
}

func (c *requestLogCounter) observe(lvl LogLevel, status int) {
	if c == nil {
		return
	}
	c.vec.WithLabelValues(string(lvl), strconv.Itoa(status)).Inc()
}
