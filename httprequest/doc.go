// Package httprequest is the request layer for chayns backends: it sends a
// request, resolves the response according to per-call options merged over
// client defaults, and logs every result.
//
// # Features
//
//   - Defaults merged with call-site config and options (call site wins)
//   - Status and chayns error code handlers with literal or regex keys
//   - Response types: json, text, blob, binary, none, response, error and
//     their "WithStatus" variants
//   - Transport failures resolved as the synthetic status 1
//   - One silent token refresh and retry on 401 "token_expired"
//   - zerolog request logs with configurable levels per status or error code
//   - Side effects, error dialogs and a delayed wait cursor via the host
//   - OpenTelemetry tracing and metrics, optional circuit breaker and rate limit
//
// # Quick Start
//
//	client := httprequest.New(
//	    httprequest.WithHost(runtime),
//	    httprequest.WithDefaults(httprequest.Defaults{
//	        Address: "https://cube.tobit.cloud/my-backend/v1.0",
//	    }),
//	)
//
//	res, err := client.Fetch(ctx, "/users/##userId##", httprequest.Config{
//	    UseChaynsAuth: httprequest.Bool(true),
//	}, "GetUser", httprequest.Options{
//	    ResponseType: httprequest.ResponseTypeJSON,
//	    StatusHandlers: httprequest.NewPatternMap[httprequest.Handler]().
//	        Set("404", httprequest.Decode(httprequest.ResponseTypeNone)),
//	})
//
// # Keys
//
// Handler, log and replacement maps take keys that are either literals
// ("401", "tapp_api/user_not_found") or regexes written as /pattern/flags
// ("/^5\d{2}$/", "/^auth\//i"). Literal keys are looked up first; regex keys
// are tried in registration order.
//
// # Errors
//
// Unhandled failures are returned as *RequestError, or *ChaynsError when the
// body carried a chayns error:
//
//	if httprequest.IsChaynsError(err, "tapp_api/user_not_found") { ... }
//	if httprequest.StatusCode(err) == httprequest.StatusFailedToFetch { ... }
package httprequest
