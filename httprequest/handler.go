package httprequest

import "context"

// HandlerFunc resolves a response into a result. errObj is set when the body
// was classified as a chayns error.
//
// Returning an error rejects the request with that error.
type HandlerFunc func(ctx context.Context, resp *Response, errObj *ChaynsErrorObject) (any, error)

// Handler is either a custom function or a decoding directive.
//
// Example:
//
//	opts := httprequest.Options{
//	    StatusHandlers: httprequest.NewPatternMap[httprequest.Handler]().
//	        Set("204", httprequest.Decode(httprequest.ResponseTypeNone)).
//	        Set("404", httprequest.Custom(func(ctx context.Context, resp *httprequest.Response, _ *httprequest.ChaynsErrorObject) (any, error) {
//	            return []User{}, nil
//	        })),
//	}
type Handler struct {
	fn           HandlerFunc
	responseType ResponseType
}

// Custom wraps a function handler.
func Custom(fn HandlerFunc) Handler {
	return Handler{fn: fn}
}

// Decode wraps a response type directive.
func Decode(rt ResponseType) Handler {
	return Handler{responseType: rt}
}

// IsCustom reports whether h wraps a function.
func (h Handler) IsCustom() bool {
	return h.fn != nil
}

// ResponseType returns the directive of a decoding handler.
func (h Handler) ResponseType() ResponseType {
	return h.responseType
}
