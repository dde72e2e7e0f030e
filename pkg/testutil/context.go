package testutil

import (
	"net/http"
	"time"

	"folio/pkg/requestcontext"
)

// WithRequestTime pins the time a handler observes, as the requesttime
// middleware would.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID sets the request id the handler and audit trail see.
func WithRequestID(req *http.Request, id string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), id))
}
