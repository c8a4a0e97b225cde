package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// requestIDHeader is the HTTP trace header. This id tags log lines for
// one round trip; it is unrelated to the `req_...` correlation id of an
// analysis record, which lives in issue bodies and survives across
// requests.
const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = contextKey("requestID")
)

// requestID assigns every inbound request a trace id, honoring one
// supplied by the caller, and echoes it back so a reconciliation
// webhook and the status polls that follow it can be tied together in
// the logs.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), requestIDKey, id),
		))
	})
}

// getRequestID returns the trace id stored by the middleware, or ""
// for contexts that never passed through it.
func getRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)

	return id
}
