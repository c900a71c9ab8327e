package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestIDMiddleware attaches a request ID to the context and echoes it in
// the x-request-id response header. An id supplied by the client is reused
// so a controller host can correlate its own logs with ours.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("x-request-id", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID for the current request, or "".
func GetRequestID(r *http.Request) string {
	if r == nil {
		return ""
	}
	requestID, _ := r.Context().Value(requestIDKey).(string)
	return requestID
}
