package middleware

import (
	"net/http"
	"strings"
	"time"
)

// HTTPRecorder receives one observation per served request.
type HTTPRecorder interface {
	HTTPRequest(method, path string, status int, elapsed time.Duration)
}

// Metrics returns a middleware that records request counts and durations.
func Metrics(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			recorder.HTTPRequest(r.Method, normalizePath(r.URL.Path), wrapped.statusCode, time.Since(start))
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// idResources are the collections whose third path segment is an id.
var idResources = map[string]bool{
	"accounts":     true,
	"transactions": true,
}

// normalizePath replaces resource ids to keep label cardinality low:
// /api/v1/accounts/01ABC123/entries -> /api/v1/accounts/:id/entries
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	// "", "api", "v1", resource, id, ...
	if len(segments) < 5 || segments[1] != "api" || !idResources[segments[3]] || segments[4] == "" {
		return path
	}

	segments[4] = ":id"
	return strings.Join(segments, "/")
}
